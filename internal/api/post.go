package api

import "github.com/kiez-net/kiez/internal/domain"

type CreatePostRequest struct {
	Type        string          `json:"type" validate:"required,oneof=TEXT LINK POLL"`
	Title       string          `json:"title" validate:"required,max=300"`
	Content     string          `json:"content" validate:"max=40000"`
	LinkURL     string          `json:"linkUrl" validate:"omitempty,url"`
	FlairId     *domain.FlairId `json:"flairId"`
	PollOptions []string        `json:"pollOptions" validate:"omitempty,dive,required,max=100"`
}

// EditPostRequest uses pointers so absent fields stay unchanged. A flairId
// of 0 clears the flair.
type EditPostRequest struct {
	Title   *string         `json:"title" validate:"omitempty,max=300"`
	Content *string         `json:"content" validate:"omitempty,max=40000"`
	FlairId *domain.FlairId `json:"flairId"`
}

type PostVoteRequest struct {
	Type string `json:"type" validate:"required,oneof=UP DOWN NONE"`
}

type PollVoteRequest struct {
	OptionId domain.OptionId `json:"optionId" validate:"required"`
}

// Response DTOs

type PostResponse struct {
	Ok   bool        `json:"ok"`
	Post domain.Post `json:"post"`
}

type PostDetailResponse struct {
	Post domain.PostDetail `json:"post"`
}

type PostListResponse struct {
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Posts []domain.Post `json:"posts"`
}

type PinResponse struct {
	Ok       bool `json:"ok"`
	IsPinned bool `json:"isPinned"`
}

type LockResponse struct {
	Ok       bool `json:"ok"`
	IsLocked bool `json:"isLocked"`
}

type SaveResponse struct {
	Ok    bool `json:"ok"`
	Saved bool `json:"saved"`
}

type VoteResponse struct {
	Ok    bool `json:"ok"`
	Score int  `json:"score"`
}

type PollVoteResponse struct {
	Ok      bool                `json:"ok"`
	Results []domain.PollOption `json:"results"`
}
