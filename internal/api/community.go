package api

import "github.com/kiez-net/kiez/internal/domain"

type CreateCommunityRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=500"`
	Type        string `json:"type" validate:"omitempty,oneof=PUBLIC RESTRICTED PRIVATE"`
	IsNSFW      bool   `json:"isNSFW"`
}

// UpdateCommunityRequest uses pointers so absent fields stay unchanged.
type UpdateCommunityRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Sidebar     *string `json:"sidebar" validate:"omitempty,max=5000"`
	Type        *string `json:"type" validate:"omitempty,oneof=PUBLIC RESTRICTED PRIVATE"`
	IsNSFW      *bool   `json:"isNSFW"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=MODERATOR MEMBER"`
}

type BanRequest struct {
	UserId domain.UserId `json:"userId" validate:"required"`
	Reason string        `json:"reason" validate:"max=500"`
	Status string        `json:"status" validate:"omitempty,oneof=PERMANENT TEMPORARY"`
	Days   int           `json:"days" validate:"omitempty,min=1,max=365"`
}

type CreateFlairRequest struct {
	Name      string `json:"name" validate:"required,max=50"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
	TextColor string `json:"textColor" validate:"omitempty,hexcolor"`
}

type CreateRuleRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

// Response DTOs

type CommunityResponse struct {
	Ok        bool             `json:"ok"`
	Community domain.Community `json:"community"`
}

type CommunityListResponse struct {
	Total       int                `json:"total"`
	Page        int                `json:"page"`
	Limit       int                `json:"limit"`
	Communities []domain.Community `json:"communities"`
}

type CommunityDetailResponse struct {
	Community  domain.Community `json:"community"`
	Membership *domain.Member   `json:"membership,omitempty"`
	Moderators []domain.Member  `json:"moderators"`
	Rules      []domain.Rule    `json:"rules"`
}

type MemberListResponse struct {
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	Members []domain.Member `json:"members"`
}

type BanListResponse struct {
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Bans  []domain.Ban `json:"bans"`
}

type RuleResponse struct {
	Ok   bool        `json:"ok"`
	Rule domain.Rule `json:"rule"`
}

type RuleListResponse struct {
	Rules []domain.Rule `json:"rules"`
}

type FlairResponse struct {
	Ok    bool         `json:"ok"`
	Flair domain.Flair `json:"flair"`
}

type FlairListResponse struct {
	Flairs []domain.Flair `json:"flairs"`
}
