package domain

import "time"

type PostCreationData struct {
	CommunityId CommunityId
	AuthorId    UserId
	Type        string
	Title       string
	Content     string
	LinkURL     string
	FlairId     *FlairId
	PollOptions []string
}

type Post struct {
	Id           PostId      `json:"id"`
	CommunityId  CommunityId `json:"communityId"`
	AuthorId     UserId      `json:"authorId"`
	Type         string      `json:"type"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	ContentHTML  string      `json:"contentHtml,omitempty"`
	LinkURL      string      `json:"linkUrl,omitempty"`
	FlairId      *FlairId    `json:"flairId,omitempty"`
	IsPinned     bool        `json:"isPinned"`
	IsLocked     bool        `json:"isLocked"`
	IsDeleted    bool        `json:"isDeleted"`
	IsRemoved    bool        `json:"isRemoved"`
	Score        int         `json:"score"`
	CommentCount int         `json:"commentCount"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type PollOption struct {
	Id        OptionId `json:"id"`
	PostId    PostId   `json:"postId"`
	Label     string   `json:"label"`
	SortOrder int      `json:"sortOrder"`
	VoteCount int      `json:"voteCount"`
}

// PostDetail is the read model for a single post page: the post itself plus
// poll tallies and the caller's own state.
type PostDetail struct {
	Post
	PollOptions  []PollOption `json:"pollOptions,omitempty"`
	UserVote     string       `json:"userVote,omitempty"`     // UP/DOWN on the post
	UserPollVote *OptionId    `json:"userPollVote,omitempty"` // chosen option, if any
	Saved        bool         `json:"saved"`
}
