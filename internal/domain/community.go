package domain

import "time"

// to iterate thru layers: handler -> service -> storage
type CommunityCreationData struct {
	Name        string
	Description string
	Type        string
	IsNSFW      bool
	CreatorId   UserId
}

// CommunityUpdate carries the whitelisted, already validated settings fields.
// Nil pointers mean "unchanged".
type CommunityUpdate struct {
	Name        *string
	Description *string
	Sidebar     *string
	Type        *string
	IsNSFW      *bool
}

type Community struct {
	Id          CommunityId   `json:"id"`
	Slug        CommunitySlug `json:"slug"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Sidebar     string        `json:"sidebar,omitempty"`
	Type        string        `json:"type"`
	IsNSFW      bool          `json:"isNSFW"`
	IsArchived  bool          `json:"isArchived"`
	CreatorId   UserId        `json:"creatorId"`
	MemberCount int           `json:"memberCount"`
	PostCount   int           `json:"postCount"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type Member struct {
	CommunityId CommunityId `json:"communityId"`
	UserId      UserId      `json:"userId"`
	Role        string      `json:"role"`
	JoinedAt    time.Time   `json:"joinedAt"`

	// denormalized for member listings
	Email       Email  `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Karma       int    `json:"karma,omitempty"`
}

type Ban struct {
	CommunityId CommunityId `json:"communityId"`
	UserId      UserId      `json:"userId"`
	BannedBy    UserId      `json:"bannedBy"`
	Reason      string      `json:"reason"`
	Status      string      `json:"status"`
	ExpiresAt   *time.Time  `json:"expiresAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`

	Email       Email  `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Flair is a community-scoped post label. Colors are stored as #RRGGBB.
type Flair struct {
	Id          FlairId     `json:"id"`
	CommunityId CommunityId `json:"communityId"`
	Name        string      `json:"name"`
	Color       string      `json:"color"`
	TextColor   string      `json:"textColor"`
}

type Rule struct {
	Id          RuleId      `json:"id"`
	CommunityId CommunityId `json:"communityId"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	SortOrder   int         `json:"sortOrder"`
}
