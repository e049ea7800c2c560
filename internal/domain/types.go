package domain

type (
	Email  = string
	UserId = int64

	CommunityId   = int64
	CommunitySlug = string

	PostId    = int64
	OptionId  = int64
	RuleId    = int64
	ReportId  = int64
	CommentId = int64
	FlairId   = int64
)

// Community visibility.
const (
	CommunityPublic     = "PUBLIC"
	CommunityRestricted = "RESTRICTED"
	CommunityPrivate    = "PRIVATE"
)

// Membership roles, ordered by privilege.
const (
	RoleOwner     = "OWNER"
	RoleModerator = "MODERATOR"
	RoleMember    = "MEMBER"
	RoleNone      = "NONE"
)

// Ban kinds.
const (
	BanPermanent = "PERMANENT"
	BanTemporary = "TEMPORARY"
)

// Post types.
const (
	PostText = "TEXT"
	PostLink = "LINK"
	PostPoll = "POLL"
)

// Report lifecycle.
const (
	ReportOpen     = "OPEN"
	ReportInReview = "IN_REVIEW"
	ReportResolved = "RESOLVED"
)

// Post vote directions. VoteNone removes an existing vote.
const (
	VoteUp   = "UP"
	VoteDown = "DOWN"
	VoteNone = "NONE"
)
