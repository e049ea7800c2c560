package domain

import "time"

// Mod log actions. The log is append-only; rows are never updated or deleted.
const (
	ActionPinPost       = "PIN_POST"
	ActionUnpinPost     = "UNPIN_POST"
	ActionLockPost      = "LOCK_POST"
	ActionUnlockPost    = "UNLOCK_POST"
	ActionRemovePost    = "REMOVE_POST"
	ActionRemoveComment = "REMOVE_COMMENT"
	ActionBanUser       = "BAN_USER"
	ActionUnbanUser     = "UNBAN_USER"
	ActionChangeRole    = "CHANGE_ROLE"
	ActionRemoveMember  = "REMOVE_MEMBER"
	ActionEditSettings  = "EDIT_SETTINGS"
	ActionEditRules     = "EDIT_RULES"
	ActionResolveReport = "RESOLVE_REPORT"
)

type ModLogEntry struct {
	Id           int64       `json:"id"`
	CommunityId  CommunityId `json:"communityId"`
	ModeratorId  UserId      `json:"moderatorId"`
	Action       string      `json:"action"`
	TargetUserId *UserId     `json:"targetUserId,omitempty"`
	TargetPostId *PostId     `json:"targetPostId,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	Metadata     string      `json:"metadata,omitempty"` // free-form JSON blob
	CreatedAt    time.Time   `json:"createdAt"`
}

type Report struct {
	Id          ReportId    `json:"id"`
	CommunityId CommunityId `json:"communityId"`
	ReporterId  UserId      `json:"reporterId"`
	PostId      *PostId     `json:"postId,omitempty"`
	RuleId      *RuleId     `json:"ruleId,omitempty"`
	Reason      string      `json:"reason"`
	Status      string      `json:"status"`
	ResolvedBy  *UserId     `json:"resolvedBy,omitempty"`
	ResolvedAt  *time.Time  `json:"resolvedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}
