package service

import (
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

// RoleStorage is the slice of storage the resolver needs.
type RoleStorage interface {
	Membership(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error)
	ActiveBan(communityId domain.CommunityId, userId domain.UserId) (domain.Ban, bool, error)
}

// Roles answers "what may this user do in this community". Global admins pass
// every check; everyone else is judged by their membership row. Unknown users
// resolve to RoleNone, so the default is always deny.
type Roles struct {
	storage RoleStorage
}

func NewRoles(storage RoleStorage) *Roles {
	return &Roles{storage}
}

func (r *Roles) RoleOf(communityId domain.CommunityId, user *domain.User) (string, error) {
	if user == nil {
		return domain.RoleNone, nil
	}
	member, err := r.storage.Membership(communityId, user.Id)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.RoleNone, nil
		}
		return domain.RoleNone, err
	}
	return member.Role, nil
}

// RequireModerator rejects callers below MODERATOR with a 403.
func (r *Roles) RequireModerator(communityId domain.CommunityId, user *domain.User) error {
	if user != nil && user.Admin {
		return nil
	}
	role, err := r.RoleOf(communityId, user)
	if err != nil {
		return err
	}
	if role != domain.RoleOwner && role != domain.RoleModerator {
		return &internal_errors.ErrorWithStatusCode{Message: "Keine Berechtigung", StatusCode: http.StatusForbidden}
	}
	return nil
}

// RequireOwner rejects everyone but the community owner and global admins.
func (r *Roles) RequireOwner(communityId domain.CommunityId, user *domain.User) error {
	if user != nil && user.Admin {
		return nil
	}
	role, err := r.RoleOf(communityId, user)
	if err != nil {
		return err
	}
	if role != domain.RoleOwner {
		return &internal_errors.ErrorWithStatusCode{Message: "Nur der Inhaber darf das", StatusCode: http.StatusForbidden}
	}
	return nil
}

// EnsureNotBanned rejects users with an active ban. Expired temporary bans
// are cleaned up on the way.
func (r *Roles) EnsureNotBanned(communityId domain.CommunityId, userId domain.UserId) error {
	_, banned, err := r.storage.ActiveBan(communityId, userId)
	if err != nil {
		return err
	}
	if banned {
		return &internal_errors.ErrorWithStatusCode{Message: "Du bist aus dieser Community ausgeschlossen", StatusCode: http.StatusForbidden}
	}
	return nil
}

// EnsureVisible enforces the visibility rules: private communities are only
// readable by members and admins.
func (r *Roles) EnsureVisible(c domain.Community, user *domain.User) error {
	if c.Type != domain.CommunityPrivate {
		return nil
	}
	if user != nil && user.Admin {
		return nil
	}
	role, err := r.RoleOf(c.Id, user)
	if err != nil {
		return err
	}
	if role == domain.RoleNone {
		return &internal_errors.ErrorWithStatusCode{Message: "Diese Community ist privat", StatusCode: http.StatusForbidden}
	}
	return nil
}
