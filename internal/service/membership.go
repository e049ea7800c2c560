package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
	"github.com/kiez-net/kiez/internal/logger"
	"github.com/kiez-net/kiez/internal/middleware/metrics"
)

// to mock service in tests
type MembershipService interface {
	Join(slug domain.CommunitySlug, user *domain.User) error
	Leave(slug domain.CommunitySlug, user *domain.User) error
	Members(slug domain.CommunitySlug, actor *domain.User, page int) ([]domain.Member, int, error)
	ChangeRole(slug domain.CommunitySlug, targetId domain.UserId, role string, actor *domain.User) error
	RemoveMember(slug domain.CommunitySlug, targetId domain.UserId, reason string, actor *domain.User) error

	Ban(slug domain.CommunitySlug, ban domain.Ban, days int, actor *domain.User) error
	Unban(slug domain.CommunitySlug, targetId domain.UserId, actor *domain.User) error
	Bans(slug domain.CommunitySlug, actor *domain.User, page int) ([]domain.Ban, int, error)
}

type Membership struct {
	storage MembershipStorage
	roles   *Roles
	cfg     MembershipConfig
}

type MembershipConfig struct {
	MembersPerPage int
}

type MembershipStorage interface {
	CommunityBySlug(slug domain.CommunitySlug) (domain.Community, error)
	Membership(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error)
	AddMember(communityId domain.CommunityId, userId domain.UserId) error
	RemoveMembership(communityId domain.CommunityId, userId domain.UserId) error
	Members(communityId domain.CommunityId, page, limit int) ([]domain.Member, int, error)
	ChangeRole(communityId domain.CommunityId, userId domain.UserId, role string, moderatorId domain.UserId) error
	RemoveMember(communityId domain.CommunityId, userId domain.UserId, moderatorId domain.UserId, reason string) error

	BanUser(ban domain.Ban) error
	UnbanUser(communityId domain.CommunityId, userId domain.UserId, moderatorId domain.UserId) error
	Bans(communityId domain.CommunityId, page, limit int) ([]domain.Ban, int, error)

	CreateNotification(n domain.Notification) error
}

func NewMembership(storage MembershipStorage, roles *Roles, cfg MembershipConfig) *Membership {
	return &Membership{storage, roles, cfg}
}

// Join adds the caller as MEMBER. Re-joining is a no-op. Banned users and
// archived or private communities reject the join.
func (m *Membership) Join(slug domain.CommunitySlug, user *domain.User) error {
	community, err := m.activeCommunity(slug)
	if err != nil {
		return err
	}
	if community.Type == domain.CommunityPrivate {
		return &internal_errors.ErrorWithStatusCode{Message: "Dieser Community kann man nicht frei beitreten", StatusCode: http.StatusForbidden}
	}
	if err := m.roles.EnsureNotBanned(community.Id, user.Id); err != nil {
		return err
	}
	return m.storage.AddMember(community.Id, user.Id)
}

// Leave removes the caller's membership. Leaving twice is a no-op. The owner
// cannot leave; ownership has to be transferred out of band first.
func (m *Membership) Leave(slug domain.CommunitySlug, user *domain.User) error {
	community, err := m.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	member, err := m.storage.Membership(community.Id, user.Id)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if member.Role == domain.RoleOwner {
		return &internal_errors.ErrorWithStatusCode{Message: "Der Inhaber kann die Community nicht verlassen", StatusCode: http.StatusBadRequest}
	}
	return m.storage.RemoveMembership(community.Id, user.Id)
}

// Members lists a page of members. Public, subject to community visibility.
func (m *Membership) Members(slug domain.CommunitySlug, viewer *domain.User, page int) ([]domain.Member, int, error) {
	community, err := m.storage.CommunityBySlug(slug)
	if err != nil {
		return nil, 0, err
	}
	if err := m.roles.EnsureVisible(community, viewer); err != nil {
		return nil, 0, err
	}
	return m.storage.Members(community.Id, max(1, page), m.cfg.MembersPerPage)
}

// ChangeRole promotes or demotes a member between MODERATOR and MEMBER.
// Owner only, and never on yourself.
func (m *Membership) ChangeRole(slug domain.CommunitySlug, targetId domain.UserId, role string, actor *domain.User) error {
	community, err := m.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	if err := m.roles.RequireOwner(community.Id, actor); err != nil {
		return err
	}
	if targetId == actor.Id {
		return &internal_errors.ErrorWithStatusCode{Message: "Die eigene Rolle kann nicht geändert werden", StatusCode: http.StatusBadRequest}
	}
	if err := m.storage.ChangeRole(community.Id, targetId, role, actor.Id); err != nil {
		return err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionChangeRole).Inc()

	m.notify(domain.Notification{
		UserId: targetId,
		Kind:   "ROLE_CHANGED",
		Title:  fmt.Sprintf("Deine Rolle in %s wurde geändert", community.Name),
		Body:   fmt.Sprintf("Neue Rolle: %s", role),
	})
	return nil
}

// RemoveMember kicks a member without banning them. Moderator only, owners
// cannot be removed.
func (m *Membership) RemoveMember(slug domain.CommunitySlug, targetId domain.UserId, reason string, actor *domain.User) error {
	community, err := m.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	if err := m.roles.RequireModerator(community.Id, actor); err != nil {
		return err
	}
	if err := m.storage.RemoveMember(community.Id, targetId, actor.Id, reason); err != nil {
		return err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionRemoveMember).Inc()
	return nil
}

// Ban blocks a user from the community and drops their membership. A
// temporary ban carries an expiry computed from days; re-banning replaces the
// previous ban.
func (m *Membership) Ban(slug domain.CommunitySlug, ban domain.Ban, days int, actor *domain.User) error {
	community, err := m.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	if err := m.roles.RequireModerator(community.Id, actor); err != nil {
		return err
	}
	if ban.UserId == actor.Id {
		return &internal_errors.ErrorWithStatusCode{Message: "Du kannst dich nicht selbst sperren", StatusCode: http.StatusBadRequest}
	}
	if target, err := m.storage.Membership(community.Id, ban.UserId); err == nil && target.Role == domain.RoleOwner {
		return &internal_errors.ErrorWithStatusCode{Message: "Der Inhaber kann nicht gesperrt werden", StatusCode: http.StatusBadRequest}
	} else if err != nil && !internal_errors.IsNotFound(err) {
		return err
	}

	ban.CommunityId = community.Id
	ban.BannedBy = actor.Id
	if ban.Status == domain.BanTemporary {
		expires := time.Now().AddDate(0, 0, days)
		ban.ExpiresAt = &expires
	} else {
		ban.ExpiresAt = nil
	}

	if err := m.storage.BanUser(ban); err != nil {
		return err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionBanUser).Inc()

	m.notify(domain.Notification{
		UserId: ban.UserId,
		Kind:   "BANNED",
		Title:  fmt.Sprintf("Du wurdest aus %s ausgeschlossen", community.Name),
		Body:   ban.Reason,
	})
	return nil
}

func (m *Membership) Unban(slug domain.CommunitySlug, targetId domain.UserId, actor *domain.User) error {
	community, err := m.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	if err := m.roles.RequireModerator(community.Id, actor); err != nil {
		return err
	}
	if err := m.storage.UnbanUser(community.Id, targetId, actor.Id); err != nil {
		return err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionUnbanUser).Inc()
	return nil
}

func (m *Membership) Bans(slug domain.CommunitySlug, actor *domain.User, page int) ([]domain.Ban, int, error) {
	community, err := m.storage.CommunityBySlug(slug)
	if err != nil {
		return nil, 0, err
	}
	if err := m.roles.RequireModerator(community.Id, actor); err != nil {
		return nil, 0, err
	}
	return m.storage.Bans(community.Id, max(1, page), m.cfg.MembersPerPage)
}

func (m *Membership) activeCommunity(slug domain.CommunitySlug) (domain.Community, error) {
	community, err := m.storage.CommunityBySlug(slug)
	if err != nil {
		return domain.Community{}, err
	}
	if community.IsArchived {
		return domain.Community{}, notFound("Community nicht gefunden")
	}
	return community, nil
}

// notify is best effort: a failed notification never fails the action that
// triggered it.
func (m *Membership) notify(n domain.Notification) {
	if err := m.storage.CreateNotification(n); err != nil {
		logger.Log.Error("failed to create notification", "err", err, "user", n.UserId)
	}
}
