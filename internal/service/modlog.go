package service

import (
	"github.com/kiez-net/kiez/internal/domain"
)

// to mock service in tests
type ModLogService interface {
	List(slug domain.CommunitySlug, action string, actor *domain.User, page int) ([]domain.ModLogEntry, int, error)
}

type ModLog struct {
	storage ModLogStorage
	roles   *Roles
	cfg     ModLogConfig
}

type ModLogConfig struct {
	ModLogPerPage int
}

type ModLogStorage interface {
	CommunityBySlug(slug domain.CommunitySlug) (domain.Community, error)
	ModLog(communityId domain.CommunityId, action string, page, limit int) ([]domain.ModLogEntry, int, error)
}

func NewModLog(storage ModLogStorage, roles *Roles, cfg ModLogConfig) *ModLog {
	return &ModLog{storage, roles, cfg}
}

// List returns the audit log, newest first. Moderator only.
func (m *ModLog) List(slug domain.CommunitySlug, action string, actor *domain.User, page int) ([]domain.ModLogEntry, int, error) {
	community, err := m.storage.CommunityBySlug(slug)
	if err != nil {
		return nil, 0, err
	}
	if err := m.roles.RequireModerator(community.Id, actor); err != nil {
		return nil, 0, err
	}
	return m.storage.ModLog(community.Id, action, max(1, page), m.cfg.ModLogPerPage)
}
