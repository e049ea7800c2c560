package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

type mockCommunityStorage struct {
	created         []domain.CommunitySlug
	createErr       map[domain.CommunitySlug]error
	communities     map[domain.CommunitySlug]domain.Community
	membershipFunc  func(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error)
	archived        []domain.CommunityId
	updateCalled    bool
	createdRuleFunc func(communityId domain.CommunityId, title, description string, moderatorId domain.UserId) (domain.Rule, error)
	createFlairFunc func(f domain.Flair) (domain.Flair, error)
}

func (m *mockCommunityStorage) CreateCommunity(c domain.CommunityCreationData, slug domain.CommunitySlug) (domain.CommunityId, error) {
	if err, ok := m.createErr[slug]; ok {
		return 0, err
	}
	m.created = append(m.created, slug)
	if m.communities == nil {
		m.communities = map[domain.CommunitySlug]domain.Community{}
	}
	m.communities[slug] = domain.Community{Id: 1, Slug: slug, Name: c.Name, Type: c.Type, CreatorId: c.CreatorId, MemberCount: 1}
	return 1, nil
}

func (m *mockCommunityStorage) CommunityBySlug(slug domain.CommunitySlug) (domain.Community, error) {
	if c, ok := m.communities[slug]; ok {
		return c, nil
	}
	return domain.Community{}, &internal_errors.ErrorWithStatusCode{Message: "Community nicht gefunden", StatusCode: 404}
}

func (m *mockCommunityStorage) Communities(search, sort, communityType string, page, limit int) ([]domain.Community, int, error) {
	return nil, 0, nil
}

func (m *mockCommunityStorage) UpdateCommunity(id domain.CommunityId, upd domain.CommunityUpdate, moderatorId domain.UserId) error {
	m.updateCalled = true
	return nil
}

func (m *mockCommunityStorage) ArchiveCommunity(id domain.CommunityId) error {
	m.archived = append(m.archived, id)
	return nil
}

func (m *mockCommunityStorage) Membership(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error) {
	if m.membershipFunc != nil {
		return m.membershipFunc(communityId, userId)
	}
	return domain.Member{}, &internal_errors.ErrorWithStatusCode{Message: "Keine Mitgliedschaft", StatusCode: 404}
}

func (m *mockCommunityStorage) ActiveBan(communityId domain.CommunityId, userId domain.UserId) (domain.Ban, bool, error) {
	return domain.Ban{}, false, nil
}

func (m *mockCommunityStorage) Moderators(communityId domain.CommunityId) ([]domain.Member, error) {
	return nil, nil
}

func (m *mockCommunityStorage) Rules(communityId domain.CommunityId) ([]domain.Rule, error) {
	return nil, nil
}

func (m *mockCommunityStorage) CreateRule(communityId domain.CommunityId, title, description string, moderatorId domain.UserId) (domain.Rule, error) {
	if m.createdRuleFunc != nil {
		return m.createdRuleFunc(communityId, title, description, moderatorId)
	}
	return domain.Rule{Id: 1, CommunityId: communityId, Title: title, Description: description, SortOrder: 1}, nil
}

func (m *mockCommunityStorage) UpdateRule(communityId domain.CommunityId, ruleId domain.RuleId, title, description string, moderatorId domain.UserId) error {
	return nil
}

func (m *mockCommunityStorage) DeleteRule(communityId domain.CommunityId, ruleId domain.RuleId, moderatorId domain.UserId) error {
	return nil
}

func (m *mockCommunityStorage) Flairs(communityId domain.CommunityId) ([]domain.Flair, error) {
	return nil, nil
}

func (m *mockCommunityStorage) CreateFlair(f domain.Flair) (domain.Flair, error) {
	if m.createFlairFunc != nil {
		return m.createFlairFunc(f)
	}
	f.Id = 1
	return f, nil
}

func (m *mockCommunityStorage) DeleteFlair(communityId domain.CommunityId, flairId domain.FlairId) error {
	return nil
}

func newCommunityService(storage *mockCommunityStorage) *Community {
	return NewCommunity(storage, NewRoles(storage), CommunityConfig{CommunitiesPerPage: 20})
}

func TestCreateCommunity(t *testing.T) {
	t.Run("slug comes from the name", func(t *testing.T) {
		storage := &mockCommunityStorage{}
		community, err := newCommunityService(storage).Create(domain.CommunityCreationData{
			Name: "Schöneberger Kieztreff", Type: domain.CommunityPublic, CreatorId: 7,
		})
		require.NoError(t, err)
		assert.Equal(t, "schoneberger-kieztreff", community.Slug)
		assert.Equal(t, 1, community.MemberCount)
	})

	t.Run("taken slug gets a suffix", func(t *testing.T) {
		storage := &mockCommunityStorage{
			createErr: map[domain.CommunitySlug]error{
				"berlin": &internal_errors.ErrorWithStatusCode{Message: "Eine Community mit diesem Namen existiert bereits", StatusCode: 409},
			},
		}
		community, err := newCommunityService(storage).Create(domain.CommunityCreationData{
			Name: "Berlin", Type: domain.CommunityPublic, CreatorId: 7,
		})
		require.NoError(t, err)
		assert.Regexp(t, `^berlin-[0-9a-f]{4}$`, community.Slug)
	})
}

func TestGetCommunity(t *testing.T) {
	t.Run("archived reads as gone", func(t *testing.T) {
		storage := &mockCommunityStorage{
			communities: map[domain.CommunitySlug]domain.Community{
				"alt": {Id: 1, Slug: "alt", IsArchived: true},
			},
		}
		_, _, _, _, err := newCommunityService(storage).Get("alt", &domain.User{Id: 2})
		assert.Equal(t, http.StatusNotFound, statusCode(t, err))
	})

	t.Run("private needs membership", func(t *testing.T) {
		storage := &mockCommunityStorage{
			communities: map[domain.CommunitySlug]domain.Community{
				"geheim": {Id: 1, Slug: "geheim", Type: domain.CommunityPrivate},
			},
		}
		_, _, _, _, err := newCommunityService(storage).Get("geheim", &domain.User{Id: 2})
		assert.Equal(t, http.StatusForbidden, statusCode(t, err))
	})

	t.Run("admin sees everything", func(t *testing.T) {
		storage := &mockCommunityStorage{
			communities: map[domain.CommunitySlug]domain.Community{
				"geheim": {Id: 1, Slug: "geheim", Type: domain.CommunityPrivate},
			},
		}
		_, _, _, _, err := newCommunityService(storage).Get("geheim", &domain.User{Id: 2, Admin: true})
		assert.NoError(t, err)
	})
}

func TestArchiveCommunity(t *testing.T) {
	communities := map[domain.CommunitySlug]domain.Community{
		"testkiez": {Id: 1, Slug: "testkiez", Type: domain.CommunityPublic},
	}
	asOwner := func(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error) {
		if userId == 1 {
			return domain.Member{CommunityId: communityId, UserId: userId, Role: domain.RoleOwner}, nil
		}
		return domain.Member{CommunityId: communityId, UserId: userId, Role: domain.RoleModerator}, nil
	}

	t.Run("owner archives", func(t *testing.T) {
		storage := &mockCommunityStorage{communities: communities, membershipFunc: asOwner}
		err := newCommunityService(storage).Archive("testkiez", &domain.User{Id: 1})
		require.NoError(t, err)
		assert.Equal(t, []domain.CommunityId{1}, storage.archived)
	})

	t.Run("moderator may not archive", func(t *testing.T) {
		storage := &mockCommunityStorage{communities: communities, membershipFunc: asOwner}
		err := newCommunityService(storage).Archive("testkiez", &domain.User{Id: 2})
		assert.Equal(t, http.StatusForbidden, statusCode(t, err))
		assert.Empty(t, storage.archived)
	})
}

func TestCreateRule(t *testing.T) {
	communities := map[domain.CommunitySlug]domain.Community{
		"testkiez": {Id: 1, Slug: "testkiez", Type: domain.CommunityPublic},
	}
	asModerator := func(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error) {
		return domain.Member{CommunityId: communityId, UserId: userId, Role: domain.RoleModerator}, nil
	}

	t.Run("markup is stripped from title and description", func(t *testing.T) {
		var stored domain.Rule
		storage := &mockCommunityStorage{
			communities:    communities,
			membershipFunc: asModerator,
			createdRuleFunc: func(communityId domain.CommunityId, title, description string, moderatorId domain.UserId) (domain.Rule, error) {
				stored = domain.Rule{Id: 1, CommunityId: communityId, Title: title, Description: description}
				return stored, nil
			},
		}
		_, err := newCommunityService(storage).CreateRule(
			"testkiez", "<b>Sei freundlich</b>", `Kein <script>alert(1)</script>Spam`, &domain.User{Id: 3})
		require.NoError(t, err)
		assert.Equal(t, "Sei freundlich", stored.Title)
		assert.Equal(t, "Kein Spam", stored.Description)
	})

	t.Run("title that is only markup is rejected", func(t *testing.T) {
		storage := &mockCommunityStorage{communities: communities, membershipFunc: asModerator}
		_, err := newCommunityService(storage).CreateRule(
			"testkiez", "<img src=x onerror=alert(1)>", "", &domain.User{Id: 3})
		assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
	})

	t.Run("update strips markup too", func(t *testing.T) {
		storage := &mockCommunityStorage{communities: communities, membershipFunc: asModerator}
		err := newCommunityService(storage).UpdateRule(
			"testkiez", 1, "<i>Regel</i>", "ok", &domain.User{Id: 3})
		require.NoError(t, err)
	})
}

func TestCreateFlair(t *testing.T) {
	communities := map[domain.CommunitySlug]domain.Community{
		"testkiez": {Id: 1, Slug: "testkiez", Type: domain.CommunityPublic},
	}
	asModerator := func(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error) {
		return domain.Member{CommunityId: communityId, UserId: userId, Role: domain.RoleModerator}, nil
	}

	t.Run("empty colors fall back to defaults", func(t *testing.T) {
		storage := &mockCommunityStorage{communities: communities, membershipFunc: asModerator}
		flair, err := newCommunityService(storage).CreateFlair("testkiez", "Frage", "", "", &domain.User{Id: 3})
		require.NoError(t, err)
		assert.Equal(t, "#6B7280", flair.Color)
		assert.Equal(t, "#FFFFFF", flair.TextColor)
		assert.Equal(t, domain.CommunityId(1), flair.CommunityId)
	})

	t.Run("name that is only markup is rejected", func(t *testing.T) {
		storage := &mockCommunityStorage{communities: communities, membershipFunc: asModerator}
		_, err := newCommunityService(storage).CreateFlair("testkiez", "<b></b>", "", "", &domain.User{Id: 3})
		assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
	})

	t.Run("plain member may not create flairs", func(t *testing.T) {
		storage := &mockCommunityStorage{communities: communities}
		_, err := newCommunityService(storage).CreateFlair("testkiez", "Frage", "", "", &domain.User{Id: 3})
		assert.Equal(t, http.StatusForbidden, statusCode(t, err))
	})
}
