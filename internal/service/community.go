package service

import (
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
	"github.com/kiez-net/kiez/internal/markdown"
	"github.com/kiez-net/kiez/internal/middleware/metrics"
	"github.com/kiez-net/kiez/internal/utils"
)

// to mock service in tests
type CommunityService interface {
	Create(data domain.CommunityCreationData) (domain.Community, error)
	Get(slug domain.CommunitySlug, viewer *domain.User) (domain.Community, *domain.Member, []domain.Member, []domain.Rule, error)
	List(search, sort, communityType string, page int) ([]domain.Community, int, error)
	Update(slug domain.CommunitySlug, upd domain.CommunityUpdate, actor *domain.User) error
	Archive(slug domain.CommunitySlug, actor *domain.User) error

	Rules(slug domain.CommunitySlug) ([]domain.Rule, error)
	CreateRule(slug domain.CommunitySlug, title, description string, actor *domain.User) (domain.Rule, error)
	UpdateRule(slug domain.CommunitySlug, ruleId domain.RuleId, title, description string, actor *domain.User) error
	DeleteRule(slug domain.CommunitySlug, ruleId domain.RuleId, actor *domain.User) error

	Flairs(slug domain.CommunitySlug) ([]domain.Flair, error)
	CreateFlair(slug domain.CommunitySlug, name, color, textColor string, actor *domain.User) (domain.Flair, error)
	DeleteFlair(slug domain.CommunitySlug, flairId domain.FlairId, actor *domain.User) error
}

type Community struct {
	storage CommunityStorage
	roles   *Roles
	cfg     CommunityConfig
}

type CommunityConfig struct {
	CommunitiesPerPage int
}

type CommunityStorage interface {
	CreateCommunity(c domain.CommunityCreationData, slug domain.CommunitySlug) (domain.CommunityId, error)
	CommunityBySlug(slug domain.CommunitySlug) (domain.Community, error)
	Communities(search, sort, communityType string, page, limit int) ([]domain.Community, int, error)
	UpdateCommunity(id domain.CommunityId, upd domain.CommunityUpdate, moderatorId domain.UserId) error
	ArchiveCommunity(id domain.CommunityId) error

	Membership(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error)
	Moderators(communityId domain.CommunityId) ([]domain.Member, error)

	Rules(communityId domain.CommunityId) ([]domain.Rule, error)
	CreateRule(communityId domain.CommunityId, title, description string, moderatorId domain.UserId) (domain.Rule, error)
	UpdateRule(communityId domain.CommunityId, ruleId domain.RuleId, title, description string, moderatorId domain.UserId) error
	DeleteRule(communityId domain.CommunityId, ruleId domain.RuleId, moderatorId domain.UserId) error

	Flairs(communityId domain.CommunityId) ([]domain.Flair, error)
	CreateFlair(f domain.Flair) (domain.Flair, error)
	DeleteFlair(communityId domain.CommunityId, flairId domain.FlairId) error
}

func NewCommunity(storage CommunityStorage, roles *Roles, cfg CommunityConfig) *Community {
	return &Community{storage, roles, cfg}
}

// Create sets up a community with the creator as owner. The slug is derived
// from the name; when it is taken, a short random suffix disambiguates.
func (c *Community) Create(data domain.CommunityCreationData) (domain.Community, error) {
	slug := utils.Slugify(data.Name)
	if slug == "" {
		slug = utils.RandomSlug()
	}

	_, err := c.storage.CreateCommunity(data, slug)
	if err != nil {
		e, ok := err.(*internal_errors.ErrorWithStatusCode)
		if !ok || e.StatusCode != 409 {
			return domain.Community{}, err
		}
		slug = slug + "-" + utils.RandomSlug()[:4]
		if _, err = c.storage.CreateCommunity(data, slug); err != nil {
			return domain.Community{}, err
		}
	}

	return c.storage.CommunityBySlug(slug)
}

// Get assembles the community page: the community itself, the viewer's own
// membership (nil when not a member), the moderator list and the rules.
// Archived communities read as gone.
func (c *Community) Get(slug domain.CommunitySlug, viewer *domain.User) (domain.Community, *domain.Member, []domain.Member, []domain.Rule, error) {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return domain.Community{}, nil, nil, nil, err
	}
	if community.IsArchived && (viewer == nil || !viewer.Admin) {
		return domain.Community{}, nil, nil, nil, notFound("Community nicht gefunden")
	}
	if err := c.roles.EnsureVisible(community, viewer); err != nil {
		return domain.Community{}, nil, nil, nil, err
	}

	var membership *domain.Member
	if viewer != nil {
		m, err := c.storage.Membership(community.Id, viewer.Id)
		if err == nil {
			membership = &m
		} else if !internal_errors.IsNotFound(err) {
			return domain.Community{}, nil, nil, nil, err
		}
	}

	moderators, err := c.storage.Moderators(community.Id)
	if err != nil {
		return domain.Community{}, nil, nil, nil, err
	}
	rules, err := c.storage.Rules(community.Id)
	if err != nil {
		return domain.Community{}, nil, nil, nil, err
	}
	return community, membership, moderators, rules, nil
}

func (c *Community) List(search, sort, communityType string, page int) ([]domain.Community, int, error) {
	page = max(1, page)
	return c.storage.Communities(search, sort, communityType, page, c.cfg.CommunitiesPerPage)
}

func (c *Community) Update(slug domain.CommunitySlug, upd domain.CommunityUpdate, actor *domain.User) error {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	if err := c.roles.RequireModerator(community.Id, actor); err != nil {
		return err
	}
	if err := c.storage.UpdateCommunity(community.Id, upd, actor.Id); err != nil {
		return err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionEditSettings).Inc()
	return nil
}

// Archive soft-deletes a community. Owner only.
func (c *Community) Archive(slug domain.CommunitySlug, actor *domain.User) error {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	if err := c.roles.RequireOwner(community.Id, actor); err != nil {
		return err
	}
	return c.storage.ArchiveCommunity(community.Id)
}

func (c *Community) Rules(slug domain.CommunitySlug) ([]domain.Rule, error) {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return nil, err
	}
	return c.storage.Rules(community.Id)
}

func (c *Community) CreateRule(slug domain.CommunitySlug, title, description string, actor *domain.User) (domain.Rule, error) {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return domain.Rule{}, err
	}
	if err := c.roles.RequireModerator(community.Id, actor); err != nil {
		return domain.Rule{}, err
	}
	title, description, err = cleanRule(title, description)
	if err != nil {
		return domain.Rule{}, err
	}
	rule, err := c.storage.CreateRule(community.Id, title, description, actor.Id)
	if err != nil {
		return domain.Rule{}, err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionEditRules).Inc()
	return rule, nil
}

func (c *Community) UpdateRule(slug domain.CommunitySlug, ruleId domain.RuleId, title, description string, actor *domain.User) error {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	if err := c.roles.RequireModerator(community.Id, actor); err != nil {
		return err
	}
	title, description, err = cleanRule(title, description)
	if err != nil {
		return err
	}
	if err := c.storage.UpdateRule(community.Id, ruleId, title, description, actor.Id); err != nil {
		return err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionEditRules).Inc()
	return nil
}

func (c *Community) DeleteRule(slug domain.CommunitySlug, ruleId domain.RuleId, actor *domain.User) error {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	if err := c.roles.RequireModerator(community.Id, actor); err != nil {
		return err
	}
	if err := c.storage.DeleteRule(community.Id, ruleId, actor.Id); err != nil {
		return err
	}
	metrics.ModActionsTotal.WithLabelValues(domain.ActionEditRules).Inc()
	return nil
}

func (c *Community) Flairs(slug domain.CommunitySlug) ([]domain.Flair, error) {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return nil, err
	}
	return c.storage.Flairs(community.Id)
}

// CreateFlair adds a post label. Moderator only; empty colors fall back to
// the defaults.
func (c *Community) CreateFlair(slug domain.CommunitySlug, name, color, textColor string, actor *domain.User) (domain.Flair, error) {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return domain.Flair{}, err
	}
	if err := c.roles.RequireModerator(community.Id, actor); err != nil {
		return domain.Flair{}, err
	}

	name = markdown.StripTags(name)
	if name == "" {
		return domain.Flair{}, &internal_errors.ErrorWithStatusCode{Message: "Name erforderlich", StatusCode: http.StatusBadRequest}
	}
	if color == "" {
		color = "#6B7280"
	}
	if textColor == "" {
		textColor = "#FFFFFF"
	}
	return c.storage.CreateFlair(domain.Flair{
		CommunityId: community.Id,
		Name:        name,
		Color:       color,
		TextColor:   textColor,
	})
}

func (c *Community) DeleteFlair(slug domain.CommunitySlug, flairId domain.FlairId, actor *domain.User) error {
	community, err := c.storage.CommunityBySlug(slug)
	if err != nil {
		return err
	}
	if err := c.roles.RequireModerator(community.Id, actor); err != nil {
		return err
	}
	return c.storage.DeleteFlair(community.Id, flairId)
}

// cleanRule strips markup from moderator-supplied rule text. A title that is
// empty after stripping is rejected.
func cleanRule(title, description string) (string, string, error) {
	title = markdown.StripTags(title)
	if title == "" {
		return "", "", &internal_errors.ErrorWithStatusCode{Message: "Titel erforderlich", StatusCode: http.StatusBadRequest}
	}
	return title, markdown.StripTags(description), nil
}

func notFound(msg string) error {
	return &internal_errors.ErrorWithStatusCode{Message: msg, StatusCode: 404}
}
