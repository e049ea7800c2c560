package service

import (
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
	"github.com/kiez-net/kiez/internal/markdown"
	"github.com/kiez-net/kiez/internal/middleware/metrics"
)

// to mock service in tests
type ReportService interface {
	Report(postId domain.PostId, reason string, ruleId *domain.RuleId, reporter *domain.User) (domain.ReportId, error)
	List(slug domain.CommunitySlug, status string, actor *domain.User, page int) ([]domain.Report, int, error)
	Moderate(slug domain.CommunitySlug, reportId domain.ReportId, action string, actor *domain.User) (string, error)
}

type Reports struct {
	storage ReportStorage
	roles   *Roles
	cfg     ReportConfig
}

type ReportConfig struct {
	ModLogPerPage int
	MaxReportLen  int
}

type ReportStorage interface {
	CommunityBySlug(slug domain.CommunitySlug) (domain.Community, error)
	PostById(id domain.PostId) (domain.Post, error)

	CreateReport(r domain.Report) (domain.ReportId, error)
	ReportById(id domain.ReportId) (domain.Report, error)
	Reports(communityId domain.CommunityId, status string, page, limit int) ([]domain.Report, int, error)
	SetReportStatus(id domain.ReportId, communityId domain.CommunityId, status string, moderatorId domain.UserId) error
	DeleteReport(id domain.ReportId, communityId domain.CommunityId) error
}

func NewReports(storage ReportStorage, roles *Roles, cfg ReportConfig) *Reports {
	return &Reports{storage, roles, cfg}
}

// Report files a report against a post. The reason is stripped of any markup
// before it is stored and capped at MaxReportLen. A second open report on the
// same post by the same user is rejected.
func (s *Reports) Report(postId domain.PostId, reason string, ruleId *domain.RuleId, reporter *domain.User) (domain.ReportId, error) {
	if len(reason) > s.cfg.MaxReportLen {
		return 0, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("Die Begründung darf höchstens %d Zeichen lang sein", s.cfg.MaxReportLen),
			StatusCode: http.StatusBadRequest,
		}
	}

	post, err := s.storage.PostById(postId)
	if err != nil {
		return 0, err
	}
	if post.IsDeleted || post.IsRemoved {
		return 0, notFound("Beitrag nicht gefunden")
	}

	return s.storage.CreateReport(domain.Report{
		CommunityId: post.CommunityId,
		ReporterId:  reporter.Id,
		PostId:      &postId,
		RuleId:      ruleId,
		Reason:      markdown.StripTags(reason),
	})
}

// List returns a community's reports. Moderator only; the default filter is
// open reports.
func (s *Reports) List(slug domain.CommunitySlug, status string, actor *domain.User, page int) ([]domain.Report, int, error) {
	community, err := s.storage.CommunityBySlug(slug)
	if err != nil {
		return nil, 0, err
	}
	if err := s.roles.RequireModerator(community.Id, actor); err != nil {
		return nil, 0, err
	}
	return s.storage.Reports(community.Id, status, max(1, page), s.cfg.ModLogPerPage)
}

// Moderate applies one of the four report actions and returns the resulting
// status (empty after a delete).
func (s *Reports) Moderate(slug domain.CommunitySlug, reportId domain.ReportId, action string, actor *domain.User) (string, error) {
	community, err := s.storage.CommunityBySlug(slug)
	if err != nil {
		return "", err
	}
	if err := s.roles.RequireModerator(community.Id, actor); err != nil {
		return "", err
	}
	if _, err := s.storage.ReportById(reportId); err != nil {
		return "", err
	}

	var status string
	switch action {
	case "review":
		status = domain.ReportInReview
	case "resolve":
		status = domain.ReportResolved
	case "reopen":
		status = domain.ReportOpen
	case "delete":
		return "", s.storage.DeleteReport(reportId, community.Id)
	default:
		return "", &internal_errors.ErrorWithStatusCode{Message: "Unbekannte Aktion", StatusCode: http.StatusBadRequest}
	}

	if err := s.storage.SetReportStatus(reportId, community.Id, status, actor.Id); err != nil {
		return "", err
	}
	if status == domain.ReportResolved {
		metrics.ModActionsTotal.WithLabelValues(domain.ActionResolveReport).Inc()
	}
	return status, nil
}
