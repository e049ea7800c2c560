package service

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

type mockReportStorage struct {
	createReportFunc    func(r domain.Report) (domain.ReportId, error)
	setReportStatusFunc func(id domain.ReportId, communityId domain.CommunityId, status string, moderatorId domain.UserId) error
	membershipFunc      func(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error)
	postByIdFunc        func(id domain.PostId) (domain.Post, error)
	deletedReports      []domain.ReportId
}

func (m *mockReportStorage) CommunityBySlug(slug domain.CommunitySlug) (domain.Community, error) {
	return domain.Community{Id: 1, Slug: slug, Type: domain.CommunityPublic}, nil
}

func (m *mockReportStorage) Membership(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error) {
	if m.membershipFunc != nil {
		return m.membershipFunc(communityId, userId)
	}
	return domain.Member{}, &internal_errors.ErrorWithStatusCode{Message: "Keine Mitgliedschaft", StatusCode: 404}
}

func (m *mockReportStorage) ActiveBan(communityId domain.CommunityId, userId domain.UserId) (domain.Ban, bool, error) {
	return domain.Ban{}, false, nil
}

func (m *mockReportStorage) PostById(id domain.PostId) (domain.Post, error) {
	if m.postByIdFunc != nil {
		return m.postByIdFunc(id)
	}
	return domain.Post{Id: id, CommunityId: 1, AuthorId: 7}, nil
}

func (m *mockReportStorage) CreateReport(r domain.Report) (domain.ReportId, error) {
	if m.createReportFunc != nil {
		return m.createReportFunc(r)
	}
	return 1, nil
}

func (m *mockReportStorage) ReportById(id domain.ReportId) (domain.Report, error) {
	return domain.Report{Id: id, CommunityId: 1, Status: domain.ReportOpen}, nil
}

func (m *mockReportStorage) Reports(communityId domain.CommunityId, status string, page, limit int) ([]domain.Report, int, error) {
	return nil, 0, nil
}

func (m *mockReportStorage) SetReportStatus(id domain.ReportId, communityId domain.CommunityId, status string, moderatorId domain.UserId) error {
	if m.setReportStatusFunc != nil {
		return m.setReportStatusFunc(id, communityId, status, moderatorId)
	}
	return nil
}

func (m *mockReportStorage) DeleteReport(id domain.ReportId, communityId domain.CommunityId) error {
	m.deletedReports = append(m.deletedReports, id)
	return nil
}

func newReportService(storage *mockReportStorage) *Reports {
	return NewReports(storage, NewRoles(storage), ReportConfig{ModLogPerPage: 50, MaxReportLen: 500})
}

func TestReportPost(t *testing.T) {
	t.Run("markup is stripped from the reason", func(t *testing.T) {
		var got domain.Report
		storage := &mockReportStorage{
			createReportFunc: func(r domain.Report) (domain.ReportId, error) {
				got = r
				return 1, nil
			},
		}
		_, err := newReportService(storage).Report(3, "Beleidigung <b>fett</b>", nil, &domain.User{Id: 2})
		require.NoError(t, err)
		assert.Equal(t, "Beleidigung fett", got.Reason)
		require.NotNil(t, got.PostId)
		assert.Equal(t, domain.PostId(3), *got.PostId)
	})

	t.Run("reason above the configured cap is rejected", func(t *testing.T) {
		storage := &mockReportStorage{}
		_, err := newReportService(storage).Report(3, strings.Repeat("a", 501), nil, &domain.User{Id: 2})
		assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
	})

	t.Run("reason at the cap passes", func(t *testing.T) {
		storage := &mockReportStorage{
			createReportFunc: func(r domain.Report) (domain.ReportId, error) { return 1, nil },
		}
		_, err := newReportService(storage).Report(3, strings.Repeat("a", 500), nil, &domain.User{Id: 2})
		assert.NoError(t, err)
	})

	t.Run("deleted post cannot be reported", func(t *testing.T) {
		storage := &mockReportStorage{
			postByIdFunc: func(id domain.PostId) (domain.Post, error) {
				return domain.Post{Id: id, CommunityId: 1, IsDeleted: true}, nil
			},
		}
		_, err := newReportService(storage).Report(3, "weg damit", nil, &domain.User{Id: 2})
		assert.Equal(t, http.StatusNotFound, statusCode(t, err))
	})
}

func TestModerateReport(t *testing.T) {
	moderator := &domain.User{Id: 1}
	asModerator := func(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error) {
		return domain.Member{CommunityId: communityId, UserId: userId, Role: domain.RoleModerator}, nil
	}

	testCases := []struct {
		action     string
		wantStatus string
	}{
		{action: "review", wantStatus: domain.ReportInReview},
		{action: "resolve", wantStatus: domain.ReportResolved},
		{action: "reopen", wantStatus: domain.ReportOpen},
	}
	for _, tc := range testCases {
		t.Run(tc.action, func(t *testing.T) {
			var got string
			storage := &mockReportStorage{
				membershipFunc: asModerator,
				setReportStatusFunc: func(id domain.ReportId, communityId domain.CommunityId, status string, moderatorId domain.UserId) error {
					got = status
					return nil
				},
			}
			status, err := newReportService(storage).Moderate("testkiez", 5, tc.action, moderator)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantStatus, got)
		})
	}

	t.Run("delete removes the report", func(t *testing.T) {
		storage := &mockReportStorage{membershipFunc: asModerator}
		status, err := newReportService(storage).Moderate("testkiez", 5, "delete", moderator)
		require.NoError(t, err)
		assert.Empty(t, status)
		assert.Equal(t, []domain.ReportId{5}, storage.deletedReports)
	})

	t.Run("unknown action", func(t *testing.T) {
		storage := &mockReportStorage{membershipFunc: asModerator}
		_, err := newReportService(storage).Moderate("testkiez", 5, "eskalieren", moderator)
		assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
	})

	t.Run("non-moderator", func(t *testing.T) {
		storage := &mockReportStorage{}
		_, err := newReportService(storage).Moderate("testkiez", 5, "resolve", &domain.User{Id: 2})
		assert.Equal(t, http.StatusForbidden, statusCode(t, err))
	})
}
