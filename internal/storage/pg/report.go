package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

const reportColumns = `id, community_id, reporter_id, post_id, rule_id, reason, status, resolved_by, resolved_at, created_at`

// CreateReport files a report. The partial unique index on open reports keeps
// a reporter from stacking duplicates on the same post; a fresh report after a
// resolution is allowed.
func (s *Storage) CreateReport(r domain.Report) (domain.ReportId, error) {
	var id domain.ReportId
	err := s.db.QueryRow(`
		INSERT INTO community_reports (community_id, reporter_id, post_id, rule_id, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		r.CommunityId, r.ReporterId, r.PostId, r.RuleId, r.Reason,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "community_reports_open_once") {
			return 0, &internal_errors.ErrorWithStatusCode{Message: "Du hast diesen Beitrag bereits gemeldet", StatusCode: http.StatusBadRequest}
		}
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}
	return id, nil
}

func (s *Storage) ReportById(id domain.ReportId) (domain.Report, error) {
	var r domain.Report
	err := s.db.QueryRow("SELECT "+reportColumns+" FROM community_reports WHERE id = $1", id).Scan(
		&r.Id, &r.CommunityId, &r.ReporterId, &r.PostId, &r.RuleId, &r.Reason, &r.Status,
		&r.ResolvedBy, &r.ResolvedAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Report{}, &internal_errors.ErrorWithStatusCode{Message: "Meldung nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return domain.Report{}, fmt.Errorf("failed to fetch report: %w", err)
	}
	return r, nil
}

// Reports lists a community's reports newest first, optionally filtered by
// status.
func (s *Storage) Reports(communityId domain.CommunityId, status string, page, limit int) ([]domain.Report, int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM community_reports
		WHERE community_id = $1 AND ($2 = '' OR status = $2)`,
		communityId, status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+reportColumns+` FROM community_reports
		WHERE community_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		communityId, status, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var r domain.Report
		err := rows.Scan(&r.Id, &r.CommunityId, &r.ReporterId, &r.PostId, &r.RuleId, &r.Reason, &r.Status,
			&r.ResolvedBy, &r.ResolvedAt, &r.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, total, rows.Err()
}

// SetReportStatus moves a report through its lifecycle. Resolving stamps the
// resolver and time and writes a mod log entry; reopening clears them.
func (s *Storage) SetReportStatus(id domain.ReportId, communityId domain.CommunityId, status string, moderatorId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var resolvedBy *domain.UserId
		var resolvedAt *time.Time
		if status == domain.ReportResolved {
			now := time.Now()
			resolvedBy, resolvedAt = &moderatorId, &now
		}

		res, err := tx.Exec(`
			UPDATE community_reports SET status = $1, resolved_by = $2, resolved_at = $3
			WHERE id = $4 AND community_id = $5`,
			status, resolvedBy, resolvedAt, id, communityId)
		if err != nil {
			return fmt.Errorf("failed to update report status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "Meldung nicht gefunden", StatusCode: http.StatusNotFound}
		}

		if status != domain.ReportResolved {
			return nil
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId: communityId,
			ModeratorId: moderatorId,
			Action:      domain.ActionResolveReport,
			Metadata:    fmt.Sprintf(`{"reportId":%d}`, id),
		})
	})
}

func (s *Storage) DeleteReport(id domain.ReportId, communityId domain.CommunityId) error {
	res, err := s.db.Exec(
		"DELETE FROM community_reports WHERE id = $1 AND community_id = $2",
		id, communityId)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Meldung nicht gefunden", StatusCode: http.StatusNotFound}
	}
	return nil
}
