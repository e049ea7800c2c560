package pg

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

// CreateRule appends a rule at the end of the list and logs the edit.
func (s *Storage) CreateRule(communityId domain.CommunityId, title, description string, moderatorId domain.UserId) (domain.Rule, error) {
	ctx, cancel := s.txContext()
	defer cancel()

	var rule domain.Rule
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
			INSERT INTO community_rules (community_id, title, description, sort_order)
			VALUES ($1, $2, $3, (
				SELECT COALESCE(MAX(sort_order), 0) + 1 FROM community_rules WHERE community_id = $1
			))
			RETURNING id, community_id, title, description, sort_order`,
			communityId, title, description,
		).Scan(&rule.Id, &rule.CommunityId, &rule.Title, &rule.Description, &rule.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to insert rule: %w", err)
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId: communityId,
			ModeratorId: moderatorId,
			Action:      domain.ActionEditRules,
			Metadata:    fmt.Sprintf(`{"op":"create","ruleId":%d}`, rule.Id),
		})
	})
	return rule, err
}

func (s *Storage) UpdateRule(communityId domain.CommunityId, ruleId domain.RuleId, title, description string, moderatorId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE community_rules SET title = $1, description = $2
			WHERE id = $3 AND community_id = $4`,
			title, description, ruleId, communityId)
		if err != nil {
			return fmt.Errorf("failed to update rule: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "Regel nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId: communityId,
			ModeratorId: moderatorId,
			Action:      domain.ActionEditRules,
			Metadata:    fmt.Sprintf(`{"op":"update","ruleId":%d}`, ruleId),
		})
	})
}

func (s *Storage) DeleteRule(communityId domain.CommunityId, ruleId domain.RuleId, moderatorId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"DELETE FROM community_rules WHERE id = $1 AND community_id = $2",
			ruleId, communityId)
		if err != nil {
			return fmt.Errorf("failed to delete rule: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "Regel nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId: communityId,
			ModeratorId: moderatorId,
			Action:      domain.ActionEditRules,
			Metadata:    fmt.Sprintf(`{"op":"delete","ruleId":%d}`, ruleId),
		})
	})
}

func (s *Storage) Rules(communityId domain.CommunityId) ([]domain.Rule, error) {
	rows, err := s.db.Query(`
		SELECT id, community_id, title, description, sort_order
		FROM community_rules
		WHERE community_id = $1
		ORDER BY sort_order, id`,
		communityId)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.Rule
	for rows.Next() {
		var r domain.Rule
		if err := rows.Scan(&r.Id, &r.CommunityId, &r.Title, &r.Description, &r.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
