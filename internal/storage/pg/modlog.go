package pg

import (
	"fmt"

	"github.com/kiez-net/kiez/internal/domain"
)

// appendModLog writes an audit entry inside the caller's transaction so the
// log never diverges from the action it records.
func appendModLog(q Querier, e domain.ModLogEntry) error {
	_, err := q.Exec(`
		INSERT INTO community_mod_log (community_id, moderator_id, action, target_user_id, target_post_id, reason, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.CommunityId, e.ModeratorId, e.Action, e.TargetUserId, e.TargetPostId, e.Reason, e.Metadata)
	if err != nil {
		return fmt.Errorf("failed to append mod log: %w", err)
	}
	return nil
}

// ModLog returns one page of the audit log, newest first, optionally filtered
// by action.
func (s *Storage) ModLog(communityId domain.CommunityId, action string, page, limit int) ([]domain.ModLogEntry, int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM community_mod_log
		WHERE community_id = $1 AND ($2 = '' OR action = $2)`,
		communityId, action).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count mod log: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, community_id, moderator_id, action, target_user_id, target_post_id, reason, metadata, created_at
		FROM community_mod_log
		WHERE community_id = $1 AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		communityId, action, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list mod log: %w", err)
	}
	defer rows.Close()

	var entries []domain.ModLogEntry
	for rows.Next() {
		var e domain.ModLogEntry
		err := rows.Scan(&e.Id, &e.CommunityId, &e.ModeratorId, &e.Action,
			&e.TargetUserId, &e.TargetPostId, &e.Reason, &e.Metadata, &e.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan mod log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
