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

// BanUser upserts the ban, drops the membership if present, recounts and logs,
// all in one transaction. Re-banning an already banned user overwrites the
// previous ban with the new status and expiry.
func (s *Storage) BanUser(ban domain.Ban) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO community_bans (community_id, user_id, banned_by, reason, status, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (community_id, user_id) DO UPDATE SET
				banned_by = EXCLUDED.banned_by,
				reason = EXCLUDED.reason,
				status = EXCLUDED.status,
				expires_at = EXCLUDED.expires_at,
				created_at = now()`,
			ban.CommunityId, ban.UserId, ban.BannedBy, ban.Reason, ban.Status, ban.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to upsert ban: %w", err)
		}

		// banned users lose their membership
		_, err = tx.Exec(`
			DELETE FROM community_members
			WHERE community_id = $1 AND user_id = $2 AND role <> 'OWNER'`,
			ban.CommunityId, ban.UserId)
		if err != nil {
			return fmt.Errorf("failed to remove banned member: %w", err)
		}
		if err := recountMembers(tx, ban.CommunityId); err != nil {
			return err
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId:  ban.CommunityId,
			ModeratorId:  ban.BannedBy,
			Action:       domain.ActionBanUser,
			TargetUserId: &ban.UserId,
			Reason:       ban.Reason,
			Metadata:     fmt.Sprintf(`{"status":%q}`, ban.Status),
		})
	})
}

func (s *Storage) UnbanUser(communityId domain.CommunityId, userId domain.UserId, moderatorId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"DELETE FROM community_bans WHERE community_id = $1 AND user_id = $2",
			communityId, userId)
		if err != nil {
			return fmt.Errorf("failed to delete ban: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "Sperre nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId:  communityId,
			ModeratorId:  moderatorId,
			Action:       domain.ActionUnbanUser,
			TargetUserId: &userId,
		})
	})
}

// ActiveBan returns the current ban for a user, lazily dropping temporary bans
// that have expired. sql.ErrNoRows-style absence is reported via the boolean.
func (s *Storage) ActiveBan(communityId domain.CommunityId, userId domain.UserId) (domain.Ban, bool, error) {
	var ban domain.Ban
	err := s.db.QueryRow(`
		SELECT community_id, user_id, banned_by, reason, status, expires_at, created_at
		FROM community_bans
		WHERE community_id = $1 AND user_id = $2`,
		communityId, userId,
	).Scan(&ban.CommunityId, &ban.UserId, &ban.BannedBy, &ban.Reason, &ban.Status, &ban.ExpiresAt, &ban.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ban{}, false, nil
		}
		return domain.Ban{}, false, fmt.Errorf("failed to fetch ban: %w", err)
	}

	if ban.Status == domain.BanTemporary && ban.ExpiresAt != nil && ban.ExpiresAt.Before(time.Now()) {
		_, err := s.db.Exec(
			"DELETE FROM community_bans WHERE community_id = $1 AND user_id = $2 AND expires_at <= now()",
			communityId, userId)
		if err != nil {
			return domain.Ban{}, false, fmt.Errorf("failed to expire ban: %w", err)
		}
		return domain.Ban{}, false, nil
	}
	return ban, true, nil
}

func (s *Storage) Bans(communityId domain.CommunityId, page, limit int) ([]domain.Ban, int, error) {
	var total int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM community_bans WHERE community_id = $1",
		communityId).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bans: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT b.community_id, b.user_id, b.banned_by, b.reason, b.status, b.expires_at, b.created_at,
		       u.email, u.display_name
		FROM community_bans b
		JOIN users u ON u.id = b.user_id
		WHERE b.community_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`,
		communityId, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bans: %w", err)
	}
	defer rows.Close()

	var bans []domain.Ban
	for rows.Next() {
		var b domain.Ban
		err := rows.Scan(&b.CommunityId, &b.UserId, &b.BannedBy, &b.Reason, &b.Status, &b.ExpiresAt, &b.CreatedAt,
			&b.Email, &b.DisplayName)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ban: %w", err)
		}
		bans = append(bans, b)
	}
	return bans, total, rows.Err()
}
