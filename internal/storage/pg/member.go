package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

// Membership returns the caller's member row, or a 404-flavored error when no
// membership exists. Callers that only care about the role should go through
// the service layer's role resolver.
func (s *Storage) Membership(communityId domain.CommunityId, userId domain.UserId) (domain.Member, error) {
	var m domain.Member
	err := s.db.QueryRow(`
		SELECT community_id, user_id, role, joined_at
		FROM community_members
		WHERE community_id = $1 AND user_id = $2`,
		communityId, userId,
	).Scan(&m.CommunityId, &m.UserId, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Member{}, &internal_errors.ErrorWithStatusCode{Message: "Keine Mitgliedschaft", StatusCode: http.StatusNotFound}
		}
		return domain.Member{}, fmt.Errorf("failed to fetch membership: %w", err)
	}
	return m, nil
}

// AddMember joins a user as MEMBER. Joining twice is a no-op, so the call is
// safe to retry.
func (s *Storage) AddMember(communityId domain.CommunityId, userId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO community_members (community_id, user_id, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (community_id, user_id) DO NOTHING`,
			communityId, userId, domain.RoleMember)
		if err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return recountMembers(tx, communityId)
	})
}

func (s *Storage) RemoveMembership(communityId domain.CommunityId, userId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteMembership(tx, communityId, userId); err != nil {
			return err
		}
		return recountMembers(tx, communityId)
	})
}

// Members returns one page of members, moderators first, with display data
// joined in from users.
func (s *Storage) Members(communityId domain.CommunityId, page, limit int) ([]domain.Member, int, error) {
	var total int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM community_members WHERE community_id = $1",
		communityId).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count members: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT m.community_id, m.user_id, m.role, m.joined_at, u.email, u.display_name, u.karma
		FROM community_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.community_id = $1
		ORDER BY
			CASE m.role WHEN 'OWNER' THEN 0 WHEN 'MODERATOR' THEN 1 ELSE 2 END,
			m.joined_at
		LIMIT $2 OFFSET $3`,
		communityId, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.CommunityId, &m.UserId, &m.Role, &m.JoinedAt, &m.Email, &m.DisplayName, &m.Karma); err != nil {
			return nil, 0, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, total, rows.Err()
}

// Moderators returns all OWNER and MODERATOR members of a community.
func (s *Storage) Moderators(communityId domain.CommunityId) ([]domain.Member, error) {
	rows, err := s.db.Query(`
		SELECT m.community_id, m.user_id, m.role, m.joined_at, u.email, u.display_name, u.karma
		FROM community_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.community_id = $1 AND m.role IN ('OWNER', 'MODERATOR')
		ORDER BY CASE m.role WHEN 'OWNER' THEN 0 ELSE 1 END, m.joined_at`,
		communityId)
	if err != nil {
		return nil, fmt.Errorf("failed to list moderators: %w", err)
	}
	defer rows.Close()

	var mods []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.CommunityId, &m.UserId, &m.Role, &m.JoinedAt, &m.Email, &m.DisplayName, &m.Karma); err != nil {
			return nil, fmt.Errorf("failed to scan moderator: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// ChangeRole flips a member between MODERATOR and MEMBER and logs the change.
// The OWNER role is never assigned this way; ownership transfer is a manual
// operation.
func (s *Storage) ChangeRole(communityId domain.CommunityId, userId domain.UserId, role string, moderatorId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE community_members SET role = $1
			WHERE community_id = $2 AND user_id = $3 AND role <> 'OWNER'`,
			role, communityId, userId)
		if err != nil {
			return fmt.Errorf("failed to change role: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "Mitglied nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId:  communityId,
			ModeratorId:  moderatorId,
			Action:       domain.ActionChangeRole,
			TargetUserId: &userId,
			Metadata:     fmt.Sprintf(`{"newRole":%q}`, role),
		})
	})
}

// RemoveMember kicks a non-owner member and logs the removal.
func (s *Storage) RemoveMember(communityId domain.CommunityId, userId domain.UserId, moderatorId domain.UserId, reason string) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteMembership(tx, communityId, userId); err != nil {
			return err
		}
		if err := recountMembers(tx, communityId); err != nil {
			return err
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId:  communityId,
			ModeratorId:  moderatorId,
			Action:       domain.ActionRemoveMember,
			TargetUserId: &userId,
			Reason:       reason,
		})
	})
}

func deleteMembership(tx *sql.Tx, communityId domain.CommunityId, userId domain.UserId) error {
	res, err := tx.Exec(`
		DELETE FROM community_members
		WHERE community_id = $1 AND user_id = $2 AND role <> 'OWNER'`,
		communityId, userId)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Mitglied nicht gefunden", StatusCode: http.StatusNotFound}
	}
	return nil
}

// recountMembers recomputes the denormalized member count from the source of
// truth inside the current transaction.
func recountMembers(q Querier, communityId domain.CommunityId) error {
	_, err := q.Exec(`
		UPDATE communities SET member_count = (
			SELECT COUNT(*) FROM community_members WHERE community_id = $1
		) WHERE id = $1`, communityId)
	if err != nil {
		return fmt.Errorf("failed to recount members: %w", err)
	}
	return nil
}
