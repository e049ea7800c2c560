package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

const postColumns = `id, community_id, author_id, type, title, content, link_url, flair_id, is_pinned, is_locked, is_deleted, is_removed, score, comment_count, created_at, updated_at`

// CreatePost inserts the post, its poll options when it is a poll, and bumps
// the community post count, all in one transaction.
func (s *Storage) CreatePost(p domain.PostCreationData) (domain.PostId, error) {
	ctx, cancel := s.txContext()
	defer cancel()

	var id domain.PostId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
			INSERT INTO community_posts (community_id, author_id, type, title, content, link_url, flair_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			p.CommunityId, p.AuthorId, p.Type, p.Title, p.Content, p.LinkURL, p.FlairId,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}

		for i, label := range p.PollOptions {
			_, err := tx.Exec(`
				INSERT INTO poll_options (post_id, label, sort_order)
				VALUES ($1, $2, $3)`,
				id, label, i+1)
			if err != nil {
				return fmt.Errorf("failed to insert poll option: %w", err)
			}
		}

		_, err = tx.Exec(
			"UPDATE communities SET post_count = post_count + 1 WHERE id = $1",
			p.CommunityId)
		if err != nil {
			return fmt.Errorf("failed to bump post count: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *Storage) PostById(id domain.PostId) (domain.Post, error) {
	var p domain.Post
	err := s.db.QueryRow("SELECT "+postColumns+" FROM community_posts WHERE id = $1", id).Scan(
		&p.Id, &p.CommunityId, &p.AuthorId, &p.Type, &p.Title, &p.Content, &p.LinkURL, &p.FlairId,
		&p.IsPinned, &p.IsLocked, &p.IsDeleted, &p.IsRemoved, &p.Score, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, &internal_errors.ErrorWithStatusCode{Message: "Beitrag nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return domain.Post{}, fmt.Errorf("failed to fetch post: %w", err)
	}
	return p, nil
}

// PostDetail loads a post together with its poll tallies and the viewer's own
// vote, poll choice and saved flag. userId 0 means anonymous.
func (s *Storage) PostDetail(id domain.PostId, userId domain.UserId) (domain.PostDetail, error) {
	post, err := s.PostById(id)
	if err != nil {
		return domain.PostDetail{}, err
	}
	detail := domain.PostDetail{Post: post}

	if post.Type == domain.PostPoll {
		detail.PollOptions, err = s.pollOptions(s.db, id)
		if err != nil {
			return domain.PostDetail{}, err
		}
	}
	if userId == 0 {
		return detail, nil
	}

	var value int
	err = s.db.QueryRow(
		"SELECT value FROM post_votes WHERE post_id = $1 AND user_id = $2",
		id, userId).Scan(&value)
	switch {
	case err == nil && value > 0:
		detail.UserVote = domain.VoteUp
	case err == nil:
		detail.UserVote = domain.VoteDown
	case !errors.Is(err, sql.ErrNoRows):
		return domain.PostDetail{}, fmt.Errorf("failed to fetch user vote: %w", err)
	}

	var optionId domain.OptionId
	err = s.db.QueryRow(
		"SELECT option_id FROM poll_votes WHERE post_id = $1 AND user_id = $2",
		id, userId).Scan(&optionId)
	if err == nil {
		detail.UserPollVote = &optionId
	} else if !errors.Is(err, sql.ErrNoRows) {
		return domain.PostDetail{}, fmt.Errorf("failed to fetch poll vote: %w", err)
	}

	err = s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM saved_posts WHERE post_id = $1 AND user_id = $2)",
		id, userId).Scan(&detail.Saved)
	if err != nil {
		return domain.PostDetail{}, fmt.Errorf("failed to fetch saved flag: %w", err)
	}
	return detail, nil
}

// Posts returns one page of a community's feed: pinned posts first, then
// newest first. Author-deleted and moderator-removed posts are skipped.
// flairId 0 means no flair filter.
func (s *Storage) Posts(communityId domain.CommunityId, flairId domain.FlairId, page, limit int) ([]domain.Post, int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM community_posts
		WHERE community_id = $1 AND ($2 = 0 OR flair_id = $2) AND NOT is_deleted AND NOT is_removed`,
		communityId, flairId).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+postColumns+` FROM community_posts
		WHERE community_id = $1 AND ($2 = 0 OR flair_id = $2) AND NOT is_deleted AND NOT is_removed
		ORDER BY is_pinned DESC, created_at DESC
		LIMIT $3 OFFSET $4`,
		communityId, flairId, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		err := rows.Scan(&p.Id, &p.CommunityId, &p.AuthorId, &p.Type, &p.Title, &p.Content, &p.LinkURL, &p.FlairId,
			&p.IsPinned, &p.IsLocked, &p.IsDeleted, &p.IsRemoved, &p.Score, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

// SavedPosts returns the viewer's saved posts, newest saved first.
func (s *Storage) SavedPosts(userId domain.UserId, page, limit int) ([]domain.Post, int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM saved_posts sp
		JOIN community_posts p ON p.id = sp.post_id
		WHERE sp.user_id = $1 AND NOT p.is_deleted AND NOT p.is_removed`,
		userId).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count saved posts: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT p.id, p.community_id, p.author_id, p.type, p.title, p.content, p.link_url, p.flair_id,
		       p.is_pinned, p.is_locked, p.is_deleted, p.is_removed, p.score, p.comment_count, p.created_at, p.updated_at
		FROM saved_posts sp
		JOIN community_posts p ON p.id = sp.post_id
		WHERE sp.user_id = $1 AND NOT p.is_deleted AND NOT p.is_removed
		ORDER BY sp.created_at DESC
		LIMIT $2 OFFSET $3`,
		userId, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list saved posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		err := rows.Scan(&p.Id, &p.CommunityId, &p.AuthorId, &p.Type, &p.Title, &p.Content, &p.LinkURL, &p.FlairId,
			&p.IsPinned, &p.IsLocked, &p.IsDeleted, &p.IsRemoved, &p.Score, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan saved post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

// EditPost applies the non-nil fields. A flair of 0 clears the flair, nil
// leaves it untouched.
func (s *Storage) EditPost(id domain.PostId, title, content *string, flair *domain.FlairId) error {
	res, err := s.db.Exec(`
		UPDATE community_posts SET
			title = COALESCE($1, title),
			content = COALESCE($2, content),
			flair_id = CASE WHEN $3::bigint IS NULL THEN flair_id ELSE NULLIF($3, 0) END,
			updated_at = now()
		WHERE id = $4 AND NOT is_deleted AND NOT is_removed`,
		title, content, flair, id)
	if err != nil {
		return fmt.Errorf("failed to edit post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Beitrag nicht gefunden", StatusCode: http.StatusNotFound}
	}
	return nil
}

// SoftDeletePost marks a post deleted by its author.
func (s *Storage) SoftDeletePost(id domain.PostId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return markPostGone(tx, id, "is_deleted")
	})
}

// RemovePost marks a post removed by a moderator and logs it.
func (s *Storage) RemovePost(id domain.PostId, communityId domain.CommunityId, moderatorId domain.UserId, reason string) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := markPostGone(tx, id, "is_removed"); err != nil {
			return err
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId:  communityId,
			ModeratorId:  moderatorId,
			Action:       domain.ActionRemovePost,
			TargetPostId: &id,
			Reason:       reason,
		})
	})
}

func markPostGone(tx *sql.Tx, id domain.PostId, column string) error {
	// column is one of two hardcoded call sites, never user input
	res, err := tx.Exec(fmt.Sprintf(`
		UPDATE community_posts
		SET %s = TRUE, is_pinned = FALSE, updated_at = now()
		WHERE id = $1 AND NOT is_deleted AND NOT is_removed`, column), id)
	if err != nil {
		return fmt.Errorf("failed to mark post %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Beitrag nicht gefunden", StatusCode: http.StatusNotFound}
	}
	return nil
}

// SetPinned pins or unpins a post. Pinning takes a row lock on the community
// so two concurrent pins cannot both slip under the cap.
func (s *Storage) SetPinned(id domain.PostId, communityId domain.CommunityId, pinned bool, moderatorId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if pinned {
			var dummy domain.CommunityId
			err := tx.QueryRow("SELECT id FROM communities WHERE id = $1 FOR UPDATE", communityId).Scan(&dummy)
			if err != nil {
				return fmt.Errorf("failed to lock community: %w", err)
			}

			var pinnedCount int
			err = tx.QueryRow(`
				SELECT COUNT(*) FROM community_posts
				WHERE community_id = $1 AND is_pinned AND id <> $2`,
				communityId, id).Scan(&pinnedCount)
			if err != nil {
				return fmt.Errorf("failed to count pinned posts: %w", err)
			}
			if pinnedCount >= s.cfg.Public.MaxPinnedPosts {
				return &internal_errors.ErrorWithStatusCode{
					Message:    fmt.Sprintf("Maximal %d Beiträge können angeheftet werden", s.cfg.Public.MaxPinnedPosts),
					StatusCode: http.StatusBadRequest,
				}
			}
		}

		res, err := tx.Exec(`
			UPDATE community_posts SET is_pinned = $1
			WHERE id = $2 AND community_id = $3 AND NOT is_deleted AND NOT is_removed`,
			pinned, id, communityId)
		if err != nil {
			return fmt.Errorf("failed to set pinned: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "Beitrag nicht gefunden", StatusCode: http.StatusNotFound}
		}

		action := domain.ActionPinPost
		if !pinned {
			action = domain.ActionUnpinPost
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId:  communityId,
			ModeratorId:  moderatorId,
			Action:       action,
			TargetPostId: &id,
		})
	})
}

// SetLocked locks or unlocks a post and logs it.
func (s *Storage) SetLocked(id domain.PostId, communityId domain.CommunityId, locked bool, moderatorId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE community_posts SET is_locked = $1
			WHERE id = $2 AND community_id = $3 AND NOT is_deleted AND NOT is_removed`,
			locked, id, communityId)
		if err != nil {
			return fmt.Errorf("failed to set locked: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "Beitrag nicht gefunden", StatusCode: http.StatusNotFound}
		}

		action := domain.ActionLockPost
		if !locked {
			action = domain.ActionUnlockPost
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId:  communityId,
			ModeratorId:  moderatorId,
			Action:       action,
			TargetPostId: &id,
		})
	})
}

// ToggleSaved flips the saved flag and returns the new state.
func (s *Storage) ToggleSaved(id domain.PostId, userId domain.UserId) (bool, error) {
	res, err := s.db.Exec(
		"DELETE FROM saved_posts WHERE post_id = $1 AND user_id = $2",
		id, userId)
	if err != nil {
		return false, fmt.Errorf("failed to unsave post: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	_, err = s.db.Exec(
		"INSERT INTO saved_posts (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		id, userId)
	if err != nil {
		return false, fmt.Errorf("failed to save post: %w", err)
	}
	return true, nil
}
