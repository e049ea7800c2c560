package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

const commentColumns = `c.id, c.post_id, c.parent_id, c.author_id, c.content, c.is_deleted, c.is_removed, c.score, c.created_at, c.updated_at`

// ORDER BY cannot be parameterized, so sort keys go through a whitelist.
var commentOrder = map[string]string{
	domain.CommentSortBest:          "c.score DESC, c.created_at ASC",
	domain.CommentSortNew:           "c.created_at DESC",
	domain.CommentSortOld:           "c.created_at ASC",
	domain.CommentSortControversial: "c.score ASC, c.created_at ASC",
}

// CreateComment inserts the comment with the author's own upvote already
// applied and bumps the post's comment count, all in one transaction. A
// parent from another post is rejected.
func (s *Storage) CreateComment(c domain.CommentCreationData) (domain.Comment, error) {
	ctx, cancel := s.txContext()
	defer cancel()

	var comment domain.Comment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if c.ParentId != nil {
			var ok bool
			err := tx.QueryRow(`
				SELECT EXISTS(
					SELECT 1 FROM post_comments
					WHERE id = $1 AND post_id = $2 AND NOT is_deleted AND NOT is_removed
				)`,
				*c.ParentId, c.PostId).Scan(&ok)
			if err != nil {
				return fmt.Errorf("failed to check parent comment: %w", err)
			}
			if !ok {
				return &internal_errors.ErrorWithStatusCode{Message: "Ungültiger Parent-Kommentar", StatusCode: http.StatusBadRequest}
			}
		}

		err := tx.QueryRow(`
			INSERT INTO post_comments (post_id, parent_id, author_id, content, score)
			VALUES ($1, $2, $3, $4, 1)
			RETURNING id, post_id, parent_id, author_id, content, is_deleted, is_removed, score, created_at, updated_at`,
			c.PostId, c.ParentId, c.AuthorId, c.Content,
		).Scan(&comment.Id, &comment.PostId, &comment.ParentId, &comment.AuthorId, &comment.Content,
			&comment.IsDeleted, &comment.IsRemoved, &comment.Score, &comment.CreatedAt, &comment.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		_, err = tx.Exec(
			"INSERT INTO comment_votes (comment_id, user_id, value) VALUES ($1, $2, 1)",
			comment.Id, c.AuthorId)
		if err != nil {
			return fmt.Errorf("failed to insert author vote: %w", err)
		}

		_, err = tx.Exec(
			"UPDATE community_posts SET comment_count = comment_count + 1 WHERE id = $1",
			c.PostId)
		if err != nil {
			return fmt.Errorf("failed to bump comment count: %w", err)
		}

		err = tx.QueryRow("SELECT display_name FROM users WHERE id = $1", c.AuthorId).Scan(&comment.AuthorName)
		if err != nil {
			return fmt.Errorf("failed to fetch author name: %w", err)
		}
		comment.UserVote = domain.VoteUp
		return nil
	})
	return comment, err
}

func (s *Storage) CommentById(id domain.CommentId) (domain.Comment, error) {
	var c domain.Comment
	err := s.db.QueryRow(`
		SELECT `+commentColumns+` FROM post_comments c WHERE c.id = $1`,
		id,
	).Scan(&c.Id, &c.PostId, &c.ParentId, &c.AuthorId, &c.Content,
		&c.IsDeleted, &c.IsRemoved, &c.Score, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Comment{}, &internal_errors.ErrorWithStatusCode{Message: "Kommentar nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return domain.Comment{}, fmt.Errorf("failed to fetch comment: %w", err)
	}
	return c, nil
}

// Comments returns all of a post's comments as a flat, sorted list; the
// service assembles the tree. The viewer's own votes come along in the same
// query. userId 0 means anonymous.
func (s *Storage) Comments(postId domain.PostId, sort string, userId domain.UserId) ([]domain.Comment, error) {
	order, ok := commentOrder[sort]
	if !ok {
		order = commentOrder[domain.CommentSortBest]
	}

	rows, err := s.db.Query(`
		SELECT `+commentColumns+`, u.display_name, COALESCE(v.value, 0)
		FROM post_comments c
		JOIN users u ON u.id = c.author_id
		LEFT JOIN comment_votes v ON v.comment_id = c.id AND v.user_id = $2
		WHERE c.post_id = $1
		ORDER BY `+order,
		postId, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		var vote int
		err := rows.Scan(&c.Id, &c.PostId, &c.ParentId, &c.AuthorId, &c.Content,
			&c.IsDeleted, &c.IsRemoved, &c.Score, &c.CreatedAt, &c.UpdatedAt,
			&c.AuthorName, &vote)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		switch {
		case vote > 0:
			c.UserVote = domain.VoteUp
		case vote < 0:
			c.UserVote = domain.VoteDown
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Storage) EditComment(id domain.CommentId, content string) error {
	res, err := s.db.Exec(`
		UPDATE post_comments SET content = $1, updated_at = now()
		WHERE id = $2 AND NOT is_deleted AND NOT is_removed`,
		content, id)
	if err != nil {
		return fmt.Errorf("failed to edit comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Kommentar nicht gefunden", StatusCode: http.StatusNotFound}
	}
	return nil
}

// SoftDeleteComment marks a comment deleted by its author.
func (s *Storage) SoftDeleteComment(id domain.CommentId, postId domain.PostId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return markCommentGone(tx, id, postId, "is_deleted")
	})
}

// RemoveComment marks a comment removed by a moderator and logs it.
func (s *Storage) RemoveComment(id domain.CommentId, postId domain.PostId, communityId domain.CommunityId, authorId, moderatorId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := markCommentGone(tx, id, postId, "is_removed"); err != nil {
			return err
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId:  communityId,
			ModeratorId:  moderatorId,
			Action:       domain.ActionRemoveComment,
			TargetUserId: &authorId,
			TargetPostId: &postId,
			Metadata:     fmt.Sprintf(`{"commentId":%d}`, id),
		})
	})
}

func markCommentGone(tx *sql.Tx, id domain.CommentId, postId domain.PostId, column string) error {
	// column is one of two hardcoded call sites, never user input
	res, err := tx.Exec(fmt.Sprintf(`
		UPDATE post_comments
		SET %s = TRUE, updated_at = now()
		WHERE id = $1 AND NOT is_deleted AND NOT is_removed`, column), id)
	if err != nil {
		return fmt.Errorf("failed to mark comment %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Kommentar nicht gefunden", StatusCode: http.StatusNotFound}
	}

	_, err = tx.Exec(
		"UPDATE community_posts SET comment_count = comment_count - 1 WHERE id = $1 AND comment_count > 0",
		postId)
	if err != nil {
		return fmt.Errorf("failed to drop comment count: %w", err)
	}
	return nil
}

// CastCommentVote sets, flips or clears an up/down vote on a comment and
// keeps the comment score and the author's karma in sync. It returns the new
// score. Self-votes never touch karma; the service passes adjustAuthor=false.
func (s *Storage) CastCommentVote(commentId domain.CommentId, userId, authorId domain.UserId, value int, adjustAuthor bool) (int, error) {
	ctx, cancel := s.txContext()
	defer cancel()

	var score int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var previous int
		err := tx.QueryRow(
			"SELECT value FROM comment_votes WHERE comment_id = $1 AND user_id = $2 FOR UPDATE",
			commentId, userId).Scan(&previous)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to fetch previous vote: %w", err)
		}

		delta := value - previous
		if delta == 0 {
			return tx.QueryRow("SELECT score FROM post_comments WHERE id = $1", commentId).Scan(&score)
		}

		if value == 0 {
			_, err = tx.Exec("DELETE FROM comment_votes WHERE comment_id = $1 AND user_id = $2", commentId, userId)
		} else {
			_, err = tx.Exec(`
				INSERT INTO comment_votes (comment_id, user_id, value) VALUES ($1, $2, $3)
				ON CONFLICT (comment_id, user_id) DO UPDATE SET value = EXCLUDED.value`,
				commentId, userId, value)
		}
		if err != nil {
			return fmt.Errorf("failed to write vote: %w", err)
		}

		err = tx.QueryRow(
			"UPDATE post_comments SET score = score + $1 WHERE id = $2 RETURNING score",
			delta, commentId).Scan(&score)
		if err != nil {
			return fmt.Errorf("failed to update score: %w", err)
		}

		if adjustAuthor {
			return adjustKarma(tx, authorId, delta)
		}
		return nil
	})
	return score, err
}
