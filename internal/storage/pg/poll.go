package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

// CastPollVote records a single vote. The primary key on (post_id, user_id)
// rejects a second vote regardless of race timing; the violation surfaces as
// the user-facing "already voted" error.
func (s *Storage) CastPollVote(postId domain.PostId, optionId domain.OptionId, userId domain.UserId) ([]domain.PollOption, error) {
	ctx, cancel := s.txContext()
	defer cancel()

	var options []domain.PollOption
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var belongs bool
		err := tx.QueryRow(
			"SELECT EXISTS(SELECT 1 FROM poll_options WHERE id = $1 AND post_id = $2)",
			optionId, postId).Scan(&belongs)
		if err != nil {
			return fmt.Errorf("failed to check poll option: %w", err)
		}
		if !belongs {
			return &internal_errors.ErrorWithStatusCode{Message: "Ungültige Antwortoption", StatusCode: http.StatusBadRequest}
		}

		_, err = tx.Exec(
			"INSERT INTO poll_votes (post_id, option_id, user_id) VALUES ($1, $2, $3)",
			postId, optionId, userId)
		if err != nil {
			if isUniqueViolation(err, "") {
				return &internal_errors.ErrorWithStatusCode{Message: "Du hast bereits abgestimmt", StatusCode: http.StatusBadRequest}
			}
			return fmt.Errorf("failed to insert poll vote: %w", err)
		}

		_, err = tx.Exec(
			"UPDATE poll_options SET vote_count = vote_count + 1 WHERE id = $1",
			optionId)
		if err != nil {
			return fmt.Errorf("failed to bump vote count: %w", err)
		}

		options, err = s.pollOptions(tx, postId)
		return err
	})
	return options, err
}

func (s *Storage) PollResults(postId domain.PostId) ([]domain.PollOption, error) {
	return s.pollOptions(s.db, postId)
}

func (s *Storage) pollOptions(q Querier, postId domain.PostId) ([]domain.PollOption, error) {
	rows, err := q.Query(`
		SELECT id, post_id, label, sort_order, vote_count
		FROM poll_options
		WHERE post_id = $1
		ORDER BY sort_order, id`,
		postId)
	if err != nil {
		return nil, fmt.Errorf("failed to list poll options: %w", err)
	}
	defer rows.Close()

	var options []domain.PollOption
	for rows.Next() {
		var o domain.PollOption
		if err := rows.Scan(&o.Id, &o.PostId, &o.Label, &o.SortOrder, &o.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan poll option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// CastPostVote sets, flips or clears an up/down vote and keeps the post score
// and the author's karma in sync. It returns the new score. Self-votes count
// toward the score but never toward karma; the service enforces that by
// passing adjustAuthor=false.
func (s *Storage) CastPostVote(postId domain.PostId, userId, authorId domain.UserId, value int, adjustAuthor bool) (int, error) {
	ctx, cancel := s.txContext()
	defer cancel()

	var score int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var previous int
		err := tx.QueryRow(
			"SELECT value FROM post_votes WHERE post_id = $1 AND user_id = $2 FOR UPDATE",
			postId, userId).Scan(&previous)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to fetch previous vote: %w", err)
		}

		delta := value - previous
		if delta == 0 {
			return tx.QueryRow("SELECT score FROM community_posts WHERE id = $1", postId).Scan(&score)
		}

		if value == 0 {
			_, err = tx.Exec("DELETE FROM post_votes WHERE post_id = $1 AND user_id = $2", postId, userId)
		} else {
			_, err = tx.Exec(`
				INSERT INTO post_votes (post_id, user_id, value) VALUES ($1, $2, $3)
				ON CONFLICT (post_id, user_id) DO UPDATE SET value = EXCLUDED.value`,
				postId, userId, value)
		}
		if err != nil {
			return fmt.Errorf("failed to write vote: %w", err)
		}

		err = tx.QueryRow(
			"UPDATE community_posts SET score = score + $1 WHERE id = $2 RETURNING score",
			delta, postId).Scan(&score)
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
