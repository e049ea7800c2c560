package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

func (s *Storage) CreateFlair(f domain.Flair) (domain.Flair, error) {
	err := s.db.QueryRow(`
		INSERT INTO community_flairs (community_id, name, color, text_color)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		f.CommunityId, f.Name, f.Color, f.TextColor,
	).Scan(&f.Id)
	if err != nil {
		return domain.Flair{}, fmt.Errorf("failed to insert flair: %w", err)
	}
	return f, nil
}

func (s *Storage) FlairById(id domain.FlairId) (domain.Flair, error) {
	var f domain.Flair
	err := s.db.QueryRow(`
		SELECT id, community_id, name, color, text_color
		FROM community_flairs WHERE id = $1`,
		id,
	).Scan(&f.Id, &f.CommunityId, &f.Name, &f.Color, &f.TextColor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Flair{}, &internal_errors.ErrorWithStatusCode{Message: "Flair nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return domain.Flair{}, fmt.Errorf("failed to fetch flair: %w", err)
	}
	return f, nil
}

func (s *Storage) Flairs(communityId domain.CommunityId) ([]domain.Flair, error) {
	rows, err := s.db.Query(`
		SELECT id, community_id, name, color, text_color
		FROM community_flairs
		WHERE community_id = $1
		ORDER BY lower(name), id`,
		communityId)
	if err != nil {
		return nil, fmt.Errorf("failed to list flairs: %w", err)
	}
	defer rows.Close()

	var flairs []domain.Flair
	for rows.Next() {
		var f domain.Flair
		if err := rows.Scan(&f.Id, &f.CommunityId, &f.Name, &f.Color, &f.TextColor); err != nil {
			return nil, fmt.Errorf("failed to scan flair: %w", err)
		}
		flairs = append(flairs, f)
	}
	return flairs, rows.Err()
}

func (s *Storage) DeleteFlair(communityId domain.CommunityId, flairId domain.FlairId) error {
	res, err := s.db.Exec(
		"DELETE FROM community_flairs WHERE id = $1 AND community_id = $2",
		flairId, communityId)
	if err != nil {
		return fmt.Errorf("failed to delete flair: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Flair nicht gefunden", StatusCode: http.StatusNotFound}
	}
	return nil
}
