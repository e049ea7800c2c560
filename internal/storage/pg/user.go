package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

// SaveUser creates a new account and returns its id. A duplicate email maps
// to a 409 so the handler can surface it without leaking internals.
func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := s.db.QueryRow(`
		INSERT INTO users (email, display_name, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		user.Email, user.DisplayName, user.PassHash, user.Admin,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "") {
			return 0, &internal_errors.ErrorWithStatusCode{Message: "E-Mail ist bereits registriert", StatusCode: http.StatusConflict}
		}
		return 0, fmt.Errorf("failed to save user: %w", err)
	}
	return id, nil
}

func (s *Storage) UserByEmail(email domain.Email) (domain.User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT id, email, display_name, password_hash, is_admin, karma, created_at
		FROM users WHERE email = $1`, email))
}

func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT id, email, display_name, password_hash, is_admin, karma, created_at
		FROM users WHERE id = $1`, id))
}

func (s *Storage) scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.Id, &u.Email, &u.DisplayName, &u.PassHash, &u.Admin, &u.Karma, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "Benutzer nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// adjustKarma shifts a user's karma inside an ongoing transaction.
func adjustKarma(q Querier, userId domain.UserId, delta int) error {
	_, err := q.Exec("UPDATE users SET karma = karma + $1 WHERE id = $2", delta, userId)
	if err != nil {
		return fmt.Errorf("failed to adjust karma: %w", err)
	}
	return nil
}
