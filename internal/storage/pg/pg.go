// Package pg implements the persistence gateway on PostgreSQL.
//
// All invariant-sensitive sequences (pin cap, one vote per poll, one open
// report per reporter and post) run inside a single transaction and lean on
// storage-level constraints, so concurrent requests degrade into constraint
// violations instead of corrupted state.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/kiez-net/kiez/internal/config"
	"github.com/kiez-net/kiez/internal/logger"
)

// Querier is satisfied by both *sql.DB and *sql.Tx. Internal methods are
// written against it so the same logic works inside and outside transactions.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

type Storage struct {
	db  *sql.DB
	cfg *config.Config
}

func New(cfg *config.Config) (*Storage, error) {
	logger.Log.Info("connecting to postgres", "host", cfg.Private.Pg.Host, "db", cfg.Private.Pg.Dbname)
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{db, cfg}, nil
}

func Connect(cfg *config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Private.Pg.Host, cfg.Private.Pg.Port,
		cfg.Private.Pg.User, cfg.Private.Pg.Password,
		cfg.Private.Pg.Dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable. Used by the readiness probe.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx executes fn inside a transaction. The deferred Rollback is a no-op
// once the transaction has been committed.
func (s *Storage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *Storage) txContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// isUniqueViolation reports whether err is a postgres unique violation on the
// given constraint (any constraint if name is empty).
func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
