package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kiez-net/kiez/internal/domain"
	internal_errors "github.com/kiez-net/kiez/internal/errors"
)

const communityColumns = `id, slug, name, description, sidebar, type, is_nsfw, is_archived, creator_id, member_count, post_count, created_at`

// CreateCommunity inserts the community and its owner membership atomically.
// The creator starts as OWNER and the member count starts at 1.
func (s *Storage) CreateCommunity(c domain.CommunityCreationData, slug domain.CommunitySlug) (domain.CommunityId, error) {
	ctx, cancel := s.txContext()
	defer cancel()

	var id domain.CommunityId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
			INSERT INTO communities (slug, name, description, type, is_nsfw, creator_id, member_count)
			VALUES ($1, $2, $3, $4, $5, $6, 1)
			RETURNING id`,
			slug, c.Name, c.Description, c.Type, c.IsNSFW, c.CreatorId,
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err, "communities_slug_key") {
				return &internal_errors.ErrorWithStatusCode{Message: "Eine Community mit diesem Namen existiert bereits", StatusCode: http.StatusConflict}
			}
			return fmt.Errorf("failed to insert community: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO community_members (community_id, user_id, role)
			VALUES ($1, $2, $3)`,
			id, c.CreatorId, domain.RoleOwner)
		if err != nil {
			return fmt.Errorf("failed to insert owner membership: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *Storage) CommunityBySlug(slug domain.CommunitySlug) (domain.Community, error) {
	return scanCommunity(s.db.QueryRow(
		"SELECT "+communityColumns+" FROM communities WHERE slug = $1", slug))
}

func (s *Storage) CommunityById(id domain.CommunityId) (domain.Community, error) {
	return scanCommunity(s.db.QueryRow(
		"SELECT "+communityColumns+" FROM communities WHERE id = $1", id))
}

// ORDER BY cannot be parameterized, so sort keys go through a whitelist.
var communityOrder = map[string]string{
	"popular": "member_count DESC, created_at DESC",
	"new":     "created_at DESC",
	"name":    "lower(name) ASC",
}

// Communities returns one page of non-archived communities plus the total for
// pagination. An empty search matches everything, an empty communityType
// matches all types, an unknown sort falls back to popular.
func (s *Storage) Communities(search, sort, communityType string, page, limit int) ([]domain.Community, int, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
	order, ok := communityOrder[sort]
	if !ok {
		order = communityOrder["popular"]
	}

	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM communities
		WHERE NOT is_archived AND (lower(name) LIKE $1 OR slug LIKE $1)
			AND ($2 = '' OR type = $2)`,
		pattern, communityType).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count communities: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+communityColumns+` FROM communities
		WHERE NOT is_archived AND (lower(name) LIKE $1 OR slug LIKE $1)
			AND ($2 = '' OR type = $2)
		ORDER BY `+order+`
		LIMIT $3 OFFSET $4`,
		pattern, communityType, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list communities: %w", err)
	}
	defer rows.Close()

	var communities []domain.Community
	for rows.Next() {
		c, err := scanCommunityRows(rows)
		if err != nil {
			return nil, 0, err
		}
		communities = append(communities, c)
	}
	return communities, total, rows.Err()
}

// UpdateCommunity applies the non-nil fields and appends an EDIT_SETTINGS log
// entry in the same transaction.
func (s *Storage) UpdateCommunity(id domain.CommunityId, upd domain.CommunityUpdate, moderatorId domain.UserId) error {
	ctx, cancel := s.txContext()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE communities SET
				name        = COALESCE($1, name),
				description = COALESCE($2, description),
				sidebar     = COALESCE($3, sidebar),
				type        = COALESCE($4, type),
				is_nsfw     = COALESCE($5, is_nsfw)
			WHERE id = $6 AND NOT is_archived`,
			upd.Name, upd.Description, upd.Sidebar, upd.Type, upd.IsNSFW, id)
		if err != nil {
			return fmt.Errorf("failed to update community: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "Community nicht gefunden", StatusCode: http.StatusNotFound}
		}
		return appendModLog(tx, domain.ModLogEntry{
			CommunityId: id,
			ModeratorId: moderatorId,
			Action:      domain.ActionEditSettings,
		})
	})
}

// ArchiveCommunity soft-deletes the community. Posts and memberships stay in
// place so the archive can be reversed by hand if needed.
func (s *Storage) ArchiveCommunity(id domain.CommunityId) error {
	res, err := s.db.Exec("UPDATE communities SET is_archived = TRUE WHERE id = $1 AND NOT is_archived", id)
	if err != nil {
		return fmt.Errorf("failed to archive community: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "Community nicht gefunden", StatusCode: http.StatusNotFound}
	}
	return nil
}

type communityScanner interface {
	Scan(dest ...interface{}) error
}

func scanCommunity(row *sql.Row) (domain.Community, error) {
	c, err := scanCommunityRows(row)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return domain.Community{}, &internal_errors.ErrorWithStatusCode{Message: "Community nicht gefunden", StatusCode: http.StatusNotFound}
	}
	return c, err
}

func scanCommunityRows(sc communityScanner) (domain.Community, error) {
	var c domain.Community
	err := sc.Scan(&c.Id, &c.Slug, &c.Name, &c.Description, &c.Sidebar, &c.Type,
		&c.IsNSFW, &c.IsArchived, &c.CreatorId, &c.MemberCount, &c.PostCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Community{}, err
		}
		return domain.Community{}, fmt.Errorf("failed to scan community: %w", err)
	}
	return c, nil
}
