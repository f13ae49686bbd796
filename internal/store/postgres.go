package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkpulse/internal/shortener"
)

const uniqueViolation = "23505"

const linkColumns = `id, code, owner_id, original_url, expiration_url, expires_at,
	password_hash, clicks, created_at, updated_at`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Save(ctx context.Context, link *shortener.ShortLink) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO short_links (` + linkColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`

		_, err := tx.Exec(ctx, query,
			link.ID,
			string(link.Code),
			link.OwnerID,
			link.OriginalURL,
			link.ExpirationURL,
			link.ExpiresAt,
			link.PasswordHash,
			link.Clicks,
			link.CreatedAt,
			link.UpdatedAt,
		)
		if err != nil {
			return translate(err)
		}

		return saveRelations(ctx, tx, link)
	})
}

// GetByCode fails closed: anything but exactly one match is reported as
// not found.
func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	links, err := p.query(ctx, `SELECT `+linkColumns+` FROM short_links WHERE code = $1 LIMIT 2`, string(code))
	if err != nil {
		return nil, err
	}

	if len(links) != 1 {
		return nil, shortener.ErrNotFound
	}

	return links[0], nil
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*shortener.ShortLink, error) {
	links, err := p.query(ctx, `SELECT `+linkColumns+` FROM short_links WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	if len(links) == 0 {
		return nil, shortener.ErrNotFound
	}

	return links[0], nil
}

func (p *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]*shortener.ShortLink, error) {
	return p.query(ctx,
		`SELECT `+linkColumns+` FROM short_links WHERE owner_id = $1 ORDER BY created_at DESC, id`,
		ownerID,
	)
}

func (p *PostgresStore) Update(ctx context.Context, link *shortener.ShortLink) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE short_links
			SET code = $2, original_url = $3, expiration_url = $4, expires_at = $5,
				password_hash = $6, updated_at = $7
			WHERE id = $1
		`

		tag, err := tx.Exec(ctx, query,
			link.ID,
			string(link.Code),
			link.OriginalURL,
			link.ExpirationURL,
			link.ExpiresAt,
			link.PasswordHash,
			link.UpdatedAt,
		)
		if err != nil {
			return translate(err)
		}

		if tag.RowsAffected() == 0 {
			return shortener.ErrNotFound
		}

		if _, err = tx.Exec(ctx, `DELETE FROM link_tags WHERE link_id = $1`, link.ID); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}

		if _, err = tx.Exec(ctx, `DELETE FROM link_campaigns WHERE link_id = $1`, link.ID); err != nil {
			return fmt.Errorf("clear campaigns: %w", err)
		}

		return saveRelations(ctx, tx, link)
	})
}

// Delete removes the link; tags, campaigns and click events follow through
// ON DELETE CASCADE.
func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM short_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) IncrementClicks(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE short_links SET clicks = clicks + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment clicks: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) ([]*shortener.ShortLink, error) {
	rows, err := p.pool.Query(ctx,
		`DELETE FROM short_links WHERE expires_at IS NOT NULL AND expires_at < $1 RETURNING `+linkColumns,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("delete expired links: %w", err)
	}

	links, err := pgx.CollectRows(rows, scanLink)
	if err != nil {
		return nil, fmt.Errorf("delete expired links: %w", err)
	}

	return links, nil
}

// query runs a link select and loads tags and campaigns for each result.
func (p *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]*shortener.ShortLink, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}

	links, err := pgx.CollectRows(rows, scanLink)
	if err != nil {
		return nil, fmt.Errorf("scan links: %w", err)
	}

	for _, link := range links {
		if err = loadRelations(ctx, p.pool, link); err != nil {
			return nil, err
		}
	}

	return links, nil
}

func scanLink(row pgx.CollectableRow) (*shortener.ShortLink, error) {
	var link shortener.ShortLink

	err := row.Scan(
		&link.ID,
		&link.Code,
		&link.OwnerID,
		&link.OriginalURL,
		&link.ExpirationURL,
		&link.ExpiresAt,
		&link.PasswordHash,
		&link.Clicks,
		&link.CreatedAt,
		&link.UpdatedAt,
	)

	return &link, err
}

func saveRelations(ctx context.Context, q querier, link *shortener.ShortLink) error {
	for i, name := range link.Tags {
		rows, err := q.Query(ctx, `
			INSERT INTO tags (owner_id, name) VALUES ($1, $2)
			ON CONFLICT (owner_id, name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, link.OwnerID, name)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}

		tagID, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}

		_, err = q.Exec(ctx,
			`INSERT INTO link_tags (link_id, tag_id, position) VALUES ($1, $2, $3)`,
			link.ID, tagID, i,
		)
		if err != nil {
			return fmt.Errorf("attach tag %q: %w", name, err)
		}
	}

	for i, c := range link.Campaigns {
		_, err := q.Exec(ctx, `
			INSERT INTO link_campaigns (link_id, position, name, source, medium, campaign, term, content)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, link.ID, i, c.Name, c.Source, c.Medium, c.Campaign, c.Term, c.Content)
		if err != nil {
			return fmt.Errorf("save campaign %q: %w", c.Name, err)
		}
	}

	return nil
}

func loadRelations(ctx context.Context, q querier, link *shortener.ShortLink) error {
	rows, err := q.Query(ctx, `
		SELECT t.name FROM link_tags lt
		JOIN tags t ON t.id = lt.tag_id
		WHERE lt.link_id = $1
		ORDER BY lt.position
	`, link.ID)
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}

	if link.Tags, err = pgx.CollectRows(rows, pgx.RowTo[string]); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT name, source, medium, campaign, term, content
		FROM link_campaigns
		WHERE link_id = $1
		ORDER BY position
	`, link.ID)
	if err != nil {
		return fmt.Errorf("query campaigns: %w", err)
	}

	if link.Campaigns, err = pgx.CollectRows(rows, pgx.RowToStructByPos[shortener.UTMParams]); err != nil {
		return fmt.Errorf("scan campaigns: %w", err)
	}

	return nil
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return shortener.ErrCodeTaken
	}

	return fmt.Errorf("write link: %w", err)
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
