package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkpulse/internal/analytics"
)

const foreignKeyViolation = "23503"

// PostgresStore is a PostgreSQL implementation of analytics.Store.
// Rows in click_events are removed with their link by the foreign key
// cascade.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed click store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Record(ctx context.Context, event *analytics.ClickEvent) error {
	query := `
		INSERT INTO click_events (
			id, short_link_id, occurred_at, ip_address, user_agent, referrer,
			country, city, device, browser, os,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		event.ShortLinkID,
		event.Timestamp,
		event.IPAddress,
		event.UserAgent,
		event.Referrer,
		event.Country,
		event.City,
		event.Device,
		event.Browser,
		event.OS,
		event.UTMSource,
		event.UTMMedium,
		event.UTMCampaign,
		event.UTMTerm,
		event.UTMContent,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("insert click event %s: %w", event.ID, analytics.ErrUnknownLink)
		}

		return fmt.Errorf("insert click event: %w", err)
	}

	return nil
}

func (p *PostgresStore) ListByLink(
	ctx context.Context, shortLinkID string, r analytics.DateRange,
) ([]analytics.ClickEvent, error) {
	query := `
		SELECT id, short_link_id, occurred_at, ip_address, user_agent, referrer,
			country, city, device, browser, os,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content
		FROM click_events
		WHERE short_link_id = $1
			AND ($2::timestamptz IS NULL OR occurred_at >= $2)
			AND ($3::timestamptz IS NULL OR occurred_at <= $3)
		ORDER BY occurred_at, id
	`

	rows, err := p.pool.Query(ctx, query, shortLinkID, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("query click events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.ClickEvent, error) {
		var e analytics.ClickEvent

		err := row.Scan(
			&e.ID,
			&e.ShortLinkID,
			&e.Timestamp,
			&e.IPAddress,
			&e.UserAgent,
			&e.Referrer,
			&e.Country,
			&e.City,
			&e.Device,
			&e.Browser,
			&e.OS,
			&e.UTMSource,
			&e.UTMMedium,
			&e.UTMCampaign,
			&e.UTMTerm,
			&e.UTMContent,
		)

		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan click events: %w", err)
	}

	return events, nil
}

// Compile-time check.
var _ analytics.Store = (*PostgresStore)(nil)
