package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkpulse/internal/shortener"
	"go.uber.org/zap"
)

// tombstone marks a code whose entry was just invalidated. Read fills only
// write absent keys, so a fill that read the store before a concurrent
// write cannot put the old link back while the tombstone lives.
const (
	tombstone    = "-"
	tombstoneTTL = 5 * time.Second
)

var errTombstoned = errors.New("cache entry invalidated")

// RedisCacheRepository wraps a Repository with a Redis read-through cache
// for code lookups, the hot path of resolution.
//
// Cached copies carry a stale click counter; owner reads by id and listing
// always go to the underlying store.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		logger: logger,
		prefix: "link:code:",
		ttl:    ttl,
	}
}

// Save stores a link in the underlying store and populates the cache.
func (r *RedisCacheRepository) Save(ctx context.Context, link *shortener.ShortLink) error {
	if err := r.store.Save(ctx, link); err != nil {
		return err
	}

	r.cacheLink(ctx, link, redis.SetArgs{TTL: r.ttl})

	return nil
}

// GetByCode retrieves a link by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	if link, err := r.getFromCache(ctx, code); err == nil {
		return link, nil
	}

	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link, redis.SetArgs{Mode: "NX", TTL: r.ttl})

	return link, nil
}

func (r *RedisCacheRepository) GetByID(ctx context.Context, id string) (*shortener.ShortLink, error) {
	return r.store.GetByID(ctx, id)
}

func (r *RedisCacheRepository) ListByOwner(ctx context.Context, ownerID string) ([]*shortener.ShortLink, error) {
	return r.store.ListByOwner(ctx, ownerID)
}

// Update writes through and drops the cache entries of both the previous
// and the new code.
func (r *RedisCacheRepository) Update(ctx context.Context, link *shortener.ShortLink) error {
	previous, err := r.store.GetByID(ctx, link.ID)
	if err != nil {
		return err
	}

	if err = r.store.Update(ctx, link); err != nil {
		return err
	}

	r.invalidate(ctx, previous.Code, link.Code)

	return nil
}

func (r *RedisCacheRepository) Delete(ctx context.Context, id string) error {
	link, err := r.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err = r.store.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidate(ctx, link.Code)

	return nil
}

// IncrementClicks is not cached; the counter lives in the underlying store.
func (r *RedisCacheRepository) IncrementClicks(ctx context.Context, id string) error {
	return r.store.IncrementClicks(ctx, id)
}

func (r *RedisCacheRepository) DeleteExpired(ctx context.Context, now time.Time) ([]*shortener.ShortLink, error) {
	removed, err := r.store.DeleteExpired(ctx, now)

	codes := make([]shortener.Code, 0, len(removed))
	for _, link := range removed {
		codes = append(codes, link.Code)
	}

	r.invalidate(ctx, codes...)

	return removed, err
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	data, err := r.client.Get(ctx, r.key(code)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache get failed", zap.String("code", string(code)), zap.Error(err))
		}

		return nil, err
	}

	if string(data) == tombstone {
		return nil, errTombstoned
	}

	var link shortener.ShortLink
	if err = json.Unmarshal(data, &link); err != nil {
		return nil, err
	}

	return &link, nil
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortener.ShortLink, args redis.SetArgs) {
	data, err := json.Marshal(link)
	if err != nil {
		return
	}

	// NX writes that find the key set report redis.Nil.
	err = r.client.SetArgs(ctx, r.key(link.Code), data, args).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Warn("cache write failed", zap.String("code", string(link.Code)), zap.Error(err))
	}
}

func (r *RedisCacheRepository) invalidate(ctx context.Context, codes ...shortener.Code) {
	if len(codes) == 0 {
		return
	}

	pipe := r.client.Pipeline()
	for _, code := range codes {
		pipe.Set(ctx, r.key(code), tombstone, tombstoneTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		codeStrings := make([]string, 0, len(codes))
		for _, code := range codes {
			codeStrings = append(codeStrings, string(code))
		}

		r.logger.Error("cache invalidation failed", zap.Strings("codes", codeStrings), zap.Error(err))
	}
}

func (r *RedisCacheRepository) key(code shortener.Code) string {
	return r.prefix + string(code)
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
