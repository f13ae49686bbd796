// Package container wires the service's components with samber/do.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/linkpulse/internal/analytics"
	clickstore "github.com/serroba/linkpulse/internal/analytics/store"
	"github.com/serroba/linkpulse/internal/handlers"
	"github.com/serroba/linkpulse/internal/health"
	"github.com/serroba/linkpulse/internal/maintenance"
	"github.com/serroba/linkpulse/internal/messaging"
	"github.com/serroba/linkpulse/internal/middleware"
	"github.com/serroba/linkpulse/internal/ratelimit"
	"github.com/serroba/linkpulse/internal/resolver"
	"github.com/serroba/linkpulse/internal/shortener"
	"github.com/serroba/linkpulse/internal/store"
	"go.uber.org/zap"
)

const (
	connectTimeout = 5 * time.Second
	consumerGroup  = "click-persister"

	// Per-code failed password attempts across all clients.
	unlockAttempts = 20
	unlockWindow   = time.Hour
)

// Redis owns the shared Redis client.
type Redis struct {
	Client *redis.Client
}

func (r *Redis) Shutdown() error {
	return r.Client.Close()
}

// Postgres owns the connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	p.Pool.Close()

	return nil
}

// LoggerPackage provides the process logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis client. It is only connected when a
// component that needs it is resolved.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect redis %s: %w", opts.RedisAddr, err)
		}

		return &Redis{Client: client}, nil
	})
}

// PostgresPackage provides the connection pool with the schema migrated.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()

			return nil, err
		}

		return &Postgres{Pool: pool}, nil
	})
}

// RepositoryPackage provides the link repository and the click store on the
// configured backend.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		if do.MustInvoke[*Options](i).Store == BackendPostgres {
			return clickstore.NewPostgresStore(do.MustInvoke[*Postgres](i).Pool), nil
		}

		return clickstore.NewMemoryStore(), nil
	})

	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)
		clicks := do.MustInvoke[analytics.Store](i)

		if opts.Store != BackendPostgres {
			links := store.NewMemoryStore()

			// Postgres cascades click deletion through the foreign key.
			if mem, ok := clicks.(*clickstore.MemoryStore); ok {
				links.OnDelete(mem.DeleteByLink)
			}

			return links, nil
		}

		var repo shortener.Repository = store.NewPostgresStore(do.MustInvoke[*Postgres](i).Pool)

		if opts.CacheTTL > 0 {
			repo = store.NewRedisCacheRepository(
				repo, do.MustInvoke[*Redis](i).Client, opts.cacheTTL(), do.MustInvoke[*zap.Logger](i),
			)
		}

		return repo, nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)

		gen, err := shortener.NewCodeGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			gen,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// AnalyticsPackage provides the click recorder and the resolution engine.
func AnalyticsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (resolver.Recorder, error) {
		if do.MustInvoke[*Options](i).ClickSink == SinkStream {
			group := do.MustInvoke[*messaging.PublisherGroup](i)

			return analytics.NewStreamRecorder(
				messaging.NewPublishFunc[analytics.ClickEvent](group.Publisher(), analytics.TopicClickRecorded),
			), nil
		}

		return analytics.NewStoreRecorder(do.MustInvoke[analytics.Store](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*resolver.Engine, error) {
		return resolver.NewEngine(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[resolver.Recorder](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// RateLimitPackage provides the counter store and the policy limiter.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		if do.MustInvoke[*Options](i).RateLimit == BackendRedis {
			return store.NewRateLimitRedisStore(do.MustInvoke[*Redis](i).Client), nil
		}

		return store.NewRateLimitMemoryStore(), nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		return ratelimit.NewPolicyLimiter(do.MustInvoke[ratelimit.Store](i), ratelimit.DefaultPolicy()), nil
	})
}

// PublisherGroupPackage provides the Redis stream publisher.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     do.MustInvoke[*Redis](i).Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the consumers persisting streamed clicks.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        do.MustInvoke[*Redis](i).Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: consumerGroup,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create stream subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			analytics.TopicClickRecorded,
			analytics.PersistClicks(do.MustInvoke[analytics.Store](i), logger),
			logger,
		))

		return group, nil
	})
}

// MaintenancePackage provides the expiration sweep scheduler.
func MaintenancePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*maintenance.Scheduler, error) {
		opts := do.MustInvoke[*Options](i)

		var pruners []maintenance.Pruner
		if mem, ok := do.MustInvoke[ratelimit.Store](i).(*store.RateLimitMemoryStore); ok {
			pruners = append(pruners, mem)
		}

		return maintenance.NewScheduler(
			opts.SweepSchedule,
			opts.retention(),
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*zap.Logger](i),
			pruners...,
		), nil
	})
}

// HTTPPackage provides the router and the API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("Link Pulse", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))
		api.UseMiddleware(middleware.PolicyRateLimiter(
			api,
			do.MustInvoke[*ratelimit.PolicyLimiter](i),
			ratelimit.NewOperationScopeResolver(),
			logger,
		))

		service := do.MustInvoke[*shortener.Service](i)
		limits := do.MustInvoke[ratelimit.Store](i)

		health.RegisterRoutes(api, health.NewHandler(healthChecks(i, opts)))
		handlers.RegisterRoutes(
			api,
			handlers.NewLinkHandler(service, opts.PublicBaseURL(), logger),
			handlers.NewRedirectHandler(
				do.MustInvoke[*resolver.Engine](i),
				ratelimit.NewSlidingWindowLimiter(limits, "unlock-code", unlockAttempts, unlockWindow),
				logger,
			),
			handlers.NewAnalyticsHandler(service, do.MustInvoke[analytics.Store](i), logger),
		)

		return api, nil
	})
}

// healthChecks covers only the backends this deployment uses.
func healthChecks(i *do.Injector, opts *Options) map[string]health.Checker {
	checks := make(map[string]health.Checker)

	if opts.Store == BackendPostgres {
		checks["postgres"] = health.NewPostgresChecker(do.MustInvoke[*Postgres](i).Pool)
	}

	if usesRedis(opts) {
		checks["redis"] = health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)
	}

	return checks
}

func usesRedis(opts *Options) bool {
	return opts.RateLimit == BackendRedis ||
		opts.ClickSink == SinkStream ||
		(opts.Store == BackendPostgres && opts.CacheTTL > 0)
}
