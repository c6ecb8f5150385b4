package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pathfinder-service/internal/app"
	"pathfinder-service/internal/cat"
	"pathfinder-service/internal/config"
	"pathfinder-service/internal/infra/memory"
	mongostore "pathfinder-service/internal/infra/mongo"
	pgstore "pathfinder-service/internal/infra/postgres"
	redisstore "pathfinder-service/internal/infra/redis"
)

// backends holds the connections opened for one process.
type backends struct {
	redis    *redis.Client
	pool     *pgxpool.Pool
	mongo    *mongo.Client
	closeFns []func()
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closeFns = append(b.closeFns, func() { _ = b.redis.Close() })
	}
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			b.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.closeFns = append(b.closeFns, pool.Close)
	}
	if cfg.Postgres.URL == "" && cfg.Mongo.URI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		b.mongo = client
		b.closeFns = append(b.closeFns, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(shutdownCtx)
		})
	}
	return b, nil
}

func (b *backends) Close() {
	for i := len(b.closeFns) - 1; i >= 0; i-- {
		b.closeFns[i]()
	}
	b.closeFns = nil
}

// questionStore prefers Postgres, then Mongo, then an in-memory copy of the built-in bank.
func (b *backends) questionStore(ctx context.Context, cfg config.Config) (app.QuestionStore, error) {
	switch {
	case b.pool != nil:
		return pgstore.NewQuestionStore(b.pool), nil
	case b.mongo != nil:
		store := mongostore.NewQuestionStore(b.mongo, cfg.Mongo.Database)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		log.Printf("no question database configured, using the built-in bank in memory")
		return memory.NewQuestionStore(memory.DefaultBank()), nil
	}
}

type itemCache interface {
	app.ContentSource
	app.CacheInvalidator
}

func (b *backends) itemCache(loader app.ContentSource, ttl time.Duration) itemCache {
	if b.redis != nil {
		return redisstore.NewItemCache(b.redis, loader, ttl)
	}
	return memory.NewItemCache(loader, ttl)
}

func (b *backends) sessionStore(ttl time.Duration) cat.SessionStore {
	if b.redis != nil {
		return redisstore.NewSessionStore(b.redis, ttl)
	}
	return memory.NewSessionStore(ttl)
}
