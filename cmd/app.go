package cmd

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/config"
	"github.com/ypb/phonebook/internal/corpus"
	"github.com/ypb/phonebook/internal/database"
	"github.com/ypb/phonebook/internal/page/repository"
	"github.com/ypb/phonebook/internal/search"
	"go.mongodb.org/mongo-driver/mongo"
)

// app carries the pieces shared by every command: the page store, the corpus
// cache on top of it and, when configured, Redis.
type app struct {
	repo    repository.Repository
	cache   *corpus.Cache
	redis   *redis.Client
	mongo   *mongo.Client
	badger  *badger.DB
	closers []func()
}

// openApp connects the configured store. Redis is optional: a failed ping is
// logged by the caller and the client dropped.
func openApp(ctx context.Context, c *config.Config) (*app, error) {
	a := &app{}
	switch c.Store.Driver {
	case "mongo":
		client, err := database.ConnectMongo(ctx, c.MongoDB.URI, c.MongoDB.Timeout)
		if err != nil {
			return nil, err
		}
		a.mongo = client
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		repo, err := repository.NewMongoRepo(ctx, client.Database(c.MongoDB.Database))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("prepare mongo collections: %w", err)
		}
		a.repo = repo
	case "badger":
		db, err := database.OpenBadger(c.Badger.Dir)
		if err != nil {
			return nil, err
		}
		a.badger = db
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.repo = repository.NewBadgerRepo(db)
	default:
		a.repo = repository.NewMemoryRepo()
	}
	a.cache = corpus.NewCache(a.repo)
	return a, nil
}

// connectRedis returns nil when Redis is not configured or not reachable.
func connectRedis(ctx context.Context, c config.RedisConfig) (*redis.Client, error) {
	if c.Addr() == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: c.Addr(), Password: c.Password, DB: c.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", c.Addr(), err)
	}
	return client, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newEngine(c *config.Config) *search.Engine {
	return &search.Engine{
		PageSize:       c.Search.PageSize,
		Filter:         access.Filter{PublicTag: c.Search.PublicTag},
		PatternTimeout: c.Search.PatternTimeout,
	}
}
