// Package app wires the shared backends of the API server and the worker.
package app

import (
	"context"
	"fmt"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/handlers"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/auth"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/config"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/database"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/repository"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/github"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/oidc"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/queue"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/storage"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/worker"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoConnectAttempts = 5

// Redis connects to the configured Redis. It returns nil, nil when REDIS_HOST
// is unset and an error when Redis is configured but unreachable.
func Redis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := cfg.Addr()
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	logger.Infof("connected to Redis at %s", addr)
	return rdb, nil
}

// Store is the deck repository with its readiness check and release hook.
type Store struct {
	Repo  repository.Repository
	Ping  handlers.Check
	Close func()
}

// Repository returns the Mongo-backed deck store, or the memory one when
// MONGODB_URI is unset.
func Repository(ctx context.Context, cfg config.MongoDBConfig) (*Store, error) {
	if cfg.URI == "" {
		logger.Warnf("MONGODB_URI not set, decks are kept in memory")
		return &Store{
			Repo:  repository.NewMemoryRepo(),
			Ping:  func(context.Context) error { return nil },
			Close: func() {},
		}, nil
	}
	client, err := database.ConnectMongoWithRetry(ctx, cfg.URI, cfg.Timeout, mongoConnectAttempts)
	if err != nil {
		return nil, err
	}
	repo := repository.NewMongoRepo(client.Database(cfg.Database).Collection(cfg.Collection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warnf("deck indexes: %v", err)
	}
	return &Store{
		Repo:  repo,
		Ping:  func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		Close: func() { _ = client.Disconnect(context.Background()) },
	}, nil
}

// Site connects to the object storage holding published decks, or returns nil
// when STORAGE_ENDPOINT is unset.
func Site(ctx context.Context, cfg config.StorageConfig) (*storage.MinIOStorage, error) {
	if cfg.Endpoint == "" {
		logger.Warnf("STORAGE_ENDPOINT not set, publish-deck jobs will fail")
		return nil, nil
	}
	return storage.NewMinIOStorage(ctx, cfg)
}

// Checks lists the readiness checks of the backends in use. Callers add redis.
func Checks(store *Store, site *storage.MinIOStorage) map[string]handlers.Check {
	checks := map[string]handlers.Check{"mongo": store.Ping}
	if site != nil {
		checks["storage"] = site.Ping
	}
	return checks
}

// WorkerOptions maps the queue settings onto worker options.
func WorkerOptions(cfg config.QueueConfig) worker.Options {
	return worker.Options{
		Concurrency: cfg.Concurrency,
		PollTimeout: cfg.PollTimeout,
		MaxAttempts: cfg.MaxAttempts,
	}
}

// Worker builds a job consumer over q. site and authn may be nil.
func Worker(q queue.Queue, repo repository.Repository, site *storage.MinIOStorage, gh config.GitHubConfig, authn *auth.Authenticator, opts worker.Options) (*worker.Worker, error) {
	dispatcher, err := github.NewDispatcher(gh)
	if err != nil {
		return nil, err
	}
	var up worker.Uploader
	if site != nil {
		up = site
	}
	var wa worker.Authenticator
	if authn != nil {
		wa = authn
	}
	return worker.New(q, repo, up, dispatcher, wa, opts), nil
}

// Jobs returns the queue the API enqueues publish jobs to. With Redis this is
// the shared list consumed by cmd/worker. Without Redis the queue only lives in
// this process, so a worker over it is started here; wait blocks until that
// worker has stopped after ctx is cancelled.
func Jobs(ctx context.Context, cfg *config.Config, rdb *redis.Client, repo repository.Repository, site *storage.MinIOStorage, authn *auth.Authenticator) (q queue.Queue, wait func(), err error) {
	if rdb != nil {
		return queue.NewRedisQueue(rdb, cfg.Queue.Key), func() {}, nil
	}
	logger.Warnf("REDIS_HOST not set, publish jobs are processed in this process")
	mq := queue.NewMemoryQueue()
	w, err := Worker(mq, repo, site, cfg.GitHub, authn, WorkerOptions(cfg.Queue))
	if err != nil {
		return nil, nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			logger.Errorf("in-process worker stopped: %v", err)
		}
	}()
	return mq, func() { <-done }, nil
}

// Verifier picks the token verifier: OIDC when an issuer is configured, HS256
// with the shared secret next, and the insecure decoder only when explicitly
// allowed. It returns nil when nothing is configured.
func Verifier(ctx context.Context, cfg config.AuthConfig) (auth.Verifier, error) {
	switch {
	case cfg.Issuer != "":
		v, err := oidc.NewVerifier(ctx, cfg.Issuer, cfg.ClientID)
		if err != nil {
			return nil, err
		}
		logger.Infof("auth: OIDC issuer %s", cfg.Issuer)
		return v, nil
	case cfg.JWTSecret != "":
		v, err := auth.NewJWTVerifier(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		logger.Infof("auth: HS256 shared secret")
		return v, nil
	case cfg.AllowInsecure:
		logger.Warnf("auth: signature checks disabled (AUTH_ALLOW_INSECURE)")
		return oidc.NewPayloadDecoder(), nil
	}
	return nil, nil
}

// Authenticator builds an authenticator over the configured verifier, or nil.
func Authenticator(ctx context.Context, cfg config.AuthConfig, rdb *redis.Client) (*auth.Authenticator, error) {
	v, err := Verifier(ctx, cfg)
	if err != nil || v == nil {
		return nil, err
	}
	return auth.NewAuthenticator(v, auth.NewRevocations(rdb)), nil
}
