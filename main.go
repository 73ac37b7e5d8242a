package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/app"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/config"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/server"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/storage"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/logger"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v oidc=%v jwt_secret_set=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Auth.Issuer != "", cfg.Auth.JWTSecret != "")
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := app.Redis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store, err := app.Repository(ctx, cfg.MongoDB)
	if err != nil {
		logger.Fatalf("deck repository: %v", err)
	}
	defer store.Close()

	authn, err := app.Authenticator(ctx, cfg.Auth, rdb)
	if err != nil {
		logger.Fatalf("token verifier: %v", err)
	}

	// Object storage is only needed here when jobs run in this process.
	var site *storage.MinIOStorage
	if rdb == nil {
		if site, err = app.Site(ctx, cfg.Storage); err != nil {
			logger.Fatalf("site storage: %v", err)
		}
	}

	jobs, waitJobs, err := app.Jobs(ctx, cfg, rdb, store.Repo, site, authn)
	if err != nil {
		logger.Fatalf("job queue: %v", err)
	}
	defer waitJobs()

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := server.NewRouter(server.Deps{
		Config: cfg,
		Repo:   store.Repo,
		Queue:  jobs,
		Redis:  rdb,
		Auth:   authn,
		Checks: app.Checks(store, site),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("publish API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
