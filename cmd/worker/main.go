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

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/handlers"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/app"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/config"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/queue"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/logger"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	concurrency int
	pollTimeout time.Duration
	maxAttempts int
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume scheduled deck publish jobs",
	Long: `Consumes publish-deck and push-github jobs from the task queue.

publish-deck renders the deck page and uploads it to object storage.
push-github triggers a repository_dispatch event on the configured repository.
The outcome is written to the deck's deploy.api or deploy.github slot.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel consumers (0 = QUEUE_CONCURRENCY)")
	rootCmd.Flags().DurationVar(&pollTimeout, "poll-timeout", 0, "Blocking dequeue timeout (0 = QUEUE_POLL_TIMEOUT)")
	rootCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Attempts per job before failure (0 = QUEUE_MAX_ATTEMPTS)")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9102", "Address serving /metrics, /health and /ready, empty to disable")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts := app.WorkerOptions(cfg.Queue)
	if concurrency > 0 {
		opts.Concurrency = concurrency
	}
	if pollTimeout > 0 {
		opts.PollTimeout = pollTimeout
	}
	if maxAttempts > 0 {
		opts.MaxAttempts = maxAttempts
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := app.Redis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb == nil {
		return errors.New("the worker needs REDIS_HOST to reach the task queue")
	}
	defer rdb.Close()

	store, err := app.Repository(ctx, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer store.Close()

	authn, err := app.Authenticator(ctx, cfg.Auth, rdb)
	if err != nil {
		return err
	}

	site, err := app.Site(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	w, err := app.Worker(queue.NewRedisQueue(rdb, cfg.Queue.Key), store.Repo, site, cfg.GitHub, authn, opts)
	if err != nil {
		return err
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	if metricsAddr != "" {
		checks := app.Checks(store, site)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		srv := &http.Server{Addr: metricsAddr, Handler: opsRouter(checks), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("ops server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return w.Run(ctx)
}

// opsRouter serves /metrics, /health and /ready for the worker process.
func opsRouter(checks map[string]handlers.Check) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	handlers.RegisterHealth(r, time.Now(), checks)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
