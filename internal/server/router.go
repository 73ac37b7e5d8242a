package server

import (
	"context"
	"time"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/handlers"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/auth"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/config"
	deckhandler "github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/handler"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/repository"
	deckservice "github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/service"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/publish"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/queue"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/logger"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps are the backends the HTTP API is built on. Redis and Auth may be nil.
type Deps struct {
	Config *config.Config
	Repo   repository.Repository
	Queue  queue.Queue
	Redis  *redis.Client
	Auth   *auth.Authenticator
	Checks map[string]handlers.Check
}

// NewRouter assembles the gin engine: CORS, recovery, optional rate limiting,
// health checks, metrics, docs and the /api routes.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(corsMiddleware(cfg.Server.CORSOrigins))

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	checks := map[string]handlers.Check{}
	for k, v := range d.Checks {
		checks[k] = v
	}
	if d.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() }
	}
	handlers.RegisterHealth(r, time.Now(), checks)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	var authn publish.Authenticator
	if d.Auth != nil {
		authn = d.Auth
	}
	svc := publish.NewService(publish.NewStatusWriter(d.Repo), publish.NewGateway(d.Queue), authn)
	publish.RegisterRoutes(api, svc)

	if d.Auth != nil {
		decks := api.Group("", middleware.AuthMiddleware(d.Auth))
		deckhandler.RegisterDeckRoutes(decks, deckservice.New(d.Repo))
		handlers.RegisterAuth(decks, d.Auth)
	} else {
		logger.Warnf("no token verifier configured, deck routes are disabled")
	}
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return cors.New(c)
}
