package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hassanidea/Subscription-Status-Viewer/internal/api"
	"github.com/hassanidea/Subscription-Status-Viewer/internal/billing"
	"github.com/hassanidea/Subscription-Status-Viewer/internal/storage"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/config"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/httpserver"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/jwt"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/logger"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/pg"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/ratelimit"
	redisconn "github.com/hassanidea/Subscription-Status-Viewer/pkg/redis"
)

type appConfig struct {
	Logger  logger.Config
	HTTP    httpserver.Config
	PG      pg.Config
	Redis   redisconn.Config
	Billing billing.Config
	Stripe  billing.StripeConfig

	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Logger)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	redisClient, err := redisconn.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	provider, err := billing.NewStripeProvider(cfg.Stripe)
	if err != nil {
		return err
	}

	svc := billing.NewService(provider, storage.NewCustomerStore(pool), cfg.Billing,
		billing.WithLogger(log))

	jwtSvc, err := jwt.NewFromString(cfg.JWTSigningKey)
	if err != nil {
		return err
	}

	limiter, err := ratelimit.NewFixedWindow(
		ratelimit.NewRedisStore(redisClient, "ratelimit"),
		cfg.RateLimitRequests, cfg.RateLimitWindow)
	if err != nil {
		return err
	}

	router := api.Router(api.RouterOptions{
		Handler: api.NewHandler(svc, log),
		JWT:     jwtSvc,
		Log:     log,
		Limiter: limiter,
		HealthChecks: []func(context.Context) error{
			pg.Healthcheck(pool),
			redisconn.Healthcheck(redisClient),
		},
	})

	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return server.Run(ctx, router)
}
