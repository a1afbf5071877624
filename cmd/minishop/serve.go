package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"MiniShop/internal/auth"
	"MiniShop/internal/catalog"
	"MiniShop/internal/config"
	"MiniShop/pkg/kit"
)

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configFile)
		},
	}
}

func runServe(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log, err := kit.NewLogger(cfg.App.Name, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backend, seed, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	policy, err := catalog.ParseWishlistPolicy(cfg.Wishlist.Policy)
	if err != nil {
		return err
	}

	store, err := catalog.Open(ctx, catalog.Options{
		Backend:        backend,
		Seed:           seed,
		Log:            log.Named("store"),
		Metrics:        catalog.NewMetrics(reg, catalog.MetricsNamespace),
		WishlistPolicy: policy,
		RandSeed:       cfg.Carousel.Seed,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	s := &catalog.Server{
		Store:        store,
		Log:          log,
		CarouselSize: cfg.Carousel.Size,
	}
	if cfg.RateLimit.RPS > 0 {
		s.Limiter = kit.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	deps := catalog.HTTPDeps{
		Log:            log,
		Service:        cfg.App.Name,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	}

	if cfg.Auth.Enabled() {
		jwt := auth.NewTokenMaker(cfg.Auth.JWTSecret)
		s.RequireAdmin = auth.RequireAdmin(jwt)

		as := &auth.Server{
			Log: log,
			Admin: auth.Admin{
				Username:     cfg.Auth.AdminUsername,
				PasswordHash: []byte(cfg.Auth.AdminPasswordHash),
			},
			JWT: jwt,
			TTL: cfg.Auth.TokenTTL,
		}
		deps.Auth = as.Routes()
	} else {
		log.Warn("admin auth disabled: POST /products is open")
	}

	log.Info("starting",
		zap.String("env", cfg.App.Env),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("wishlist_policy", string(policy)),
	)

	return kit.RunHTTPServer(ctx, kit.ServerConfig{
		Addr:              cfg.Addr(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	}, catalog.NewHandler(s, deps), log)
}
