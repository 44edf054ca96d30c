package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"route-optimizer-service/internal/adapters/cache"
	"route-optimizer-service/internal/adapters/distance"
	"route-optimizer-service/internal/adapters/maplink"
	"route-optimizer-service/internal/api"
	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/platform/db"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"route-optimizer-service/internal/services"
	"route-optimizer-service/internal/solver"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// main is the application composition root.
// It wires concrete adapters (OSRM, matrix cache, map links) behind ports and
// starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	obs.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	metrics.RegisterDefault()

	ranking, err := config.LoadPriorityRanking(cfg.PriorityPolicyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("priority policy")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var provider ports.DistanceMatrixProvider = distance.NewOSRMDistanceProvider(distance.OSRMOptions{
		BaseURL:           cfg.OSRMBaseURL,
		Timeout:           cfg.OSRMTimeout,
		RequestsPerSecond: cfg.OSRMRPS,
	})

	matrixCache, closer, err := openMatrixCache(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.CacheBackend).Msg("matrix cache")
	}
	defer closer.Close()
	if matrixCache != nil {
		provider = distance.NewCachedDistanceProvider(provider, matrixCache)
	}

	optimizer := &services.RouteOptimizer{
		Provider: provider,
		MapLinks: maplink.NewYandexLinkBuilder(cfg.MapBaseURL),
		Ranking:  ranking,
		Solver: solver.Options{
			TimeLimit:     cfg.SolverTimeLimit,
			MaxIterations: cfg.SolverMaxIterations,
			StallLimit:    cfg.SolverStallLimit,
		},
	}

	// Write timeout leaves room for a cold OSRM call plus the solver budget.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(optimizer, ranking),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.OSRMTimeout + cfg.SolverTimeLimit + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("cache", cfg.CacheBackend).
			Strs("priorities", ranking.Names()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openMatrixCache returns the configured travel-leg cache, or nil for "none".
func openMatrixCache(ctx context.Context, cfg config.Config) (ports.MatrixCache, io.Closer, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		c, err := cache.NewRedisMatrixCacheFromURL(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil

	case config.CachePostgres:
		pg, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitPostgresSchema(pg); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		return cache.NewSQLMatrixCache(pg, cfg.CacheTTL), pg, nil

	case config.CacheSqlite:
		if dir := filepath.Dir(cfg.SqlitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		lite, err := db.OpenSqlite(ctx, cfg.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSqliteSchema(lite); err != nil {
			_ = lite.Close()
			return nil, nil, err
		}
		return cache.NewSqliteMatrixCache(lite, cfg.CacheTTL), lite, nil
	}

	return nil, nopCloser{}, nil
}
