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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/cinematch/internal/catalog"
	"github.com/actuallystonmai/cinematch/internal/config"
	"github.com/actuallystonmai/cinematch/internal/handler"
	"github.com/actuallystonmai/cinematch/internal/logging"
	"github.com/actuallystonmai/cinematch/internal/model"
	"github.com/actuallystonmai/cinematch/internal/router"
	"github.com/actuallystonmai/cinematch/internal/service"
	"github.com/actuallystonmai/cinematch/internal/session"
	"github.com/actuallystonmai/cinematch/seeds"
)

const sweepInterval = time.Minute

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Gemini.APIKey == "" {
		logging.Warn().Msg("GEMINI_API_KEY is not set; recommendation requests will fail")
	}
	if cfg.TMDB.APIKey == "" {
		logging.Warn().Msg("TMDB_API_KEY is not set; search and posters will fail")
	}

	// ------------ Session store ---------------
	storeOpts := session.Options{TTL: cfg.Session.TTL, LockTTL: cfg.Server.RequestTimeout}
	var store session.Store
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to parse redis url")
		}
		client := redis.NewClient(opts)
		defer client.Close()

		if err := waitForRedis(ctx, client); err != nil {
			logging.Fatal().Err(err).Msg("redis not ready")
		}
		logging.Info().Str("addr", opts.Addr).Msg("connected to Redis")
		store = session.NewRedisStore(client, storeOpts)
	} else {
		mem := session.NewMemoryStore(storeOpts)
		go mem.Run(ctx, sweepInterval)
		logging.Info().Msg("using in-memory session store")
		store = mem
	}

	// ------------ Upstream clients ---------------
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	recommender := model.NewClient(model.Options{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		BaseURL:    cfg.Gemini.BaseURL,
		HTTPClient: httpClient,
	})
	movies := catalog.NewClient(catalog.Options{
		APIKey:       cfg.TMDB.APIKey,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		HTTPClient:   httpClient,
	})

	svcOpts := service.Options{StrictPosters: cfg.Recommend.PosterLookupStrict}
	if cfg.Session.SeedFavorites {
		svcOpts.Seeds = seeds.Favorites(cfg.TMDB.ImageBaseURL)
	}
	svc := service.NewService(recommender, movies, store, svcOpts)

	// ---------------- Server --------------------
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(handler.NewHandler(svc, cfg.Session.TTL), cfg.Server.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func waitForRedis(ctx context.Context, client *redis.Client) error {
	for i := 0; i < 30; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			return nil
		}
		logging.Info().Msgf("waiting for redis... (%d/30)", i+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return fmt.Errorf("redis connection timeout after 30s")
}
