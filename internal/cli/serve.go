package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fastquiz-service/internal/app"
	"fastquiz-service/internal/config"
	filestore "fastquiz-service/internal/infra/file"
	"fastquiz-service/internal/infra/memory"
	pgstore "fastquiz-service/internal/infra/postgres"
	redisstore "fastquiz-service/internal/infra/redis"
	transport "fastquiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// State backend precedence: Postgres, then Redis, then a state file,
	// then memory only.
	var store app.StateStore
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewStateStore(pool)
		log.Printf("state backend: postgres")
	case redisClient != nil:
		store = redisstore.NewStateStore(redisClient)
		log.Printf("state backend: redis %s", cfg.Redis.Addr)
	case cfg.State.File != "":
		fileStore, err := filestore.Open(cfg.State.File)
		if err != nil {
			return err
		}
		store = fileStore
		log.Printf("state backend: file %s", cfg.State.File)
	default:
		store = memory.NewStateStore()
		log.Printf("state backend: memory (preferences will not survive restarts)")
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		sessions = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	settings, err := app.NewSettingsModel(ctx, store)
	if err != nil {
		return err
	}
	theme, err := app.NewThemeService(ctx, store)
	if err != nil {
		return err
	}

	service := app.NewQuizService(sessions, store, settings, theme)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting fastquiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-stop:
			log.Println("shutting down server...")
		case <-ctx.Done():
			log.Println("context canceled, shutting down server...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
