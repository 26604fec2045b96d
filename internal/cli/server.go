package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"watchask/internal/app"
	"watchask/internal/captions"
	"watchask/internal/config"
	"watchask/internal/infra/memory"
	pgarchive "watchask/internal/infra/postgres"
	redisinfra "watchask/internal/infra/redis"
	"watchask/internal/quizgen"
	transport "watchask/internal/transport/http"
)

const defaultGeminiModel = "gemini-2.5-flash-lite"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	loader := newQuizLoader(ctx, cfg, pool)

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, time.Hour)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionStore
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewQuizService(store, quizRepo)
	handler := transport.NewHandler(service)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // quiz builds wait on captions + generation
	}

	go func() {
		log.Printf("starting watchask on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

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
}

// newQuizLoader assembles the build pipeline: caption resolver, question
// generator, and the optional Postgres archive in front of it.
func newQuizLoader(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) memory.QuizLoader {
	resolver := newResolver(cfg)

	var generator quizgen.Generator = quizgen.Disabled{}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		model := config.Env("GEMINI_MODEL", cfg.Gemini.Model)
		if model == "" {
			model = defaultGeminiModel
		}
		g, err := quizgen.NewGeminiGenerator(ctx, apiKey, model, config.TTLDuration(cfg.Gemini.Timeout, time.Minute))
		if err != nil {
			log.Printf("gemini unavailable, using fallback synthesis only: %v", err)
		} else {
			log.Printf("question generation via gemini model %s", model)
			generator = g
		}
	} else {
		log.Printf("GEMINI_API_KEY not set; questions come from fallback synthesis only")
	}

	var loader memory.QuizLoader = quizgen.NewLoader(resolver, quizgen.NewAssembler(generator))
	if pool != nil {
		loader = pgarchive.NewArchivingLoader(pgarchive.NewQuizArchive(pool), loader)
	}
	return loader
}

func newResolver(cfg config.Config) *captions.Resolver {
	client := &http.Client{Timeout: 30 * time.Second}
	sources := []captions.Source{
		captions.NewTimedTextSource(client),
		captions.NewYtDlpSource(client, cfg.Captions.YtDlpPath, os.Getenv(captions.CookiesEnv)),
	}
	return captions.NewResolver(sources, cfg.Captions.Languages)
}
