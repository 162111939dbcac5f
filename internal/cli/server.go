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

	"ranking-session-service/internal/app"
	"ranking-session-service/internal/config"
	"ranking-session-service/internal/domain"
	"ranking-session-service/internal/infra/memory"
	pginfra "ranking-session-service/internal/infra/postgres"
	redisinfra "ranking-session-service/internal/infra/redis"
	"ranking-session-service/internal/infra/scoring"
	transport "ranking-session-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the session server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	var catalog app.Catalog
	if redisClient != nil {
		catalog = redisinfra.NewCatalog(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalog(loader, catalogTTL)
	}

	var scores app.ScoreStore
	if pool != nil {
		scores = pginfra.NewScoreStore(pool)
	} else {
		scores = memory.NewScoreStore()
	}
	if redisClient != nil {
		scores = redisinfra.NewScoreCache(redisClient, scores, redisTTL)
	}

	var attempts app.AttemptRepository
	if redisClient != nil {
		attempts = redisinfra.NewAttemptStore(redisClient, redisTTL)
	} else {
		attempts = memory.NewAttemptStore()
	}

	var grader app.Submitter
	if cfg.Grader.URL != "" {
		grader = scoring.NewHTTPGrader(cfg.Grader.URL, nil)
	} else {
		flat := cfg.Grader.FlatScore
		if flat == 0 {
			flat = 75
		}
		grader = scoring.FlatGrader{Score: flat}
	}

	service := app.NewSessionService(attempts, catalog, scores, grader)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	transport.NewAPIHandler(service).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting session service on :%s", finalPort)
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

// sampleQuizzes seeds the in-memory catalog when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"supply-chain-101": {
			ID:           "supply-chain-101",
			Title:        "Supply Chain Triage",
			Description:  "Prioritize the interventions that keep freight moving.",
			Preface:      "A storm has closed two regional hubs. Every decision trades speed against cost.",
			Course:       "OPS-210",
			PassingScore: 60,
			Difficulty:   "Medium",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "Rank the interventions by expected impact this week",
					Options: []domain.Option{
						{Text: "Reroute freight through the southern corridor"},
						{Text: "Lease short-term warehouse overflow"},
						{Text: "Air-freight the highest-margin orders"},
						{Text: "Renegotiate carrier SLAs"},
					},
					Constraints: []domain.ConstraintPoint{
						{Text: "The budget covers at most two initiatives"},
						{Text: "Customer SLAs allow 48 hours of slack"},
					},
				},
				{
					ID:     "q2",
					Prompt: "Rank the stakeholders to brief first",
					Options: []domain.Option{
						{Text: "Key account managers"},
						{Text: "Regional carriers"},
						{Text: "Warehouse leads"},
					},
					Constraints: []domain.ConstraintPoint{
						{Text: "Carriers need 24 hours notice for route changes"},
					},
				},
			},
		},
	}
}
