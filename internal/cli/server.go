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

	"trivia-session-service/internal/app"
	"trivia-session-service/internal/config"
	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/infra/memory"
	pgloader "trivia-session-service/internal/infra/postgres"
	redisinfra "trivia-session-service/internal/infra/redis"
	transport "trivia-session-service/internal/transport/http"
)

const defaultChatBacklog = 50

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia session server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, questionTTL)
	}

	backlog := cfg.Chat.HistoryLimit
	if backlog <= 0 {
		backlog = defaultChatBacklog
	}
	var chatStore app.MessageStore
	if redisClient != nil {
		chatStore = redisinfra.NewChatStore(redisClient, backlog)
	} else {
		chatStore = memory.NewChatStore(backlog)
	}

	tokens := make(map[string]domain.Identity, len(cfg.Auth.Tokens))
	for token, id := range cfg.Auth.Tokens {
		tokens[token] = domain.Identity{UserID: id.UserID, Nickname: id.Nickname}
	}
	authenticator := app.NewStaticAuthenticator(tokens)

	prepare := config.Seconds(cfg.Game.PrepareSeconds, app.DefaultPrepareSeconds*time.Second)
	answer := config.Seconds(cfg.Game.AnswerSeconds, app.DefaultAnswerSeconds*time.Second)

	defaultSet := cfg.Questions.DefaultSet
	if defaultSet == "" {
		defaultSet = "general"
	}

	conns := transport.NewConnRegistry()
	registry := app.NewRegistry(app.NewTimerScheduler(), conns, prepare, answer)
	dispatcher := app.NewDispatcher(registry, questionRepo, defaultSet, conns)
	chat := app.NewChatService(chatStore, conns, backlog)
	wsHandler := transport.NewWSHandler(dispatcher, chat, authenticator, conns)

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

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
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

// sampleQuestionSets backs the service when no database is configured.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"general": {
			ID: "general",
			Questions: []domain.Question{
				{
					Text:               "Which of these planets is known as the 'Red Planet'?",
					Options:            []string{"Venus", "Mars", "Jupiter", "Saturn"},
					CorrectAnswerIndex: 1,
				},
				{
					Text:               "What is the largest ocean on Earth?",
					Options:            []string{"Atlantic", "Indian", "Arctic", "Pacific"},
					CorrectAnswerIndex: 3,
				},
				{
					Text:               "What is the capital of Australia?",
					Options:            []string{"Sydney", "Melbourne", "Canberra", "Perth"},
					CorrectAnswerIndex: 2,
				},
			},
		},
	}
}
