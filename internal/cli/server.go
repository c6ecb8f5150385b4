package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pathfinder-service/internal/adaptive"
	"pathfinder-service/internal/app"
	"pathfinder-service/internal/auth"
	"pathfinder-service/internal/cat"
	"pathfinder-service/internal/config"
	"pathfinder-service/internal/inference"
	"pathfinder-service/internal/infra/memory"
	"pathfinder-service/internal/recommend"
	transport "pathfinder-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
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

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	handler, err := buildHandler(ctx, cfg, b)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting assessment service on :%s", finalPort)
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

func buildHandler(ctx context.Context, cfg config.Config, b *backends) (http.Handler, error) {
	store, err := b.questionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cache := b.itemCache(store, config.Duration(cfg.Content.TTL, 10*time.Minute))
	questions := app.NewQuestionService(store, cache)

	var content app.ContentSource = cache
	if cfg.Content.Source == config.ContentStatic {
		content = memory.NewStaticItems(memory.DefaultBank())
	}

	engine := cat.NewEngine(content, b.sessionStore(config.Duration(cfg.Redis.TTL, 2*time.Hour)))
	recommender := recommend.NewService(cfg.Recommend.OnetAPIKey, cfg.Recommend.OnetBaseURL, 0)

	deps := app.AssessmentDeps{
		Content:     content,
		Adaptive:    engine,
		Sessions:    engine,
		Results:     app.NewResults(recommender),
		ItemTimeout: config.Duration(cfg.Assessment.ItemTimeout, app.DefaultItemTimeout),
		Game:        gameConfig(cfg),
	}
	if cfg.Adaptive.BaseURL != "" {
		client := adaptive.NewClient(cfg.Adaptive.BaseURL, config.Duration(cfg.Adaptive.Timeout, 10*time.Second))
		deps.Adaptive = client
		deps.Sessions = client
		deps.Results = app.NewResults(client)
		log.Printf("using remote adaptive service at %s", cfg.Adaptive.BaseURL)
	}

	wsCfg := transport.WSConfig{
		Deps:           deps,
		Media:          memory.NewMediaStore(config.Duration(cfg.Assessment.MediaTTL, memory.DefaultMediaTTL)),
		CaptureTimeout: config.Duration(cfg.Assessment.CaptureTimeout, app.DefaultCaptureTimeout),
	}
	if cfg.Inference.Token != "" || cfg.Inference.SentimentURL != "" || cfg.Inference.TranscribeURL != "" {
		hf := inference.NewClient(inference.Config{
			Token:         cfg.Inference.Token,
			SentimentURL:  cfg.Inference.SentimentURL,
			TranscribeURL: cfg.Inference.TranscribeURL,
			Timeout:       config.Duration(cfg.Inference.Timeout, 30*time.Second),
		})
		wsCfg.Transcriber = hf
		wsCfg.Sentiment = hf
	}

	authSvc := auth.NewService(auth.Config{
		Username: cfg.Auth.AdminUsername,
		Password: cfg.Auth.AdminPassword,
		Secret:   cfg.Auth.JWTSecret,
		TTL:      config.Duration(cfg.Auth.TokenTTL, 12*time.Hour),
	})
	if !authSvc.Enabled() {
		log.Printf("auth.jwt_secret is empty, admin console is disabled")
	}

	return transport.NewRouter(transport.Routes{
		Adaptive:    transport.NewAdaptiveHandler(engine, recommender),
		Admin:       transport.NewAdminHandler(authSvc, questions),
		Media:       transport.NewMediaHandler(wsCfg.Media),
		Assessments: transport.NewWSHandler(wsCfg),
	}), nil
}

func gameConfig(cfg config.Config) app.GameConfig {
	game := app.DefaultGameConfig()
	game.TimeLimit = config.Duration(cfg.Assessment.GameTimeLimit, game.TimeLimit)
	if cfg.Assessment.GameMaxAttempts > 0 {
		game.MaxAttempts = cfg.Assessment.GameMaxAttempts
	}
	return game
}
