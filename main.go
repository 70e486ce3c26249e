package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ridecircle/backend/chat"
	"github.com/ridecircle/backend/location"
	"github.com/ridecircle/backend/logger"
	"github.com/ridecircle/backend/session"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "ridecircle",
	Short: "RideCircle commute matching backend",
	Long: `RideCircle matches commuters travelling the same route, answers
questions on behalf of their profiles and keeps a profile per session.
Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./ridecircle.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newCompleter returns nil when no API key is configured, so the responder
// answers from the fallback templates only.
func newCompleter(cfg Config) chat.Completer {
	c, err := chat.NewOpenAICompleter(chat.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.CompletionTimeout,
		RPS:     cfg.CompletionRPS,
		Burst:   cfg.CompletionBurst,
	})
	if errors.Is(err, chat.ErrNoCredential) {
		log.Warn().Msg("OPENAI_API_KEY not set, chat answers come from templates")
		return nil
	} else if err != nil {
		log.Error().Err(err).Msg("completion client disabled")
		return nil
	}
	return c
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, cfg.development())

	jwtSecret = []byte(cfg.JWTSecret)
	if cfg.SessionTTL > 0 {
		tokenMaxAge = cfg.SessionTTL
	}
	if cfg.JWTSecret == devJWTSecret && !cfg.development() {
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	reg := location.Default()
	dir, closeDir, err := openDirectory(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer closeDir()

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	a := &app{
		registry:  reg,
		directory: dir,
		sessions:  session.NewManager(store, dir),
		responder: chat.NewResponder(newCompleter(cfg)),
		hub:       newHub(),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.routes(cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.GoEnv).Msg("Starting RideCircle backend")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	log.Info().Msg("Server stopped")
	return nil
}
