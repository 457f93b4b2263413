package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/studyaid/internal/audit"
	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/flashcards"
	"github.com/ziadkadry99/studyaid/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the studyaid HTTP server",
	Long:  `Starts the studyaid server: the JSON API used by the web client, the server-rendered study pages and their websocket sessions.`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = serverPort
	}

	log, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	analyzer, err := createAnalyzerFromConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}

	deps := server.Deps{
		DB:         a.db,
		Sessions:   auth.NewSessions(cfg.SessionSecret, time.Duration(cfg.SessionTTLHours)*time.Hour, cfg.Production),
		Users:      a.users,
		Materials:  a.materials,
		Index:      a.index,
		Flashcards: flashcards.NewStore(a.db),
		Analyzer:   analyzer,
		Activity:   audit.NewStore(a.db),
	}
	if cfg.GoogleConfigured() {
		deps.Identity = auth.NewGoogleIdentity(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL)
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set; sign-in is disabled")
	}

	srv := server.New(server.Config{Port: cfg.Port, ClientURL: cfg.ClientURL}, deps, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info().
		Str("version", Version).
		Int("port", cfg.Port).
		Str("data_dir", cfg.DataDir).
		Str("provider", string(cfg.Provider)).
		Bool("search", a.index != nil).
		Msg("studyaid server starting")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}

	a.persistVectors(context.Background())
	return nil
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 3001, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
