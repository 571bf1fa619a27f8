package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/photobooth/internal/codec"
	"github.com/kozaktomas/photobooth/internal/collage"
	"github.com/kozaktomas/photobooth/internal/config"
	"github.com/kozaktomas/photobooth/internal/filter"
	"github.com/kozaktomas/photobooth/internal/loader"
	"github.com/kozaktomas/photobooth/internal/logger"
	"github.com/kozaktomas/photobooth/internal/session"
	"github.com/kozaktomas/photobooth/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the photobooth web server.
The web server serves the booth UI and the session API used to capture photos,
edit them and build, download and print collages.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default $WEB_PORT or 8080)")
	serveCmd.Flags().String("host", "", "Host to bind to (default $WEB_HOST or 0.0.0.0)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (default $WEB_SESSION_SECRET)")
}

// applyServeFlags lets explicit flags override the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Web.SessionSecret = secret
	}
}

// newStore wires the loader, filter renderer and compositor into a session store.
func newStore(cfg *config.Config, log *zap.Logger) (*session.Store, error) {
	format, err := codec.ParseFormat(cfg.Collage.Format)
	if err != nil {
		return nil, err
	}

	dec := loader.New(cfg.Loader.Timeout, cfg.Loader.MaxBytes)
	renderer := filter.NewRenderer(dec, codec.PNG, cfg.Collage.Quality)
	compositor := collage.NewCompositor(dec,
		collage.WithEncoding(format, cfg.Collage.Quality),
		collage.WithLogger(log.Named("collage")))

	return session.NewStore(dec, renderer, compositor,
		session.WithMaxPhotos(cfg.Booth.MaxPhotos),
		session.WithLogger(log.Named("session"))), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyServeFlags(cmd, cfg)

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := newStore(cfg, log)
	if err != nil {
		return err
	}

	server := web.NewServer(cfg, store, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	fmt.Printf("Starting Photobooth on http://%s\n", cfg.Web.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
