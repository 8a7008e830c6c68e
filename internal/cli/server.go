package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/config"
	transport "exceltoquiz/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	d, err := loadDeps(configPath)
	if err != nil {
		return err
	}

	if d.cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, d.cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = d.cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	s, err := openStores(ctx, d.cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	tick := config.TTLDuration(d.cfg.Session.Tick, app.DefaultTickInterval)
	router := transport.NewRouter(transport.Services{
		Author:      d.authorService(s),
		Take:        d.takeService(s, tick),
		Leaderboard: app.NewLeaderboardService(d.client),
		Contact:     app.NewContactService(d.client),
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting exceltoquiz on :%s", finalPort)
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
