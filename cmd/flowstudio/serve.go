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

	flowhttp "github.com/aretw0/flowstudio/pkg/adapters/http"
	"github.com/aretw0/flowstudio/pkg/sanitize"
	"github.com/aretw0/flowstudio/pkg/simulate"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the development flow backend",
	Long: `Starts a local flow backend implementing the REST surface (flows, credentials,
components, triggers, chat) and a dry-run executor over WebSocket.
Data lives in memory unless a redis backend is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &app.Config.Serve
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("backend") {
			cfg.Backend, _ = cmd.Flags().GetString("backend")
		}
		if cmd.Flags().Changed("redis-addr") {
			cfg.Redis.Addr, _ = cmd.Flags().GetString("redis-addr")
		}
		if cmd.Flags().Changed("public-url") {
			cfg.PublicURL, _ = cmd.Flags().GetString("public-url")
		}
		if cmd.Flags().Changed("encryption-key") {
			cfg.EncryptionKey, _ = cmd.Flags().GetString("encryption-key")
		}
		if err := app.Config.Validate(); err != nil {
			return err
		}

		ctx := context.Background()
		backend, err := app.OpenBackend(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		opts := []flowhttp.Option{
			flowhttp.WithLocker(backend.Locker),
			flowhttp.WithBackendName(backend.Name),
			flowhttp.WithPublicURL(cfg.PublicURL),
			flowhttp.WithAllowedOrigins(cfg.AllowedOrigins...),
			flowhttp.WithSanitizer(sanitize.New(app.SanitizerOptions()...)),
			flowhttp.WithSimulator(simulate.New(simulate.WithLogger(app.Logger))),
			flowhttp.WithLogger(app.Logger),
		}
		if withMetrics, _ := cmd.Flags().GetBool("metrics"); withMetrics {
			opts = append(opts, flowhttp.WithMetrics(app.Metrics))
		}

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           flowhttp.NewHandler(backend.Repo, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			app.Logger.Info("flow backend listening", "addr", srv.Addr, "backend", backend.Name)
			fmt.Printf("Starting Flowstudio backend on %s (%s)\n", srv.Addr, backend.Name)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", shutdownTimeout, err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			fmt.Println("Flowstudio backend stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8000", "Address to listen on")
	serveCmd.Flags().String("backend", "memory", "Repository backend: memory or redis")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (redis backend)")
	serveCmd.Flags().String("public-url", "http://localhost:8000", "Base URL advertised in webhook URLs")
	serveCmd.Flags().String("encryption-key", "", "Base64 AES-256 key encrypting credential data at rest")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}
