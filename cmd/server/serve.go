package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Brownie44l1/angle-api/internal/config"
	"github.com/Brownie44l1/angle-api/internal/handlers"
	"github.com/Brownie44l1/angle-api/internal/model"
	"github.com/Brownie44l1/angle-api/internal/response"
	"github.com/Brownie44l1/angle-api/internal/samples"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port       int
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the model and start the HTTP server",
		Long: `Downloads the model artifact if it is not cached, loads it, and only then
starts listening. A model that cannot be loaded stops the process.`,
		Example: `  # Start on the configured port (8080 unless PORT is set)
  angle-api serve

  # Custom port and config file
  angle-api serve --port 3000 --config angle-api.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv("CONFIG_FILE")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			client := &http.Client{Timeout: cfg.HTTPTimeout}

			modelServer, err := loadModel(cmd.Context(), cfg, client)
			if err != nil {
				return err
			}
			defer modelServer.Close()

			picker, err := samples.NewPicker(cfg.Samples, nil)
			if err != nil {
				return err
			}

			handler := handlers.NewHandler(handlers.Options{
				Classifier: modelServer,
				Samples:    picker,
				Live:       samples.NewLiveSource(cfg.LiveCaptureURL, cfg.LiveFramePath, client),
				Formatter:  response.NewFormatter(cfg.ImageBaseURL),
				IndexPath:  cfg.IndexPath,
				StaticDir:  cfg.StaticDir,
			})

			addr := ":" + strconv.Itoa(cfg.Port)
			return listen(cmd.Context(), addr, handler.Routes())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on (overrides PORT)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $CONFIG_FILE)")

	return cmd
}

// loadModel runs the one-time initialization phase under the startup timeout.
func loadModel(ctx context.Context, cfg *config.Config, client *http.Client) (*model.Server, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.StartupTimeout)
	defer cancel()

	start := time.Now()
	modelServer, err := model.Load(ctx, model.LoadConfig{
		ArtifactURL:       cfg.ArtifactURL,
		ArtifactPath:      cfg.ArtifactPath,
		MetadataPath:      cfg.MetadataPath,
		SharedLibraryPath: cfg.OnnxLibrary,
	}, client)
	if err != nil {
		var incompatible *model.IncompatibleRuntimeError
		if errors.As(err, &incompatible) {
			slog.Error("Model cannot run on this machine", "err", incompatible.Err)
			fmt.Fprintln(os.Stderr, "\n"+incompatible.Guidance+"\n")
		}
		return nil, fmt.Errorf("failed to initialize model: %w", err)
	}

	slog.Info("Model ready", "path", cfg.ArtifactPath, "classes", modelServer.Metadata.Classes, "took", time.Since(start))
	return modelServer, nil
}

func listen(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", addr, "url", "http://localhost"+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "err", err)
			return err
		}
		slog.Info("Server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
