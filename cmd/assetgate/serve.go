package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/assetgate"
	"github.com/sagarc03/assetgate/bucket"
	"github.com/sagarc03/assetgate/config"
	"github.com/sagarc03/assetgate/diagnostic"
	"github.com/sagarc03/assetgate/filesystem"
	gatehttp "github.com/sagarc03/assetgate/http"
	"github.com/sagarc03/assetgate/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the assetgate HTTP server and, when enabled, the metrics listener.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8787, "HTTP server port (env: ASSETGATE_SERVER_PORT)")
	serveCmd.Flags().String("backend", "filesystem", "object store backend: filesystem, bucket (env: ASSETGATE_STORAGE_BACKEND)")
	serveCmd.Flags().String("storage-path", "./assets", "asset directory for the filesystem backend (env: ASSETGATE_STORAGE_PATH)")
	serveCmd.Flags().String("bucket", "", "bucket name for the bucket backend (env: ASSETGATE_STORAGE_BUCKET_NAME)")
	serveCmd.Flags().String("endpoint", "", "S3-compatible endpoint URL (env: ASSETGATE_STORAGE_BUCKET_ENDPOINT)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	handler := newHandler(cfg, store, os.Stdout, m)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  seconds(cfg.Server.ReadTimeout),
		WriteTimeout: seconds(cfg.Server.WriteTimeout),
		IdleTimeout:  seconds(cfg.Server.IdleTimeout),
	}

	var metricsServer *http.Server
	if m != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			slog.Info("starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), seconds(cfg.Server.ShutdownTimeout))
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "err", err)
			}
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "backend", cfg.Storage.Backend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// newHandler wires diagnostics, metrics and the access log around store.
// Diagnostic events are written as JSON lines to diagnostics regardless of
// the human log format.
func newHandler(cfg *config.Config, store assetgate.ObjectStore, diagnostics io.Writer, m *metrics.Metrics) *gatehttp.Handler {
	sinks := diagnostic.MultiSink{diagnostic.NewJSONSink(diagnostics)}

	handlerConfig := gatehttp.HandlerConfig{
		Diagnostics: diagnostic.Config{
			Thresholds:     cfg.Diagnostics.Thresholds(),
			ClientIPHeader: cfg.Request.ClientIPHeader,
			CountryHeader:  cfg.Request.CountryHeader,
		},
		CORS:         cfg.CORS,
		AccessLogger: slog.Default(),
	}

	if m != nil {
		sinks = append(sinks, m)
		handlerConfig.Recorder = m
	}
	handlerConfig.Diagnostics.Sink = sinks

	return gatehttp.NewHandler(&handlerConfig, store)
}

// openStore builds the configured object store. The returned func releases
// its resources.
func openStore(ctx context.Context, cfg config.StorageConfig) (assetgate.ObjectStore, func(), error) {
	switch cfg.Backend {
	case "bucket":
		client, err := bucket.NewClient(ctx, cfg.Bucket)
		if err != nil {
			return nil, nil, fmt.Errorf("create bucket client: %w", err)
		}
		slog.Info("using bucket storage", "bucket", cfg.Bucket.Name, "endpoint", cfg.Bucket.Endpoint)
		return bucket.NewStore(client, cfg.Bucket.Name), func() {}, nil
	case "filesystem":
		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}
		slog.Info("using filesystem storage", "path", cfg.Path)
		return filesystem.NewFileStorage(root), func() { _ = root.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
