// Command menagerie serves the animals API over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"menagerie/internal/adapters/animals"
	"menagerie/internal/config"
	"menagerie/internal/core"
	"menagerie/internal/logging"
	"menagerie/internal/observability"
	"menagerie/pkg/domain"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newCommand(config.NewFlags(), stdout, stderr)
	if err := cmd.Run(ctx, args); err != nil {
		_, _ = fmt.Fprintf(stderr, "menagerie: %v\n", err)
		return 1
	}
	return 0
}

func newCommand(flags *config.Flags, stdout, stderr io.Writer) *cli.Command {
	serveAction := func(ctx context.Context, c *cli.Command) error {
		cfg, logger, err := setup(c, flags, stderr)
		if err != nil {
			return err
		}
		return serve(logging.With(ctx, logger), cfg, logger, nil)
	}
	return &cli.Command{
		Name:      "menagerie",
		Usage:     "Animals HTTP service",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     flags.CLIFlags(),
		Action:    serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Load the collection and serve the HTTP API (default)",
				Action: serveAction,
			},
			{
				Name:  "dump",
				Usage: "Print the stored animals document",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, logger, err := setup(c, flags, stderr)
					if err != nil {
						return err
					}
					return dump(logging.With(ctx, logger), cfg, stdout)
				},
			},
		},
	}
}

func setup(c *cli.Command, flags *config.Flags, stderr io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := flags.Resolve(c)
	if err != nil {
		return cfg, nil, goerr.Wrap(err, "invalid configuration")
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	logging.SetDefault(logger)
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg config.Config, metrics core.MetricsRecorder) (*core.Store, error) {
	persister, err := core.OpenPersister(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open storage", goerr.V("driver", cfg.Storage.Driver))
	}
	store := core.NewStore(persister,
		core.WithValidator(core.NewValidator(cfg.Policy())),
		core.WithMetrics(metrics),
		core.WithSeed(cfg.Storage.Seed),
	)
	if err := store.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// serve runs the HTTP server until ctx is cancelled. ready, when set, receives
// the bound address once the listener is open.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger, ready func(net.Addr)) error {
	metrics := observability.NewMetrics()
	store, err := openStore(ctx, cfg, metrics)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close storage", "error", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Handler:           animals.NewRouter(store, animals.Options{Logger: logger, Metrics: metrics}),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return logging.With(context.Background(), logger) },
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return goerr.Wrap(err, "failed to listen", goerr.V("addr", cfg.Addr()))
	}
	logger.Info("listening",
		"addr", ln.Addr().String(),
		"port", ln.Addr().(*net.TCPAddr).Port,
		"driver", store.Driver(),
		"animals", store.Len())
	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return goerr.Wrap(err, "server stopped")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "graceful shutdown failed")
	}
	return nil
}

func dump(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	store, err := openStore(ctx, cfg, core.NoopMetrics{})
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	data, err := domain.MarshalDocument(store.List(ctx))
	if err != nil {
		return goerr.Wrap(err, "failed to encode document")
	}
	if _, err := stdout.Write(append(data, '\n')); err != nil {
		return goerr.Wrap(err, "failed to write document")
	}
	return nil
}
