// Package app wires configuration, logging, the loader and its observers,
// and runs FriendBook either once in the terminal or as an HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/junkliveoz/FriendBook/internal/config"
	"github.com/junkliveoz/FriendBook/internal/fetcher"
	"github.com/junkliveoz/FriendBook/internal/ipchecker"
	"github.com/junkliveoz/FriendBook/internal/loader"
	"github.com/junkliveoz/FriendBook/internal/logger"
	"github.com/junkliveoz/FriendBook/internal/metrics"
	"github.com/junkliveoz/FriendBook/internal/refresher"
	"github.com/junkliveoz/FriendBook/internal/router"
	"github.com/junkliveoz/FriendBook/internal/view"
)

const (
	shutdownTimeout      = 10 * time.Second
	refresherErrorsQueue = 16
)

// App holds everything needed to run FriendBook.
type App struct {
	cfg         *config.Config
	loader      *loader.Loader
	metrics     *metrics.Metrics
	refresher   *refresher.Refresher
	httpHandler http.Handler
	out         io.Writer
}

// New initializes an App by:
// - loading configuration
// - initializing logger
// - building the fetcher and the loader
// - in serve mode, setting up metrics, the refresher and the router
func New(configOptions ...config.InitOption) (*App, error) {
	var err error
	app := &App{out: os.Stdout}

	app.cfg, err = config.New(configOptions...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.metrics = metrics.New()
	app.loader = loader.New(
		app.cfg.EndpointURL,
		fetcher.New(fetcher.WithTimeout(app.cfg.RequestTimeout)),
		loader.WithRecorder(app.metrics),
	)

	if !app.cfg.ServeMode() {
		return app, nil
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.refresher = refresher.New(app.loader, app.cfg.RefreshInterval, refresherErrorsQueue)
	app.httpHandler = router.New(
		app.loader,
		router.WithMetrics(app.metrics),
		router.WithIPChecker(checker),
	)

	return app, nil
}

// Run blocks until the work is done: a single load in the default mode, or
// a termination signal in serve mode.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.ServeMode() {
		return a.serve(ctx)
	}

	return a.runOnce(ctx)
}

// runOnce loads and prints the screen. The load error is returned after
// the screen, which already shows the message, has been printed.
func (a *App) runOnce(ctx context.Context) error {
	logger.Log.Infoln("loading users", "endpoint", a.cfg.EndpointURL)

	loadErr := a.loader.Load(ctx)

	if err := view.Render(a.out, a.loader.State()); err != nil {
		return fmt.Errorf("rendering users: %w", err)
	}

	return loadErr
}

func (a *App) serve(ctx context.Context) error {
	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr, "endpoint", a.cfg.EndpointURL)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	go func() {
		if err := a.loader.Load(ctx); err != nil {
			logger.Log.Warnln("initial load failed", "error", err)
		}
	}()

	a.refresher.Run(ctx)
	a.refresher.ListenErrors(func(err error) {
		logger.Log.Warnln("periodic reload failed", "error", err)
	})

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal, stopping the server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		<-a.refresher.Done()

		return nil

	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
