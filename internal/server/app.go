// Package server provides a graceful-shutdown HTTP process bootstrap,
// adapted from the teacher's App (go-mizu-mizu's app.go), generalized to
// host any http.Handler instead of the teacher's own Router — request
// routing/dispatch is out of this module's scope.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// App wraps an http.Server with graceful shutdown: SIGINT/SIGTERM trigers
// a pre-shutdown delay (to let load balancers drain in-flight traffic
// away), then Shutdown with a bounded timeout, falling back to a hard
// Close if the timeout is exceeded.
type App struct {
	handler http.Handler
	logger  *slog.Logger

	preShutdownDelay time.Duration
	shutdownTimeout  time.Duration

	shuttingDown atomic.Bool
	srv          *http.Server
}

// AppOption configures an App at construction time.
type AppOption func(*App)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) { a.logger = logger }
}

// WithPreShutdownDelay sets how long HealthzHandler reports unhealthy
// before Shutdown is actually invoked on the underlying server.
func WithPreShutdownDelay(d time.Duration) AppOption {
	return func(a *App) { a.preShutdownDelay = d }
}

// WithShutdownTimeout bounds how long graceful Shutdown waits for
// in-flight requests before falling back to Close.
func WithShutdownTimeout(d time.Duration) AppOption {
	return func(a *App) { a.shutdownTimeout = d }
}

// New constructs an App serving handler.
func New(handler http.Handler, opts ...AppOption) *App {
	a := &App{
		handler:         handler,
		logger:          slog.Default(),
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the App's configured logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// HealthzHandler reports 200 while serving and 503 once shutdown has
// begun, so a load balancer stops routing new traffic here.
func (a *App) HealthzHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.shuttingDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

// Listen starts serving on addr and blocks until ctx is canceled. It
// installs no signal handling of its own; ServeWithSignals does.
func (a *App) Listen(ctx context.Context, addr string) error {
	a.srv = &http.Server{Addr: addr, Handler: a.handler}
	return a.ServeContext(ctx)
}

// ServeContext runs the server until ctx is canceled, then drains via
// Shutdown within shutdownTimeout, falling back to Close if that expires.
func (a *App) ServeContext(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.shuttingDown.Store(true)
	if a.preShutdownDelay > 0 {
		time.Sleep(a.preShutdownDelay)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("graceful shutdown timed out, forcing close", "error", err)
		return a.srv.Close()
	}
	return nil
}

// ServeWithSignals runs Listen against an OS-signal-driven context,
// delegating to the build-tag-specific signal wiring.
func (a *App) ServeWithSignals(addr string) error {
	ctx := signalContext()
	return a.Listen(ctx, addr)
}
