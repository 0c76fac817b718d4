// cmd/api/server.go
// This file contains the serve() method which starts the HTTP server and
// handles graceful shutdown when an OS signal is received.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// serve runs the API until SIGINT or SIGTERM, then drains in-flight requests
// for up to 20 seconds. Background goroutines are stopped and pending spans
// flushed on every return path.
func (app *applicationDependencies) serve() error {
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	shutdownErr := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		s := <-quit
		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		shutdownErr <- app.shutdown(ctx, apiServer)
	}()

	app.logger.Info("starting server", "address", apiServer.Addr, "environment", app.config.environment, "store", app.config.store)

	// ErrServerClosed is the normal result of Shutdown being called.
	err := apiServer.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.release(ctx)
		return err
	}

	err = <-shutdownErr
	if err != nil {
		return err
	}

	app.logger.Info("server stopped", "address", apiServer.Addr)
	return nil
}

// shutdown stops srv from accepting connections, waits for active requests
// within ctx, then releases the application's background resources.
func (app *applicationDependencies) shutdown(ctx context.Context, srv *http.Server) error {
	err := srv.Shutdown(ctx)
	app.release(ctx)
	return err
}

// release ends the rate limiter's cleanup goroutine and flushes traces.
// Calls after the first do nothing.
func (app *applicationDependencies) release(ctx context.Context) {
	app.releaseOnce.Do(func() {
		if app.stop != nil {
			close(app.stop)
		}
		if app.flushTraces != nil {
			if err := app.flushTraces(ctx); err != nil {
				app.logger.Error("failed to flush traces", "error", err)
			}
		}
	})
}
