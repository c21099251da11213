package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/oprema/internal/api"
)

func (a *app) serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := a.cfg.HTTP.Addr
	fs.StringVar(&addr, "addr", addr, "listen address")
	fs.StringVar(&addr, "a", addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var opts api.Options
	if a.cfg.Metrics.Enabled {
		opts.Metrics = api.NewMetrics()
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(a.svc, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()
	slog.Info("server started", "addr", addr, "metrics", a.cfg.Metrics.Enabled)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-errc

	slog.Info("server stopped, closing stores")
	return nil
}
