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

	"github.com/alecthomas/kong"

	"github.com/askimmigrate/askimmigrate/src/httpapi"
	"github.com/askimmigrate/askimmigrate/src/observability"
)

// ServeCmd runs the HTTP API server
type ServeCmd struct {
	Addr string `help:"Listen address (defaults to config)"`
}

// Run executes the serve command
func (c *ServeCmd) Run(ctx *kong.Context, cli *CLI) error {
	a, err := loadApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := c.Addr
	if addr == "" {
		addr = a.Config.Server.Addr
	}

	metrics := observability.NewMetrics("askimmigrate")
	api := httpapi.New(a.Sessions, a.Answerer, metrics, a.Logger)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		a.Logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
