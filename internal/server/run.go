// Package server boots the chat history HTTP service.
package server

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/chatfold/chatfold/internal/api"
	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/config"
	"github.com/chatfold/chatfold/internal/loader"
	"github.com/chatfold/chatfold/internal/loader/telegram"
	"github.com/chatfold/chatfold/internal/loader/tinder"
	"github.com/chatfold/chatfold/internal/loader/whatsapp"
	"github.com/chatfold/chatfold/internal/logger"
	"github.com/chatfold/chatfold/internal/registry"
)

// Run starts the chat history service HTTP server and blocks until shutdown
// or error.
func Run() error {
	log := logger.New("chatfold")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	logger.SetGlobalLevel(cfg.LogLevel)

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Str("chooser_url", cfg.ChooserURL).
		Msg("Chat history service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	// Build router over the loader front, the dataset registry and the
	// remote identity chooser
	router := buildRouter(cfg, log)

	// HTTP server and serve
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter constructs the service dependencies and wires HTTP routes.
// All loaders are registered; Telegram first since its detection is the
// cheapest, the SQLite formats after it.
func buildRouter(cfg *config.Config, log zerolog.Logger) *mux.Router {
	front := loader.NewFront(log,
		telegram.New(),
		whatsapp.New(),
		tinder.New(loader.NewHTTPClient(time.Duration(cfg.HTTPClientTimeoutSec)*time.Second)),
	)
	reg := registry.New(log)
	ch := chooser.NewRemote(cfg.ChooserURL, time.Duration(cfg.ChooserTimeoutSec)*time.Second, log)
	return api.NewRouter(log, cfg, front, reg, ch)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on
// SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
