package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
)

// ReloadFunc re-reads configuration on SIGHUP.
type ReloadFunc func() error

// GracefulServer wraps an HTTP server with signal-driven graceful
// shutdown: in-flight requests drain within the shutdown timeout.
type GracefulServer struct {
	server          *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration
	shutdownCh      chan struct{}
	shutdownOnce    sync.Once

	reloadMu sync.RWMutex
	reloadFn ReloadFunc
}

// GracefulOptions configures a GracefulServer.
type GracefulOptions struct {
	Addr            string
	Handler         http.Handler
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          logging.Logger
}

// NewGracefulServer builds the wrapped HTTP server.
func NewGracefulServer(opts GracefulOptions) *GracefulServer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:           opts.Addr,
			Handler:        opts.Handler,
			ReadTimeout:    opts.ReadTimeout,
			WriteTimeout:   opts.WriteTimeout,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		logger:          logger.With(logging.Component("http-server")),
		shutdownTimeout: opts.ShutdownTimeout,
		shutdownCh:      make(chan struct{}),
	}
}

// Start serves until shut down. Blocks; returns nil on clean shutdown.
func (gs *GracefulServer) Start() error {
	go gs.handleSignals()

	gs.logger.Info("server listening", logging.String("addr", gs.server.Addr))
	if err := gs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains connections within the configured timeout. Safe to call
// more than once.
func (gs *GracefulServer) Shutdown() error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), gs.shutdownTimeout)
		defer cancel()

		gs.logger.Info("shutting down", logging.Duration("timeout", gs.shutdownTimeout))
		if shutdownErr := gs.server.Shutdown(ctx); shutdownErr != nil {
			err = shutdownErr
			gs.logger.Error("shutdown failed", logging.Error(shutdownErr))
		}
	})
	return err
}

// SetReloadFunc installs the SIGHUP configuration reload handler.
func (gs *GracefulServer) SetReloadFunc(fn ReloadFunc) {
	gs.reloadMu.Lock()
	defer gs.reloadMu.Unlock()
	gs.reloadFn = fn
}

// ShutdownChannel closes when shutdown begins.
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

func (gs *GracefulServer) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			gs.logger.Info("signal received", logging.String("signal", sig.String()))
			if err := gs.Shutdown(); err != nil {
				os.Exit(1)
			}
			return
		case syscall.SIGHUP:
			gs.reload()
		}
	}
}

func (gs *GracefulServer) reload() {
	gs.reloadMu.RLock()
	fn := gs.reloadFn
	gs.reloadMu.RUnlock()
	if fn == nil {
		gs.logger.Warn("reload requested but no reload function configured")
		return
	}
	if err := fn(); err != nil {
		gs.logger.Error("configuration reload failed", logging.Error(err))
		return
	}
	gs.logger.Info("configuration reloaded")
}
