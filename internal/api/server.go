package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ShutdownTimeout bounds the graceful shutdown of a server.
const ShutdownTimeout = 10 * time.Second

// maxTimeoutMargin caps the gap HandlerTimeout leaves before the write deadline.
const maxTimeoutMargin = 5 * time.Second

// HandlerTimeout returns a request timeout that expires before writeTimeout so
// the 504 response can still be written. Zero disables it.
func HandlerTimeout(writeTimeout time.Duration) time.Duration {
	if writeTimeout <= 0 {
		return 0
	}
	margin := writeTimeout / 10
	if margin > maxTimeoutMargin {
		margin = maxTimeoutMargin
	}
	return writeTimeout - margin
}

// NewServer wraps handler in an http.Server with the given timeouts.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}

// Serve listens on srv.Addr and serves until ctx is canceled, then shuts down
// gracefully. ready, if non-nil, receives the bound address once listening.
func Serve(ctx context.Context, srv *http.Server, logger zerolog.Logger, ready func(addr string)) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	logger.Info().Str("addr", ln.Addr().String()).Msg("Server listening")
	if ready != nil {
		ready(ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
