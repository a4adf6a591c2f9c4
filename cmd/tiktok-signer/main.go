// Command tiktok-signer runs a local browser signer and exposes it as a
// signing service for tiktok-api instances configured with a signature_service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tikstock/tiktok-go/internal/api"
	"github.com/tikstock/tiktok-go/pkg/config"
	"github.com/tikstock/tiktok-go/pkg/logging"
	"github.com/tikstock/tiktok-go/pkg/metrics"
	"github.com/tikstock/tiktok-go/pkg/signer"
)

func main() {
	configPath := flag.String("config", os.Getenv("TIKTOK_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LoggingConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, nil); err != nil {
		log.Fatal().Err(err).Msg("tiktok-signer failed")
	}
}

// run starts the browser and serves signing requests until ctx is canceled.
func run(ctx context.Context, cfg config.Config, ready func(addr string)) error {
	logger := logging.NewLogger("tiktok-signer")

	browser := signer.NewBrowserSigner(cfg.BrowserConfig(), logging.NewLogger("browser-signer"))
	defer browser.Close()

	if err := browser.Init(ctx); err != nil {
		return fmt.Errorf("start browser signer: %w", err)
	}

	srv := api.NewServer(cfg.Signer.Addr, newRouter(browser, logger), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	return api.Serve(ctx, srv, logger, ready)
}

func newRouter(s signer.Signer, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	sign := signer.NewHandler(s, logger)
	r.Handle("/api/sign", sign)
	r.Handle("/api/sign/", sign)

	return r
}
