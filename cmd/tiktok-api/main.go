// Command tiktok-api serves the TikTok client over a JSON REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tikstock/tiktok-go/internal/api"
	"github.com/tikstock/tiktok-go/pkg/config"
	"github.com/tikstock/tiktok-go/pkg/logging"
	"github.com/tikstock/tiktok-go/pkg/tiktok"
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
		log.Fatal().Err(err).Msg("tiktok-api failed")
	}
}

// run builds the client and serves the API until ctx is canceled.
func run(ctx context.Context, cfg config.Config, ready func(addr string)) error {
	logger := logging.NewLogger("tiktok-api")

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info().Str("addr", cfg.Redis.Address).Msg("Connected to Redis")
	}

	client, err := tiktok.New(ctx, cfg.ClientConfig(rdb))
	if err != nil {
		return fmt.Errorf("create tiktok client: %w", err)
	}
	defer client.Close()

	router := api.NewRouter(client, logging.NewLogger("api"), api.HandlerTimeout(cfg.Server.WriteTimeout))
	srv := api.NewServer(cfg.Server.Addr, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	logger.Info().
		Str("signer", client.SignerMode()).
		Str("base_url", cfg.TikTok.BaseURL).
		Msg("Starting TikTok API server")

	return api.Serve(ctx, srv, logger, ready)
}

// connectRedis returns nil when no Redis address is configured.
func connectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	opts := cfg.RedisOptions()
	if opts == nil {
		return nil, nil
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
