// Command quoted serves swap quotes over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ligun0805/swap-quote/internal/chains"
	"github.com/ligun0805/swap-quote/internal/config"
	"github.com/ligun0805/swap-quote/internal/erc20"
	"github.com/ligun0805/swap-quote/internal/ethcall"
	"github.com/ligun0805/swap-quote/internal/logger"
	"github.com/ligun0805/swap-quote/internal/metrics"
	"github.com/ligun0805/swap-quote/internal/quote"
	"github.com/ligun0805/swap-quote/internal/router"
	"github.com/ligun0805/swap-quote/internal/router/onchain"
	"github.com/ligun0805/swap-quote/internal/router/routingapi"
	"github.com/ligun0805/swap-quote/internal/server"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		l := logger.New(logger.Config{})
		l.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	if cfg.UsesDefaultAPIKey() {
		log.Warn().Msg("API_KEY is not set, the well-known default key is accepted")
	}
	if len(cfg.RPCURLs) == 0 {
		log.Warn().Msg("No RPC URL configured (BSC_URL, BASE_URL, MATIC_URL, ETH_URL, RPC_URLS); every quote will fail with an unsupported chain")
	}

	m := metrics.New()

	registry := chains.NewRegistry(chains.FromURLs(cfg.RPCURLs))
	defer registry.Close()
	for _, c := range registry.Chains() {
		log.Info().Uint64("chainId", c.ID).Str("name", c.Name).Msg("Chain enabled")
	}

	caller := ethcall.New(cfg.RPCMaxConcurrency, cfg.RPCMaxRetries, log)
	caller.OnRetry = m.RetryHook

	tokens := erc20.NewReader(registry, caller, metadataCache(cfg, log), log)

	uniswap := uniswapEngine(cfg, registry, caller, log)
	pancakeswap := onchain.New(chains.PancakeSwap, chains.PancakeSwap, registry, caller, log)

	svc := quote.NewService(registry, tokens, m, quote.Options{
		SlippageBps:      cfg.SlippageBps,
		Deadline:         cfg.Deadline,
		BatchConcurrency: cfg.BatchConcurrency,
	}, log)

	srv := server.New(server.Config{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
		Log:            log,
		Quotes:         svc,
		Chains:         registry,
		Metrics:        m,
		Uniswap:        uniswap,
		PancakeSwap:    pancakeswap,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Stopped")
}

// uniswapEngine prefers a routing service when one is configured and falls
// back to direct pool quotes otherwise.
func uniswapEngine(cfg config.Settings, registry *chains.Registry, caller *ethcall.Caller, log zerolog.Logger) router.Engine {
	if cfg.UniswapRoutingURL != "" {
		log.Info().Str("url", cfg.UniswapRoutingURL).Msg("Uniswap quotes via routing service")
		return routingapi.New(chains.Uniswap, cfg.UniswapRoutingURL, &http.Client{Timeout: cfg.RequestTimeout}, log)
	}
	log.Info().Msg("Uniswap quotes via on-chain quoter")
	return onchain.New(chains.Uniswap, chains.Uniswap, registry, caller, log)
}

// metadataCache returns a Redis cache when REDIS_URL is set and reachable,
// and nil (in-memory) otherwise.
func metadataCache(cfg config.Settings, log zerolog.Logger) erc20.Cache {
	if cfg.RedisURL == "" {
		return nil
	}
	rc, err := erc20.NewRedisCache(cfg.RedisURL, cfg.MetadataTTL)
	if err != nil {
		log.Warn().Err(err).Msg("Bad REDIS_URL, token metadata stays in memory")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis unreachable, token metadata stays in memory")
		_ = rc.Close()
		return nil
	}
	log.Info().Msg("Token metadata cached in Redis")
	return rc
}
