package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/offer-resolver/internal/affiliate"
	"github.com/maltedev/offer-resolver/internal/browser"
	"github.com/maltedev/offer-resolver/internal/config"
	"github.com/maltedev/offer-resolver/internal/diagnostics"
	"github.com/maltedev/offer-resolver/internal/fetch"
	"github.com/maltedev/offer-resolver/internal/resolver"
	"github.com/maltedev/offer-resolver/internal/scraper"
	"github.com/redis/go-redis/v9"
)

// App holds a wired resolver and the resources it owns.
type App struct {
	Resolver *resolver.Resolver
	sink     diagnostics.Sink
}

// Build wires the resolution pipeline from configuration.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	sink, err := newSink(ctx, cfg.Diagnostics, logger)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewClient(&fetch.Options{
		Timeout:        cfg.Fetch.Timeout,
		UserAgents:     cfg.Fetch.UserAgents,
		AcceptLanguage: cfg.Fetch.AcceptLanguage,
		MaxRedirects:   cfg.Fetch.MaxRedirects,
	}, logger)

	deps := scraper.Deps{
		Fetcher:         fetcher,
		StrategyTimeout: cfg.Resolver.StrategyTimeout,
		Logger:          logger,
	}
	if cfg.Browser.Enabled {
		deps.Renderer = browser.NewRenderer(browserOptions(cfg.Browser), logger)
	} else {
		logger.Info("rendered page strategy disabled")
	}

	shopee := affiliate.NewShopeeClient(cfg.Shopee.APIURL, cfg.Shopee.Timeout, cfg.Shopee.SubIDs, logger)

	extractors := []scraper.Extractor{
		scraper.NewShopeeExtractor(deps, shopee),
		scraper.NewMagaluExtractor(deps, affiliate.NewMagaluStorefront(cfg.Magalu.StoreID)),
		scraper.NewMercadoLivreExtractor(deps),
		scraper.NewAmazonExtractor(deps, affiliate.NewAmazonTagger(cfg.Amazon.AssociateTag)),
	}

	expander := fetch.NewExpander(cfg.Fetch.ShortLinkHosts, cfg.Fetch.ExpandTimeout, logger)

	res, err := resolver.New(resolver.Options{
		Deadline:           cfg.Resolver.Deadline,
		DefaultCredentials: cfg.Shopee.DefaultCredentials(),
	}, extractors, expander, sink, logger)
	if err != nil {
		sink.Close()
		return nil, fmt.Errorf("failed to build resolver: %w", err)
	}

	return &App{Resolver: res, sink: sink}, nil
}

func (a *App) Close() error {
	return a.sink.Close()
}

func newSink(ctx context.Context, cfg config.DiagnosticsConfig, logger *slog.Logger) (diagnostics.Sink, error) {
	if cfg.Sink != "redis" {
		return diagnostics.NewLogSink(logger), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("recording diagnostics to redis stream", "addr", cfg.RedisAddr, "stream", cfg.Stream)
	return diagnostics.NewRedisStreamSink(client, cfg.Stream, cfg.StreamMaxLen, logger), nil
}

func browserOptions(cfg config.BrowserConfig) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Headless
	opts.Timeout = cfg.Timeout
	opts.SettleTimeout = cfg.SettleTimeout
	opts.ViewportWidth = cfg.ViewportWidth
	opts.ViewportHeight = cfg.ViewportHeight
	opts.AcceptLanguage = cfg.AcceptLanguage
	opts.TimezoneID = cfg.TimezoneID
	opts.Locale = cfg.Locale
	opts.ProxyServer = cfg.ProxyServer
	return opts
}
