package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/tawheedrony/17TrackDashboard/config"
	"github.com/tawheedrony/17TrackDashboard/internal/broker/kafka"
	"github.com/tawheedrony/17TrackDashboard/internal/cache"
	"github.com/tawheedrony/17TrackDashboard/internal/cache/rediscache"
	"github.com/tawheedrony/17TrackDashboard/internal/countries"
	"github.com/tawheedrony/17TrackDashboard/internal/integrations/provider"
	"github.com/tawheedrony/17TrackDashboard/internal/integrations/provider/fake"
	"github.com/tawheedrony/17TrackDashboard/internal/integrations/provider/seventeentrack"
	"github.com/tawheedrony/17TrackDashboard/internal/publish"
	"github.com/tawheedrony/17TrackDashboard/internal/services/batch"
	"github.com/tawheedrony/17TrackDashboard/internal/services/report"
	"github.com/tawheedrony/17TrackDashboard/internal/services/resolver"
	"github.com/tawheedrony/17TrackDashboard/internal/storage/pgreport"
)

type appFactories struct {
	newStorage        func(cfg *config.Config) (sink report.Sink, closeFn func(), err error)
	newProducer       func(cfg *config.Config) report.Producer
	newRateLimiter    func(cfg *config.Config) batch.RateLimiter
	newCache          func(cfg *config.Config) cache.BytesCache
	newProviderClient func(cfg *config.Config) provider.Client
	loadCountries     func(cfg *config.Config) (map[string]string, error)
}

func defaultAppFactories() appFactories {
	return appFactories{
		newStorage: func(cfg *config.Config) (report.Sink, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgreport.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newProducer: func(cfg *config.Config) report.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) batch.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newCache: func(cfg *config.Config) cache.BytesCache {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.New(redisAddr)
		},
		newProviderClient: func(cfg *config.Config) provider.Client {
			// Without an API key there is nothing to talk to, so fall
			// back to the local fake. Handy for demos and tests.
			if cfg.Provider.APIKey != "" {
				timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
				return seventeentrack.New(cfg.Provider.BaseURL, cfg.Provider.APIKey, timeout)
			}
			return fake.New()
		},
		loadCountries: func(cfg *config.Config) (map[string]string, error) {
			if cfg.TrackDash.CountryCodesPath == "" {
				return map[string]string{}, nil
			}
			return countries.Load(cfg.TrackDash.CountryCodesPath)
		},
	}
}

func RunTrackDash(ctx context.Context, cfg *config.Config, f appFactories) error {
	topic := cfg.Kafka.ReportCompletedTopicName
	if topic == "" {
		topic = "report.completed"
	}

	resolveTimeout := time.Duration(cfg.TrackDash.ResolveTimeoutSeconds) * time.Second
	if resolveTimeout <= 0 {
		resolveTimeout = 30 * time.Second
	}
	cacheTTL := time.Duration(cfg.TrackDash.RecordCacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	rlPerMin := int64(cfg.TrackDash.RateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 120
	}
	reportBaseURL := cfg.Dashboard.ReportBaseURL
	if reportBaseURL == "" {
		reportBaseURL = "http://localhost:8080"
	}

	sink, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	cntrs, err := f.loadCountries(cfg)
	if err != nil {
		return err
	}

	res := resolver.New(f.newProviderClient(cfg))
	orch := batch.New(res).
		WithSettings(cfg.TrackDash.BatchCap, cfg.TrackDash.BatchConcurrency, resolveTimeout, rlPerMin).
		WithCache(f.newCache(cfg), cacheTTL).
		WithRateLimiter(f.newRateLimiter(cfg))

	svc := report.New(orch, sink, cntrs).
		WithProducer(f.newProducer(cfg), topic).
		WithLinks(reportBaseURL, publish.DashboardParams{
			TemplateReportID: cfg.Dashboard.TemplateReportID,
			PageID:           cfg.Dashboard.PageID,
			Connector:        cfg.Dashboard.Connector,
			Mode:             cfg.Dashboard.Mode,
			Alias:            cfg.Dashboard.Alias,
		})

	err = runHTTPServer(ctx, httpOpts{
		httpAddr:    cfg.TrackDash.HTTPAddr,
		swaggerPath: cfg.TrackDash.SwaggerPath,
		svc:         svc,
		stats:       orch.Stats,
	})
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}
