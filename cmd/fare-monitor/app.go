package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tofunori/farewatch/config"
	"github.com/tofunori/farewatch/internal/broker/kafka"
	"github.com/tofunori/farewatch/internal/cache/rediscache"
	"github.com/tofunori/farewatch/internal/integrations/flightapi"
	"github.com/tofunori/farewatch/internal/integrations/flightapi/amadeushttp"
	"github.com/tofunori/farewatch/internal/integrations/flightapi/fake"
	"github.com/tofunori/farewatch/internal/notify"
	"github.com/tofunori/farewatch/internal/services/monitor"
	"github.com/tofunori/farewatch/internal/storage"
	"github.com/tofunori/farewatch/internal/storage/filehistory"
	"github.com/tofunori/farewatch/internal/storage/pghistory"
)

type monitorFactories struct {
	newStorage     func(cfg *config.Config) (storage.Store, error)
	newProvider    func(cfg *config.Config) flightapi.Client
	newNotifier    func(cfg *config.Config) notify.Notifier
	newProducer    func(cfg *config.Config) monitor.Producer
	newRateLimiter func(cfg *config.Config) monitor.RateLimiter
	newCache       func(cfg *config.Config) monitor.Cache
}

func defaultMonitorFactories() monitorFactories {
	return monitorFactories{
		newStorage: func(cfg *config.Config) (storage.Store, error) {
			if cfg.Storage.Backend == "postgres" {
				sslMode := cfg.Database.SSLMode
				if sslMode == "" {
					sslMode = "disable"
				}
				connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
					cfg.Database.Username, cfg.Database.Password,
					cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
				return pghistory.New(connString)
			}
			return filehistory.New(cfg.Storage.FilePath)
		},
		newProvider: func(cfg *config.Config) flightapi.Client {
			// Without credentials fall back to the offline fake, so the
			// monitor stays runnable in demos and local dev.
			if cfg.Amadeus.APIKey != "" && cfg.Amadeus.APISecret != "" {
				return amadeushttp.New(cfg.Amadeus.BaseURL, cfg.Amadeus.APIKey,
					cfg.Amadeus.APISecret, cfg.Amadeus.Currency)
			}
			return fake.New()
		},
		newNotifier: func(cfg *config.Config) notify.Notifier {
			ec := notify.EmailConfig{
				Server:   cfg.SMTP.Server,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: cfg.SMTP.Password,
				From:     cfg.SMTP.From,
				To:       cfg.SMTP.To,
			}
			if ec.Complete() {
				return notify.NewEmailNotifier(ec)
			}
			return notify.LogNotifier{}
		},
		newProducer: func(cfg *config.Config) monitor.Producer {
			if cfg.Kafka.Host == "" {
				return nil
			}
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) monitor.RateLimiter {
			if cfg.Redis.Host == "" {
				return nil
			}
			return rediscache.NewRateLimiter(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		},
		newCache: func(cfg *config.Config) monitor.Cache {
			if cfg.Redis.Host == "" {
				return nil
			}
			return rediscache.New(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		},
	}
}

func buildMonitor(cfg *config.Config, f monitorFactories) (*monitor.Monitor, storage.Store, error) {
	store, err := f.newStorage(cfg)
	if err != nil {
		return nil, nil, err
	}

	mcfg := monitor.Config{
		Plan: monitor.PlanConfig{
			Origin:      cfg.Monitor.Origin,
			Destination: cfg.Monitor.Destination,
			DepartDate:  cfg.Monitor.DepartDate,
			ReturnDate:  cfg.Monitor.ReturnDate,
			Flexible:    cfg.Monitor.FlexibleDates,
			DaysRange:   cfg.Monitor.DaysRange,
		},
		MaxStops:           cfg.Monitor.MaxStops,
		MaxResults:         cfg.Amadeus.MaxResults,
		Cooldown:           time.Duration(cfg.Monitor.CooldownSeconds) * time.Second,
		RateLimitPerMinute: int64(cfg.Monitor.RateLimitPerMinute),
		CacheTTL:           time.Duration(cfg.Monitor.CacheTTLSeconds) * time.Second,
		AlertTopic:         cfg.Kafka.FareAlertTopicName,
	}
	if cfg.Monitor.PriceThreshold > 0 {
		mcfg.Threshold = decimal.NewFromFloat(cfg.Monitor.PriceThreshold)
	}
	if mcfg.AlertTopic == "" {
		mcfg.AlertTopic = "fare.alert"
	}

	m := monitor.New(f.newProvider(cfg), store, f.newNotifier(cfg), mcfg)
	if p := f.newProducer(cfg); p != nil {
		m = m.WithProducer(p)
	}
	if rl := f.newRateLimiter(cfg); rl != nil {
		m = m.WithRateLimiter(rl)
	}
	if c := f.newCache(cfg); c != nil {
		m = m.WithCache(c)
	}
	return m, store, nil
}

// RunFareMonitor wires everything from config and runs either a single
// check cycle or the interval loop until the context is cancelled.
func RunFareMonitor(ctx context.Context, cfg *config.Config, f monitorFactories, once bool) error {
	m, store, err := buildMonitor(cfg, f)
	if err != nil {
		return err
	}
	defer store.Close()

	if once {
		_, err := m.CheckAllPrices(ctx)
		return err
	}

	interval := time.Duration(cfg.Monitor.CheckIntervalHours) * time.Hour
	runner := monitor.NewRunner(m, interval)

	if cfg.Monitor.HTTPAddr != "" {
		go func() {
			err := runMonitorHTTPServer(ctx, monitorHTTPOpts{
				httpAddr: cfg.Monitor.HTTPAddr,
				monitor:  m,
				runner:   runner,
				store:    store,
				cfg:      cfg,
			})
			if err != nil && err != http.ErrServerClosed {
				slog.Error("admin http server stopped", "error", err.Error())
			}
		}()
	}

	return runner.Run(ctx)
}
