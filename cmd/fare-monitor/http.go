package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tofunori/farewatch/config"
	"github.com/tofunori/farewatch/internal/services/monitor"
	"github.com/tofunori/farewatch/internal/storage"
)

type monitorHTTPOpts struct {
	httpAddr string
	onListen func(httpAddr string)

	monitor *monitor.Monitor
	runner  *monitor.Runner
	store   storage.Store
	cfg     *config.Config
}

func runMonitorHTTPServer(ctx context.Context, opts monitorHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.monitor == nil {
			_, _ = w.Write([]byte(`{"error":"monitor not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.monitor.Stats())
	})

	r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.store == nil {
			_, _ = w.Write([]byte(`{"error":"storage not wired"}`))
			return
		}
		entries, err := opts.store.Load(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		type point struct {
			CheckedAt time.Time `json:"checkedAt"`
			Price     string    `json:"price"`
		}
		out := make([]point, 0, len(entries))
		for _, e := range entries {
			out = append(out, point{CheckedAt: e.CheckedAt, Price: e.Price.StringFixed(2)})
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		// Avoid dumping secrets; show only operational monitor settings.
		out := map[string]any{
			"origin":             opts.cfg.Monitor.Origin,
			"destination":        opts.cfg.Monitor.Destination,
			"departDate":         opts.cfg.Monitor.DepartDate,
			"returnDate":         opts.cfg.Monitor.ReturnDate,
			"flexibleDates":      opts.cfg.Monitor.FlexibleDates,
			"daysRange":          opts.cfg.Monitor.DaysRange,
			"maxStops":           opts.cfg.Monitor.MaxStops,
			"priceThreshold":     opts.cfg.Monitor.PriceThreshold,
			"checkIntervalHours": opts.cfg.Monitor.CheckIntervalHours,
			"cooldownSeconds":    opts.cfg.Monitor.CooldownSeconds,
			"rateLimitPerMinute": opts.cfg.Monitor.RateLimitPerMinute,
			"storageBackend":     opts.cfg.Storage.Backend,
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	r.Post("/trigger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.runner == nil {
			_, _ = w.Write([]byte(`{"error":"runner not wired"}`))
			return
		}
		opts.runner.Trigger()
		_, _ = w.Write([]byte(`{"triggered":true}`))
	})

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	return srv.Serve(lis)
}
