package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/care-ledger/internal/api"
	"github.com/hackgods/care-ledger/internal/booking"
	"github.com/hackgods/care-ledger/internal/config"
	"github.com/hackgods/care-ledger/internal/logging"
	"github.com/hackgods/care-ledger/internal/metrics"
	"github.com/hackgods/care-ledger/internal/storage"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("dev", "info")
		boot.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, cfg.LogLevel)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("snapshot_backend", cfg.SnapshotBackend).
		Dur("snapshot_interval", cfg.SnapshotInterval).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(rootCtx, 10*time.Second)
	backend, err := storage.Open(openCtx, cfg, log)
	cancelOpen()
	if err != nil {
		log.Fatal().Err(err).Msg("snapshot backend error")
	}
	defer backend.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := booking.NewEngine(
		booking.WithLogger(log.With().Str("component", "engine").Logger()),
		booking.WithObserver(metrics.NewEngineMetrics(reg)),
	)

	if backend.Repository != nil {
		loadCtx, cancelLoad := context.WithTimeout(rootCtx, 20*time.Second)
		snap, err := backend.Repository.Load(loadCtx)
		cancelLoad()
		switch {
		case errors.Is(err, booking.ErrNoSnapshot):
			log.Info().Msg("no stored snapshot, starting empty")
		case err != nil:
			log.Fatal().Err(err).Msg("snapshot load error")
		default:
			if err := engine.Restore(snap); err != nil {
				log.Fatal().Err(err).Msg("snapshot restore error")
			}
			log.Info().
				Int("facilities", len(snap.Facilities)).
				Int("practitioners", len(snap.Practitioners)).
				Int("clients", len(snap.Clients)).
				Int("appointments", len(snap.Appointments)).
				Msg("snapshot restored")
		}
	}

	checks := readinessChecks(backend.Checks)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Engine:  engine,
			Logger:  log.With().Str("component", "http").Logger(),
			Checks:  checks,
			Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			Env:     cfg.Env,
			Version: version,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// The worker outlives the HTTP server so its final flush sees every
	// request that completed during shutdown.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := make(chan struct{})
	if backend.Repository != nil {
		worker := booking.NewSnapshotWorker(engine, backend.Repository, cfg.SnapshotInterval,
			log.With().Str("component", "snapshot_worker").Logger())
		go func() {
			defer close(workerDone)
			worker.Run(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	stopWorker()

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("snapshot worker did not finish before shutdown timeout")
	}

	log.Info().Msg("api-server stopped")
}

// readinessChecks exposes the backend pings to the readiness probe.
func readinessChecks(pings map[string]func(ctx context.Context) error) map[string]api.Pinger {
	checks := make(map[string]api.Pinger, len(pings))
	for name, fn := range pings {
		checks[name] = api.PingFunc(fn)
	}
	return checks
}
