package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/hackgods/care-ledger/internal/booking"
	"github.com/hackgods/care-ledger/internal/config"
	"github.com/hackgods/care-ledger/internal/logging"
	"github.com/hackgods/care-ledger/internal/seed"
	"github.com/hackgods/care-ledger/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("dev", "info")
		boot.Fatal().Err(err).Msg("config load error")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	if cfg.SnapshotBackend == config.BackendMemory {
		log.Fatal().Msg("SNAPSHOT_BACKEND must be postgres or redis to seed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("snapshot backend error")
	}
	defer backend.Close()

	now := time.Now().UTC()
	opts := seed.DefaultOptions(now)
	opts.Facilities = getInt("SEED_FACILITIES", opts.Facilities)
	opts.Practitioners = getInt("SEED_PRACTITIONERS", opts.Practitioners)
	opts.Clients = getInt("SEED_CLIENTS", opts.Clients)
	opts.SlotsPerAssociation = getInt("SEED_SLOTS_PER_ASSOCIATION", opts.SlotsPerAssociation)

	faker := gofakeit.New(uint64(now.UnixNano()))
	engine := booking.NewEngine(booking.WithLogger(log.Level(zerolog.WarnLevel)))

	log.Info().
		Int("facilities", opts.Facilities).
		Int("practitioners", opts.Practitioners).
		Int("clients", opts.Clients).
		Msg("seed starting")

	stats, err := seed.Populate(engine, opts, faker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	if err := backend.Repository.Save(ctx, engine.Snapshot()); err != nil {
		log.Fatal().Err(err).Msg("save snapshot")
	}

	log.Info().
		Int("appointments", stats.Appointments).
		Int("slots", stats.Slots).
		Str("backend", backend.Name).
		Msg("seed complete")
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
