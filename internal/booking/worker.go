package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotWorker periodically saves the engine state when it has changed
// since the last successful save.
type SnapshotWorker struct {
	engine   *Engine
	repo     SnapshotRepository
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	saved uint64
}

func NewSnapshotWorker(engine *Engine, repo SnapshotRepository, interval time.Duration, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		engine:   engine,
		repo:     repo,
		interval: interval,
		timeout:  20 * time.Second,
		log:      log,
		saved:    engine.Revision(),
	}
}

// Flush saves the current state if anything changed since the last save.
func (w *SnapshotWorker) Flush(ctx context.Context) error {
	snap, rev := w.engine.snapshotAt()
	if rev == w.saved {
		return nil
	}
	if err := w.repo.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	w.saved = rev
	return nil
}

// Run flushes on every tick until ctx is done, then flushes one last time.
func (w *SnapshotWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("snapshot worker stopping, final flush")
			w.runOnce(context.Background())
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *SnapshotWorker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.Flush(runCtx); err != nil {
		w.log.Error().Err(err).Msg("snapshot flush failed")
		return
	}
	w.log.Debug().Dur("elapsed", time.Since(start)).Msg("snapshot flush complete")
}
