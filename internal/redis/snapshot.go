package redisclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/care-ledger/internal/booking"
)

// SnapshotRepository keeps one Redis string per snapshot record under a
// common prefix. Saves are serialized across processes with a Locker.
type SnapshotRepository struct {
	client *redis.Client
	locker Locker
	prefix string
	log    zerolog.Logger
}

func NewSnapshotRepository(client *redis.Client, locker Locker, prefix string, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		client: client,
		locker: locker,
		prefix: prefix,
		log:    log,
	}
}

func (r *SnapshotRepository) key(record string) string {
	return fmt.Sprintf("%s:record:%s", r.prefix, record)
}

func (r *SnapshotRepository) Load(ctx context.Context) (booking.Snapshot, error) {
	keys := make([]string, len(booking.RecordNames))
	for i, name := range booking.RecordNames {
		keys[i] = r.key(name)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return booking.Snapshot{}, fmt.Errorf("load snapshot records: %w", err)
	}

	records := make(map[string][]byte)
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		records[booking.RecordNames[i]] = []byte(s)
	}
	if len(records) == 0 {
		return booking.Snapshot{}, booking.ErrNoSnapshot
	}
	return booking.SnapshotFromRecords(records)
}

// Save writes every record in a single MULTI/EXEC block.
func (r *SnapshotRepository) Save(ctx context.Context, snap booking.Snapshot) error {
	records, err := snap.Records()
	if err != nil {
		return err
	}

	err = r.locker.WithLock(ctx, r.prefix+":snapshot", func(lockCtx context.Context) error {
		pipe := r.client.TxPipeline()
		for _, name := range booking.RecordNames {
			pipe.Set(lockCtx, r.key(name), records[name], 0)
		}
		if _, err := pipe.Exec(lockCtx); err != nil {
			return fmt.Errorf("write snapshot records: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			return fmt.Errorf("snapshot save already in progress: %w", err)
		}
		return err
	}

	r.log.Debug().Int("appointments", len(snap.Appointments)).Msg("snapshot saved to redis")
	return nil
}
