package booking

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// PgxDB is the subset of pgxpool.Pool used by PgRepository.
type PgxDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgRepository stores each snapshot record as one JSONB row.
type PgRepository struct {
	db  PgxDB
	log zerolog.Logger
}

func NewPgRepository(db PgxDB, log zerolog.Logger) *PgRepository {
	return &PgRepository{db: db, log: log}
}

func (r *PgRepository) Load(ctx context.Context) (Snapshot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, payload
		FROM ledger_records
	`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query ledger records: %w", err)
	}
	defer rows.Close()

	records := make(map[string][]byte)
	for rows.Next() {
		var name string
		var payload []byte
		if err := rows.Scan(&name, &payload); err != nil {
			return Snapshot{}, fmt.Errorf("scan ledger record: %w", err)
		}
		records[name] = payload
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	if len(records) == 0 {
		return Snapshot{}, ErrNoSnapshot
	}
	return SnapshotFromRecords(records)
}

// Save writes all records in one transaction so readers never see a mix of
// two snapshots.
func (r *PgRepository) Save(ctx context.Context, snap Snapshot) error {
	records, err := snap.Records()
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, name := range RecordNames {
		_, err := tx.Exec(ctx, `
			INSERT INTO ledger_records (name, payload, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name) DO UPDATE
			SET payload = EXCLUDED.payload,
			    updated_at = now()
		`, name, records[name])
		if err != nil {
			return fmt.Errorf("upsert %s record: %w", name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}

	r.log.Debug().
		Int("facilities", len(snap.Facilities)).
		Int("practitioners", len(snap.Practitioners)).
		Int("clients", len(snap.Clients)).
		Int("appointments", len(snap.Appointments)).
		Msg("snapshot saved to postgres")
	return nil
}
