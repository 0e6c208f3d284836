package booking

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrFacilityNotFound     = fmt.Errorf("facility %w", ErrNotFound)
	ErrPractitionerNotFound = fmt.Errorf("practitioner %w", ErrNotFound)
	ErrClientNotFound       = fmt.Errorf("client %w", ErrNotFound)
	ErrAppointmentNotFound  = fmt.Errorf("appointment %w", ErrNotFound)

	ErrNoSnapshot = errors.New("no snapshot stored")
)

// SnapshotRepository persists the five named records of the store.
type SnapshotRepository interface {
	// Load returns ErrNoSnapshot when nothing has been saved yet.
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}
