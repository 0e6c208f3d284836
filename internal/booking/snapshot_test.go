package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populatedFixture(t *testing.T) *fixture {
	t.Helper()
	fx := newFixture(t)
	fx.associate(t, "500")
	appt := fx.reserve(t, fx.publish(t, at(9, 0), at(9, 30)).ID)
	fx.publish(t, at(10, 0), at(10, 30))
	_, err := fx.engine.SetStatus(appt.ID, StatusAccepted)
	require.NoError(t, err)
	return fx
}

func TestSnapshotRecordsRoundTrip(t *testing.T) {
	fx := populatedFixture(t)

	records, err := fx.engine.Snapshot().Records()
	require.NoError(t, err)
	assert.Len(t, records, len(RecordNames))

	decoded, err := SnapshotFromRecords(records)
	require.NoError(t, err)

	restored := newTestEngine(&testClock{now: fx.clock.now})
	require.NoError(t, restored.Restore(decoded))

	again, err := restored.Snapshot().Records()
	require.NoError(t, err)
	for _, name := range RecordNames {
		assert.JSONEq(t, string(records[name]), string(again[name]), name)
	}

	p, ok := restored.Practitioner(fx.practitioner.ID)
	require.True(t, ok)
	assert.True(t, dec("300").Equal(p.TotalEarnings))
	stats, err := restored.SlotStats(fx.practitioner.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotStats{Available: 1, Booked: 1}, stats)
}

func TestSnapshotFromRecordsDefaults(t *testing.T) {
	snap, err := SnapshotFromRecords(map[string][]byte{})
	require.NoError(t, err)
	assert.Empty(t, snap.Facilities)
	assert.Empty(t, snap.Appointments)
	assert.Equal(t, DefaultDepartments, snap.Departments)

	_, err = SnapshotFromRecords(map[string][]byte{RecordClients: []byte("{broken")})
	assert.Error(t, err)
}

func TestRestoreRejectsDuplicateIDs(t *testing.T) {
	fx := populatedFixture(t)
	snap := fx.engine.Snapshot()
	snap.Clients = append(snap.Clients, snap.Clients[0])

	target := newTestEngine(&testClock{now: fx.clock.now})
	existing, err := target.RegisterClient(ClientInput{Name: "Kept"})
	require.NoError(t, err)

	err = target.Restore(snap)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, ok := target.Client(existing.ID)
	assert.True(t, ok, "failed restore must leave the store untouched")
}

func TestRestoreRejectsEmptyID(t *testing.T) {
	target := newTestEngine(&testClock{})
	err := target.Restore(Snapshot{Facilities: []Facility{{Name: "No ID"}}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
