package booking

import (
	"encoding/json"
	"fmt"
)

// Names of the persisted records. Each record is serialized on its own.
const (
	RecordFacilities    = "facilities"
	RecordPractitioners = "practitioners"
	RecordClients       = "clients"
	RecordAppointments  = "appointments"
	RecordDepartments   = "departments"
)

var RecordNames = []string{
	RecordFacilities,
	RecordPractitioners,
	RecordClients,
	RecordAppointments,
	RecordDepartments,
}

// Snapshot is a detached copy of the store. Collections keep insertion order.
type Snapshot struct {
	Facilities    []Facility     `json:"facilities"`
	Practitioners []Practitioner `json:"practitioners"`
	Clients       []Client       `json:"clients"`
	Appointments  []Appointment  `json:"appointments"`
	Departments   []string       `json:"departments"`
}

func (e *Engine) Snapshot() Snapshot {
	snap, _ := e.snapshotAt()
	return snap
}

func (e *Engine) snapshotAt() (Snapshot, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := Snapshot{
		Facilities:    make([]Facility, 0, e.store.facilities.len()),
		Practitioners: make([]Practitioner, 0, e.store.practitioners.len()),
		Clients:       make([]Client, 0, e.store.clients.len()),
		Appointments:  make([]Appointment, 0, e.store.appointments.len()),
		Departments:   cloneStrings(e.store.departments),
	}
	e.store.facilities.each(func(f *Facility) { snap.Facilities = append(snap.Facilities, f.clone()) })
	e.store.practitioners.each(func(p *Practitioner) { snap.Practitioners = append(snap.Practitioners, p.clone()) })
	e.store.clients.each(func(c *Client) { snap.Clients = append(snap.Clients, *c) })
	e.store.appointments.each(func(a *Appointment) { snap.Appointments = append(snap.Appointments, *a) })
	return snap, e.revision
}

// Restore replaces the whole store with the snapshot contents. The store is
// left untouched when the snapshot contains duplicate or empty ids.
func (e *Engine) Restore(snap Snapshot) error {
	next := newStore()
	if snap.Departments != nil {
		next.departments = cloneStrings(snap.Departments)
	}
	for i := range snap.Facilities {
		f := snap.Facilities[i].clone()
		if err := insertUnique(next.facilities, f.ID, &f, RecordFacilities); err != nil {
			return err
		}
	}
	for i := range snap.Practitioners {
		p := snap.Practitioners[i].clone()
		if err := insertUnique(next.practitioners, p.ID, &p, RecordPractitioners); err != nil {
			return err
		}
	}
	for i := range snap.Clients {
		c := snap.Clients[i]
		if err := insertUnique(next.clients, c.ID, &c, RecordClients); err != nil {
			return err
		}
	}
	for i := range snap.Appointments {
		a := snap.Appointments[i]
		if err := insertUnique(next.appointments, a.ID, &a, RecordAppointments); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = next
	return nil
}

func insertUnique[T any](c *collection[T], id string, v *T, record string) error {
	if id == "" {
		return fmt.Errorf("%w: %s record has an entry without id", ErrInvalidInput, record)
	}
	if _, exists := c.find(id); exists {
		return fmt.Errorf("%w: %s record has duplicate id %s", ErrInvalidInput, record, id)
	}
	c.insert(id, v)
	return nil
}

// Records encodes each collection as its own JSON document.
func (s Snapshot) Records() (map[string][]byte, error) {
	values := map[string]any{
		RecordFacilities:    s.Facilities,
		RecordPractitioners: s.Practitioners,
		RecordClients:       s.Clients,
		RecordAppointments:  s.Appointments,
		RecordDepartments:   s.Departments,
	}
	out := make(map[string][]byte, len(values))
	for _, name := range RecordNames {
		data, err := json.Marshal(values[name])
		if err != nil {
			return nil, fmt.Errorf("encode %s record: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// SnapshotFromRecords decodes records produced by Records. Missing records
// decode as empty collections; a missing department record falls back to
// the default catalog.
func SnapshotFromRecords(records map[string][]byte) (Snapshot, error) {
	var snap Snapshot
	targets := map[string]any{
		RecordFacilities:    &snap.Facilities,
		RecordPractitioners: &snap.Practitioners,
		RecordClients:       &snap.Clients,
		RecordAppointments:  &snap.Appointments,
		RecordDepartments:   &snap.Departments,
	}
	for _, name := range RecordNames {
		data, ok := records[name]
		if !ok || len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, targets[name]); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s record: %w", name, err)
		}
	}
	if snap.Departments == nil {
		snap.Departments = cloneStrings(DefaultDepartments)
	}
	return snap, nil
}
