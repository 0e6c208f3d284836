package booking

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	EventFacilityRegistered     = "facility_registered"
	EventPractitionerRegistered = "practitioner_registered"
	EventClientRegistered       = "client_registered"
	EventDepartmentAdded        = "department_added"
	EventPractitionerAssociated = "practitioner_associated"
	EventSlotPublished          = "slot_published"
	EventAppointmentReserved    = "appointment_reserved"
	EventAppointmentCancelled   = "appointment_cancelled"
	EventAppointmentStatusSet   = "appointment_status_set"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDepartmentExists = errors.New("department already exists in facility")
	ErrNoMatch          = errors.New("no requested specialization matches a facility department")
	ErrNoAssociation    = errors.New("practitioner is not associated with facility")
	ErrInvalidFee       = errors.New("consultation fee must be positive")
	ErrInvalidRange     = errors.New("slot end must be after start")
	ErrPastDate         = errors.New("slot starts in the past")
	ErrOverlap          = errors.New("slot overlaps an existing slot")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrAlreadyBooked    = errors.New("slot already booked")
	ErrInvalidStatus    = errors.New("invalid appointment status")
)

// Observer receives one observation per engine operation.
type Observer interface {
	ObserveOperation(operation, outcome string, elapsed time.Duration)
}

// Engine owns the store and is the only way to mutate it. Every exported
// method runs to completion under the engine lock, so a caller never sees
// a partially applied operation.
type Engine struct {
	mu       sync.RWMutex
	store    *Store
	revision uint64

	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
	observer Observer
}

type Option func(*Engine)

// WithClock overrides the time source used for past-date checks,
// timestamps and reporting windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		store: newStore(),
		now:   time.Now,
		newID: uuid.NewString,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Revision increases on every successful mutation.
func (e *Engine) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}

func (e *Engine) observe(operation string, start time.Time, err error) {
	if err != nil {
		e.log.Debug().Err(err).Str("operation", operation).Str("outcome", Outcome(err)).Msg("operation rejected")
	}
	if e.observer == nil {
		return
	}
	e.observer.ObserveOperation(operation, Outcome(err), time.Since(start))
}

// Outcome turns an engine error into a short label, "ok" for nil.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrNoAssociation):
		return "no_association"
	case errors.Is(err, ErrInvalidFee):
		return "invalid_fee"
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrPastDate):
		return "past_date"
	case errors.Is(err, ErrOverlap):
		return "overlap"
	case errors.Is(err, ErrSlotNotFound):
		return "slot_not_found"
	case errors.Is(err, ErrAlreadyBooked):
		return "already_booked"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, ErrDepartmentExists):
		return "department_exists"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

// Facility returns a copy of the facility, or false when absent.
func (e *Engine) Facility(id string) (Facility, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.store.facility(id)
	if !ok {
		return Facility{}, false
	}
	return f.clone(), true
}

func (e *Engine) Practitioner(id string) (Practitioner, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.store.practitioner(id)
	if !ok {
		return Practitioner{}, false
	}
	return p.clone(), true
}

func (e *Engine) Client(id string) (Client, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.store.client(id)
	if !ok {
		return Client{}, false
	}
	return *c, true
}

func (e *Engine) Appointment(id string) (Appointment, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.store.appointment(id)
	if !ok {
		return Appointment{}, false
	}
	return *a, true
}

// ListAppointmentsFor returns, in booking order, the appointments that
// reference the given facility, practitioner or client.
func (e *Engine) ListAppointmentsFor(kind Kind, id string) ([]Appointment, error) {
	var match func(*Appointment) bool
	switch kind {
	case KindFacility:
		match = func(a *Appointment) bool { return a.FacilityID == id }
	case KindPractitioner:
		match = func(a *Appointment) bool { return a.PractitionerID == id }
	case KindClient:
		match = func(a *Appointment) bool { return a.ClientID == id }
	default:
		return nil, ErrInvalidInput
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.appointmentsWhere(match), nil
}

func (e *Engine) appointmentsWhere(match func(*Appointment) bool) []Appointment {
	result := []Appointment{}
	e.store.appointments.each(func(a *Appointment) {
		if match(a) {
			result = append(result, *a)
		}
	})
	return result
}

type HistoryFilter string

const (
	HistoryAll       HistoryFilter = "all"
	HistoryUpcoming  HistoryFilter = "upcoming"
	HistoryPast      HistoryFilter = "past"
	HistoryCancelled HistoryFilter = "cancelled"
)

// ClientHistory lists a client's appointments. Upcoming and past only
// consider confirmed appointments and compare the slot start with now.
func (e *Engine) ClientHistory(clientID string, filter HistoryFilter) ([]Appointment, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.store.client(clientID); !ok {
		return nil, ErrClientNotFound
	}

	now := e.now()
	var match func(*Appointment) bool
	switch filter {
	case HistoryAll, "":
		match = func(*Appointment) bool { return true }
	case HistoryUpcoming:
		match = func(a *Appointment) bool {
			return a.Status == StatusConfirmed && a.Slot.Start.After(now)
		}
	case HistoryPast:
		match = func(a *Appointment) bool {
			return a.Status == StatusConfirmed && a.Slot.Start.Before(now)
		}
	case HistoryCancelled:
		match = func(a *Appointment) bool { return a.Status == StatusCancelled }
	default:
		return nil, ErrInvalidInput
	}

	return e.appointmentsWhere(func(a *Appointment) bool {
		return a.ClientID == clientID && match(a)
	}), nil
}

func sortSlots(slots []TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
}

func sortOpenSlots(slots []OpenSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
}
