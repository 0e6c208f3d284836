package booking

// collection keeps entities keyed by id while remembering insertion order.
type collection[T any] struct {
	order []string
	items map[string]*T
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]*T)}
}

func (c *collection[T]) insert(id string, v *T) {
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = v
}

func (c *collection[T]) find(id string) (*T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *collection[T]) each(fn func(*T)) {
	for _, id := range c.order {
		fn(c.items[id])
	}
}

func (c *collection[T]) len() int {
	return len(c.order)
}

// Store holds the four mutable collections and the department catalog.
// It has no behavior of its own; all mutation goes through Engine.
type Store struct {
	facilities    *collection[Facility]
	practitioners *collection[Practitioner]
	clients       *collection[Client]
	appointments  *collection[Appointment]
	departments   []string
}

func newStore() *Store {
	return &Store{
		facilities:    newCollection[Facility](),
		practitioners: newCollection[Practitioner](),
		clients:       newCollection[Client](),
		appointments:  newCollection[Appointment](),
		departments:   cloneStrings(DefaultDepartments),
	}
}

func (s *Store) facility(id string) (*Facility, bool) {
	return s.facilities.find(id)
}

func (s *Store) practitioner(id string) (*Practitioner, bool) {
	return s.practitioners.find(id)
}

func (s *Store) client(id string) (*Client, bool) {
	return s.clients.find(id)
}

func (s *Store) appointment(id string) (*Appointment, bool) {
	return s.appointments.find(id)
}

// associationFor returns the first association of p with the facility.
// Duplicate associations for one facility are allowed; only the first is
// addressable by facility id.
func associationFor(p *Practitioner, facilityID string) (*Association, bool) {
	for i := range p.Associations {
		if p.Associations[i].FacilityID == facilityID {
			return &p.Associations[i], true
		}
	}
	return nil, false
}

func slotIndex(a *Association, slotID string) int {
	for i := range a.Slots {
		if a.Slots[i].ID == slotID {
			return i
		}
	}
	return -1
}
