package booking

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type FacilityInput struct {
	Name     string
	Email    string
	Location string
}

type PractitionerInput struct {
	Name              string
	Email             string
	Qualifications    string
	Specializations   []string
	YearsOfExperience int
}

type ClientInput struct {
	Name        string
	Email       string
	Gender      string
	DateOfBirth time.Time
	ExternalID  string
}

// FacilityPatch updates profile fields; nil fields are left untouched.
type FacilityPatch struct {
	Name     *string
	Email    *string
	Location *string
}

type PractitionerPatch struct {
	Name              *string
	Email             *string
	Qualifications    *string
	Specializations   []string
	YearsOfExperience *int
}

type ClientPatch struct {
	Name        *string
	Email       *string
	Gender      *string
	DateOfBirth *time.Time
}

func (e *Engine) RegisterFacility(in FacilityInput) (f Facility, err error) {
	defer func(start time.Time) { e.observe("register_facility", start, err) }(time.Now())

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Facility{}, fmt.Errorf("%w: facility name is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	created := &Facility{
		ID:           e.newID(),
		Name:         name,
		Email:        strings.TrimSpace(in.Email),
		Location:     strings.TrimSpace(in.Location),
		Departments:  []string{},
		TotalRevenue: decimal.Zero,
		CreatedAt:    e.now(),
	}
	e.store.facilities.insert(created.ID, created)
	e.revision++

	e.log.Info().Str("event", EventFacilityRegistered).Str("facility_id", created.ID).Msg("facility registered")
	return created.clone(), nil
}

func (e *Engine) RegisterPractitioner(in PractitionerInput) (p Practitioner, err error) {
	defer func(start time.Time) { e.observe("register_practitioner", start, err) }(time.Now())

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Practitioner{}, fmt.Errorf("%w: practitioner name is required", ErrInvalidInput)
	}
	if in.YearsOfExperience < 0 {
		return Practitioner{}, fmt.Errorf("%w: years of experience cannot be negative", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	created := &Practitioner{
		ID:                e.newID(),
		Name:              name,
		Email:             strings.TrimSpace(in.Email),
		Qualifications:    strings.TrimSpace(in.Qualifications),
		Specializations:   uniqueNames(in.Specializations),
		YearsOfExperience: in.YearsOfExperience,
		TotalEarnings:     decimal.Zero,
		Associations:      []Association{},
		CreatedAt:         e.now(),
	}
	e.store.practitioners.insert(created.ID, created)
	e.revision++

	e.log.Info().Str("event", EventPractitionerRegistered).Str("practitioner_id", created.ID).Msg("practitioner registered")
	return created.clone(), nil
}

func (e *Engine) RegisterClient(in ClientInput) (c Client, err error) {
	defer func(start time.Time) { e.observe("register_client", start, err) }(time.Now())

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Client{}, fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	created := &Client{
		ID:          e.newID(),
		Name:        name,
		Email:       strings.TrimSpace(in.Email),
		Gender:      strings.TrimSpace(in.Gender),
		DateOfBirth: in.DateOfBirth,
		ExternalID:  strings.TrimSpace(in.ExternalID),
		TotalSpent:  decimal.Zero,
		CreatedAt:   e.now(),
	}
	e.store.clients.insert(created.ID, created)
	e.revision++

	e.log.Info().Str("event", EventClientRegistered).Str("client_id", created.ID).Msg("client registered")
	return *created, nil
}

// AddDepartment appends a department to the facility's ordered set.
func (e *Engine) AddDepartment(facilityID, department string) (err error) {
	defer func(start time.Time) { e.observe("add_department", start, err) }(time.Now())

	name := strings.TrimSpace(department)
	if name == "" {
		return fmt.Errorf("%w: department name is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	f, ok := e.store.facility(facilityID)
	if !ok {
		return ErrFacilityNotFound
	}
	if slices.Contains(f.Departments, name) {
		return ErrDepartmentExists
	}
	f.Departments = append(f.Departments, name)
	e.revision++

	e.log.Info().Str("event", EventDepartmentAdded).Str("facility_id", facilityID).Str("department", name).Msg("department added")
	return nil
}

// Departments returns the service category catalog.
func (e *Engine) Departments() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneStrings(e.store.departments)
}

// AvailableDepartments lists catalog entries the facility does not offer yet.
func (e *Engine) AvailableDepartments(facilityID string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	f, ok := e.store.facility(facilityID)
	if !ok {
		return nil, ErrFacilityNotFound
	}
	result := []string{}
	for _, d := range e.store.departments {
		if !slices.Contains(f.Departments, d) {
			result = append(result, d)
		}
	}
	return result, nil
}

func (e *Engine) UpdateFacility(id string, patch FacilityPatch) (f Facility, err error) {
	defer func(start time.Time) { e.observe("update_facility", start, err) }(time.Now())

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Facility{}, fmt.Errorf("%w: facility name is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stored, ok := e.store.facility(id)
	if !ok {
		return Facility{}, ErrFacilityNotFound
	}
	if patch.Name != nil {
		stored.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		stored.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Location != nil {
		stored.Location = strings.TrimSpace(*patch.Location)
	}
	e.revision++
	return stored.clone(), nil
}

// UpdatePractitioner patches profile fields. A specialization list that
// drops one still held by an association is rejected.
func (e *Engine) UpdatePractitioner(id string, patch PractitionerPatch) (p Practitioner, err error) {
	defer func(start time.Time) { e.observe("update_practitioner", start, err) }(time.Now())

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Practitioner{}, fmt.Errorf("%w: practitioner name is required", ErrInvalidInput)
	}
	if patch.YearsOfExperience != nil && *patch.YearsOfExperience < 0 {
		return Practitioner{}, fmt.Errorf("%w: years of experience cannot be negative", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stored, ok := e.store.practitioner(id)
	if !ok {
		return Practitioner{}, ErrPractitionerNotFound
	}
	var specs []string
	if patch.Specializations != nil {
		specs = uniqueNames(patch.Specializations)
		for _, assoc := range stored.Associations {
			for _, spec := range assoc.Specializations {
				if !slices.Contains(specs, spec) {
					return Practitioner{}, fmt.Errorf("%w: specialization %q is used by the association with facility %s",
						ErrInvalidInput, spec, assoc.FacilityID)
				}
			}
		}
	}
	if patch.Name != nil {
		stored.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		stored.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Qualifications != nil {
		stored.Qualifications = strings.TrimSpace(*patch.Qualifications)
	}
	if specs != nil {
		stored.Specializations = specs
	}
	if patch.YearsOfExperience != nil {
		stored.YearsOfExperience = *patch.YearsOfExperience
	}
	e.revision++
	return stored.clone(), nil
}

func (e *Engine) UpdateClient(id string, patch ClientPatch) (c Client, err error) {
	defer func(start time.Time) { e.observe("update_client", start, err) }(time.Now())

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Client{}, fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stored, ok := e.store.client(id)
	if !ok {
		return Client{}, ErrClientNotFound
	}
	if patch.Name != nil {
		stored.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		stored.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Gender != nil {
		stored.Gender = strings.TrimSpace(*patch.Gender)
	}
	if patch.DateOfBirth != nil {
		stored.DateOfBirth = *patch.DateOfBirth
	}
	e.revision++
	return *stored, nil
}

// SearchPractitioners returns practitioners with at least one association,
// optionally narrowed to a facility and to a specialization.
func (e *Engine) SearchPractitioners(facilityID, specialization string) []Practitioner {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := []Practitioner{}
	e.store.practitioners.each(func(p *Practitioner) {
		if len(p.Associations) == 0 {
			return
		}
		if facilityID != "" {
			if _, ok := associationFor(p, facilityID); !ok {
				return
			}
		}
		if specialization != "" && !slices.Contains(p.Specializations, specialization) {
			return
		}
		result = append(result, p.clone())
	})
	return result
}

// uniqueNames trims, drops blanks and duplicates, keeping first-seen order.
func uniqueNames(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
