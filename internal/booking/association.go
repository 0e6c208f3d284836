package booking

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Associate links a practitioner to a facility. The association keeps the
// requested specializations the practitioner holds that the facility also
// offers as departments; an empty request means all of the practitioner's
// specializations. Repeated calls for the same pair append independent
// associations.
func (e *Engine) Associate(practitionerID, facilityID string, specializations []string, fee decimal.Decimal) (a Association, err error) {
	defer func(start time.Time) { e.observe("associate", start, err) }(time.Now())

	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.store.practitioner(practitionerID)
	if !ok {
		return Association{}, ErrPractitionerNotFound
	}
	f, ok := e.store.facility(facilityID)
	if !ok {
		return Association{}, ErrFacilityNotFound
	}

	requested := uniqueNames(specializations)
	if len(requested) == 0 {
		requested = p.Specializations
	}

	effective := []string{}
	for _, spec := range requested {
		if slices.Contains(p.Specializations, spec) && slices.Contains(f.Departments, spec) {
			effective = append(effective, spec)
		}
	}
	if len(effective) == 0 {
		return Association{}, ErrNoMatch
	}
	if !fee.IsPositive() {
		return Association{}, ErrInvalidFee
	}

	created := Association{
		FacilityID:      f.ID,
		FacilityName:    f.Name,
		Specializations: effective,
		ConsultationFee: fee,
		Slots:           []TimeSlot{},
		Earnings:        decimal.Zero,
	}
	p.Associations = append(p.Associations, created)
	e.revision++

	e.log.Info().
		Str("event", EventPractitionerAssociated).
		Str("practitioner_id", practitionerID).
		Str("facility_id", facilityID).
		Strs("specializations", effective).
		Str("fee", fee.String()).
		Msg("practitioner associated")
	return created.clone(), nil
}
