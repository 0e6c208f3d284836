package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// PractitionerShareRatio is the part of a consultation fee earned by the
// practitioner. The facility receives the remainder.
var PractitionerShareRatio = decimal.RequireFromString("0.6")

// SplitFee divides a fee between practitioner and facility. The facility
// share is computed as the remainder so the two always sum to the fee.
func SplitFee(fee decimal.Decimal) (practitionerShare, facilityShare decimal.Decimal) {
	practitionerShare = fee.Mul(PractitionerShareRatio)
	facilityShare = fee.Sub(practitionerShare)
	return practitionerShare, facilityShare
}

type ReserveRequest struct {
	PractitionerID string
	FacilityID     string
	ClientID       string
	SlotID         string
}

// Reserve books a slot for a client. Every precondition is checked before
// anything is written; on success the appointment, the slot flag and the
// association, practitioner, facility and client totals change together.
func (e *Engine) Reserve(req ReserveRequest) (appt Appointment, err error) {
	defer func(start time.Time) { e.observe("reserve", start, err) }(time.Now())

	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.store.practitioner(req.PractitionerID)
	if !ok {
		return Appointment{}, ErrPractitionerNotFound
	}
	assoc, ok := associationFor(p, req.FacilityID)
	if !ok {
		return Appointment{}, ErrNoAssociation
	}
	idx := slotIndex(assoc, req.SlotID)
	if idx < 0 {
		return Appointment{}, ErrSlotNotFound
	}
	if assoc.Slots[idx].Booked {
		return Appointment{}, ErrAlreadyBooked
	}
	f, ok := e.store.facility(req.FacilityID)
	if !ok {
		return Appointment{}, ErrFacilityNotFound
	}
	c, ok := e.store.client(req.ClientID)
	if !ok {
		return Appointment{}, ErrClientNotFound
	}

	fee := assoc.ConsultationFee
	practitionerShare, facilityShare := SplitFee(fee)

	created := &Appointment{
		ID:                e.newID(),
		PractitionerID:    p.ID,
		FacilityID:        f.ID,
		FacilityName:      f.Name,
		ClientID:          c.ID,
		Slot:              assoc.Slots[idx],
		ConsultationFee:   fee,
		PractitionerShare: practitionerShare,
		FacilityShare:     facilityShare,
		Status:            StatusConfirmed,
		CreatedAt:         e.now(),
	}
	created.Slot.Booked = true

	// No failure is possible past this point.
	e.store.appointments.insert(created.ID, created)
	assoc.Slots[idx].Booked = true
	assoc.Earnings = assoc.Earnings.Add(practitionerShare)
	assoc.Consultations++
	p.TotalEarnings = p.TotalEarnings.Add(practitionerShare)
	p.TotalConsultations++
	f.TotalRevenue = f.TotalRevenue.Add(facilityShare)
	f.TotalConsultations++
	c.TotalSpent = c.TotalSpent.Add(fee)
	c.TotalConsultations++
	e.revision++

	e.log.Info().
		Str("event", EventAppointmentReserved).
		Str("appointment_id", created.ID).
		Str("practitioner_id", p.ID).
		Str("facility_id", f.ID).
		Str("client_id", c.ID).
		Str("slot_id", req.SlotID).
		Str("fee", fee.String()).
		Msg("appointment reserved")
	return *created, nil
}

// Cancel marks the appointment cancelled. The slot stays booked and no
// aggregate is reversed.
func (e *Engine) Cancel(appointmentID string) (appt Appointment, err error) {
	defer func(start time.Time) { e.observe("cancel", start, err) }(time.Now())

	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.store.appointment(appointmentID)
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	a.Status = StatusCancelled
	e.revision++

	e.log.Info().Str("event", EventAppointmentCancelled).Str("appointment_id", a.ID).Msg("appointment cancelled")
	return *a, nil
}

// SetStatus overwrites the status with accepted or rejected. The current
// status is not checked.
func (e *Engine) SetStatus(appointmentID string, status AppointmentStatus) (appt Appointment, err error) {
	defer func(start time.Time) { e.observe("set_status", start, err) }(time.Now())

	if status != StatusAccepted && status != StatusRejected {
		return Appointment{}, ErrInvalidStatus
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.store.appointment(appointmentID)
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	from := a.Status
	a.Status = status
	e.revision++

	e.log.Info().
		Str("event", EventAppointmentStatusSet).
		Str("appointment_id", a.ID).
		Str("from", string(from)).
		Str("to", string(status)).
		Msg("appointment status set")
	return *a, nil
}
