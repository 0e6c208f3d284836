package booking

import (
	"time"
)

// PublishSlot adds an unbooked slot [start, end) to the practitioner's
// calendar at the facility.
func (e *Engine) PublishSlot(practitionerID, facilityID string, start, end time.Time) (slot TimeSlot, err error) {
	defer func(began time.Time) { e.observe("publish_slot", began, err) }(time.Now())

	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.store.practitioner(practitionerID)
	if !ok {
		return TimeSlot{}, ErrPractitionerNotFound
	}
	assoc, ok := associationFor(p, facilityID)
	if !ok {
		return TimeSlot{}, ErrNoAssociation
	}
	if !end.After(start) {
		return TimeSlot{}, ErrInvalidRange
	}
	if start.Before(e.now()) {
		return TimeSlot{}, ErrPastDate
	}
	for _, existing := range assoc.Slots {
		if existing.Overlaps(start, end) {
			return TimeSlot{}, ErrOverlap
		}
	}

	slot = TimeSlot{
		ID:    e.newID(),
		Start: start,
		End:   end,
	}
	assoc.Slots = append(assoc.Slots, slot)
	e.revision++

	e.log.Info().
		Str("event", EventSlotPublished).
		Str("practitioner_id", practitionerID).
		Str("facility_id", facilityID).
		Str("slot_id", slot.ID).
		Time("start", start).
		Time("end", end).
		Msg("slot published")
	return slot, nil
}

// Calendar returns the slots of one association sorted by start.
func (e *Engine) Calendar(practitionerID, facilityID string) ([]TimeSlot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.store.practitioner(practitionerID)
	if !ok {
		return nil, ErrPractitionerNotFound
	}
	assoc, ok := associationFor(p, facilityID)
	if !ok {
		return nil, ErrNoAssociation
	}
	slots := append([]TimeSlot{}, assoc.Slots...)
	sortSlots(slots)
	return slots, nil
}

// OpenSlots returns unbooked slots across all of the practitioner's
// associations, sorted by start. A non-nil day keeps only slots starting on
// that calendar day in the day's location.
func (e *Engine) OpenSlots(practitionerID string, day *time.Time) ([]OpenSlot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.store.practitioner(practitionerID)
	if !ok {
		return nil, ErrPractitionerNotFound
	}

	result := []OpenSlot{}
	for _, assoc := range p.Associations {
		for _, slot := range assoc.Slots {
			if slot.Booked {
				continue
			}
			if day != nil && !sameDay(slot.Start.In(day.Location()), *day) {
				continue
			}
			result = append(result, OpenSlot{
				TimeSlot:        slot,
				FacilityID:      assoc.FacilityID,
				FacilityName:    assoc.FacilityName,
				ConsultationFee: assoc.ConsultationFee,
				Specializations: cloneStrings(assoc.Specializations),
			})
		}
	}
	sortOpenSlots(result)
	return result, nil
}

// SlotStats counts available and booked slots across all associations.
func (e *Engine) SlotStats(practitionerID string) (SlotStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.store.practitioner(practitionerID)
	if !ok {
		return SlotStats{}, ErrPractitionerNotFound
	}
	return slotStats(p), nil
}

func slotStats(p *Practitioner) SlotStats {
	var stats SlotStats
	for _, assoc := range p.Associations {
		for _, slot := range assoc.Slots {
			if slot.Booked {
				stats.Booked++
			} else {
				stats.Available++
			}
		}
	}
	return stats
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
