package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/care-ledger/internal/booking"
)

func createPractitionerHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PractitionerRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := e.RegisterPractitioner(req.input())
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func getPractitionerHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := e.Practitioner(chi.URLParam(r, "id"))
		if !ok {
			notFound(w, booking.ErrPractitionerNotFound)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updatePractitionerHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PractitionerPatchRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := e.UpdatePractitioner(chi.URLParam(r, "id"), req.patch())
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// searchPractitionersHandler filters by ?facility_id= and ?specialization=.
func searchPractitionersHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, e.SearchPractitioners(q.Get("facility_id"), q.Get("specialization")))
	}
}

func associateHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssociationRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		a, err := e.Associate(chi.URLParam(r, "id"), req.FacilityID, req.Specializations, req.ConsultationFee)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func publishSlotHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		slot, err := e.PublishSlot(chi.URLParam(r, "id"), chi.URLParam(r, "facilityID"), req.Start, req.End)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, slot)
	}
}

func calendarHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := e.Calendar(chi.URLParam(r, "id"), chi.URLParam(r, "facilityID"))
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
	}
}

// openSlotsHandler accepts an optional ?date=YYYY-MM-DD.
func openSlotsHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var day *time.Time
		if raw := r.URL.Query().Get("date"); raw != "" {
			d, err := parseDate(raw)
			if err != nil {
				handleEngineError(w, err)
				return
			}
			day = &d
		}

		slots, err := e.OpenSlots(chi.URLParam(r, "id"), day)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
	}
}

func practitionerReportHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, err := windowParam(r)
		if err != nil {
			handleEngineError(w, err)
			return
		}

		report, err := e.PractitionerReport(chi.URLParam(r, "id"), window)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
