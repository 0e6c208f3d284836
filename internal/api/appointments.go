package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/care-ledger/internal/booking"
)

func reserveHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReserveRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		appt, err := e.Reserve(booking.ReserveRequest{
			PractitionerID: req.PractitionerID,
			FacilityID:     req.FacilityID,
			ClientID:       req.ClientID,
			SlotID:         req.SlotID,
		})
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, appt)
	}
}

func getAppointmentHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, ok := e.Appointment(chi.URLParam(r, "id"))
		if !ok {
			notFound(w, booking.ErrAppointmentNotFound)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func cancelAppointmentHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := e.Cancel(chi.URLParam(r, "id"))
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func setStatusHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		appt, err := e.SetStatus(chi.URLParam(r, "id"), booking.AppointmentStatus(req.Status))
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}
