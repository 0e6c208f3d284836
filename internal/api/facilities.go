package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/care-ledger/internal/booking"
)

func createFacilityHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FacilityRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		f, err := e.RegisterFacility(req.input())
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	}
}

func getFacilityHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := e.Facility(chi.URLParam(r, "id"))
		if !ok {
			notFound(w, booking.ErrFacilityNotFound)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func updateFacilityHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FacilityPatchRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		f, err := e.UpdateFacility(chi.URLParam(r, "id"), req.patch())
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func addDepartmentHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DepartmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		id := chi.URLParam(r, "id")
		if err := e.AddDepartment(id, req.Name); err != nil {
			handleEngineError(w, err)
			return
		}
		f, _ := e.Facility(id)
		writeJSON(w, http.StatusCreated, f)
	}
}

func availableDepartmentsHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps, err := e.AvailableDepartments(chi.URLParam(r, "id"))
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DepartmentsResponse{Departments: deps})
	}
}

func listDepartmentsHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, DepartmentsResponse{Departments: e.Departments()})
	}
}

func facilityReportHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, err := windowParam(r)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		top, err := intParam(r, "top", booking.DefaultTopPractitioners)
		if err != nil {
			handleEngineError(w, err)
			return
		}

		report, err := e.FacilityReport(chi.URLParam(r, "id"), window, top)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// listAppointmentsHandler serves the appointment listing of a facility or a
// practitioner identified by the {id} path parameter.
func listAppointmentsHandler(e *booking.Engine, kind booking.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := e.ListAppointmentsFor(kind, chi.URLParam(r, "id"))
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appts)
	}
}
