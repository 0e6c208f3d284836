package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hackgods/care-ledger/internal/booking"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
		return false
	}
	return true
}

// handleEngineError maps booking sentinels to HTTP statuses. The machine code
// is the same label used for metrics.
func handleEngineError(w http.ResponseWriter, err error) {
	code := booking.Outcome(err)
	switch {
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, code, err.Error())
	case errors.Is(err, booking.ErrAlreadyBooked),
		errors.Is(err, booking.ErrOverlap),
		errors.Is(err, booking.ErrDepartmentExists):
		writeError(w, http.StatusConflict, code, err.Error())
	case errors.Is(err, booking.ErrNoMatch),
		errors.Is(err, booking.ErrNoAssociation),
		errors.Is(err, booking.ErrInvalidFee),
		errors.Is(err, booking.ErrInvalidRange),
		errors.Is(err, booking.ErrPastDate),
		errors.Is(err, booking.ErrSlotNotFound),
		errors.Is(err, booking.ErrInvalidStatus):
		writeError(w, http.StatusUnprocessableEntity, code, err.Error())
	case errors.Is(err, booking.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, code, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func notFound(w http.ResponseWriter, err error) {
	writeError(w, http.StatusNotFound, "not_found", err.Error())
}

// windowParam reads ?window=, defaulting to all.
func windowParam(r *http.Request) (booking.Window, error) {
	return booking.ParseWindow(r.URL.Query().Get("window"))
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", booking.ErrInvalidInput, name)
	}
	return n, nil
}
