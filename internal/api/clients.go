package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/care-ledger/internal/booking"
)

func createClientHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClientRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in, err := req.input()
		if err != nil {
			handleEngineError(w, err)
			return
		}

		c, err := e.RegisterClient(in)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func getClientHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := e.Client(chi.URLParam(r, "id"))
		if !ok {
			notFound(w, booking.ErrClientNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func updateClientHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClientPatchRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		patch, err := req.patch()
		if err != nil {
			handleEngineError(w, err)
			return
		}

		c, err := e.UpdateClient(chi.URLParam(r, "id"), patch)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// clientHistoryHandler accepts ?filter=all|upcoming|past|cancelled.
func clientHistoryHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := booking.HistoryFilter(r.URL.Query().Get("filter"))
		appts, err := e.ClientHistory(chi.URLParam(r, "id"), filter)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appts)
	}
}
