package http

import (
	"net/http"
	"strconv"
)

// GET /api/events?key=<quiz id>&limit=50
func ListEventsHandler(events EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := events.Recent(r.Context(), r.URL.Query().Get("key"), limit)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}
