package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/mind-engage/mindengage-quiz/internal/game"
	"github.com/mind-engage/mindengage-quiz/internal/library"
	"github.com/mind-engage/mindengage-quiz/internal/quiz/document"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

// EventLog is the audit trail of a game.
type EventLog interface {
	Record(ctx context.Context, typ, key string, data any) error
	Recent(ctx context.Context, key string, limit int) ([]syncx.Event, error)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps domain errors to status codes. Anything unknown is
// logged and reported as 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrNoQuiz):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, game.ErrNotFound), errors.Is(err, library.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, game.ErrAnswerHidden):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, library.ErrInvalidDocument), errors.Is(err, document.ErrInvalidText):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func intParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
