package http

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/game"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

// GET /api/questions
func ListQuestionsHandler(sess *game.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, sess.Remaining())
	}
}

// GET /api/questions/{index}
func GetQuestionHandler(sess *game.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, ok := intParam(r, "index")
		if !ok {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		p, err := sess.Open(idx)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// POST /api/questions/{index}/answer
func ShowAnswerHandler(sess *game.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, ok := intParam(r, "index")
		if !ok {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		ans, err := sess.ShowAnswer(idx)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"index": idx, "answer": ans})
	}
}

// POST /api/questions/{index}/dismiss
func DismissHandler(sess *game.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, ok := intParam(r, "index")
		if !ok {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		if err := sess.Dismiss(idx); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type acceptResponse struct {
	game.Result
	Index  int `json:"index"`
	Images int `json:"images"`
}

// POST /api/questions/{index}/accept reveals the letter. Images of the
// question become available under /images/{n}.
func AcceptHandler(sess *game.Session, events EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, ok := intParam(r, "index")
		if !ok {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		res, err := sess.Accept(idx)
		if err != nil {
			respondError(w, r, err)
			return
		}

		data := map[string]any{
			"index":  idx,
			"letter": res.Letter,
			"solved": res.Solved,
			"by":     auth.SubjectFromContext(r.Context()),
		}
		if err := events.Record(r.Context(), syncx.TypeLetterRevealed, res.Source, data); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("record letter revealed")
		}
		respondJSON(w, http.StatusOK, acceptResponse{Result: res, Index: idx, Images: len(res.Images)})
	}
}

// GET /api/questions/{index}/images/{n}
//
// Transform hints travel as headers; the bytes are served untouched.
func QuestionImageHandler(sess *game.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, ok := intParam(r, "index")
		n, ok2 := intParam(r, "n")
		if !ok || !ok2 {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		img, err := sess.Image(idx, n)
		if err != nil {
			respondError(w, r, err)
			return
		}
		h := w.Header()
		if img.BgColor != "" {
			h.Set("X-Image-Bg", img.BgColor)
		}
		h.Set("X-Image-Flip-H", strconv.FormatBool(img.FlipH))
		h.Set("X-Image-Flip-V", strconv.FormatBool(img.FlipV))
		h.Set("X-Image-Rotate", strconv.Itoa(img.Rotate))
		http.ServeFile(w, r, img.Path)
	}
}
