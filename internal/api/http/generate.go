package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/quiz/document"
)

// GenerateFilename is the name generated documents are offered under.
const GenerateFilename = "output.xml"

// POST /api/generate  { "phrase": "..." }
//
// Returns a skeleton document with placeholder questions for every letter.
func GenerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Phrase string `json:"phrase"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q := quiz.New(req.Phrase)
		if q.IsEmpty() {
			http.Error(w, "phrase has no letters", http.StatusUnprocessableEntity)
			return
		}

		var buf bytes.Buffer
		if err := document.Encode(&buf, q); err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Header().Set("Content-Disposition", `attachment; filename="`+GenerateFilename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		_, _ = w.Write(buf.Bytes())
	}
}
