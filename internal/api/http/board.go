package http

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/hlog"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/game"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

const wsWriteTimeout = 5 * time.Second

// GET /api/board
func GetBoardHandler(sess *game.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, sess.Snapshot())
	}
}

// POST /api/board/reset
func ResetBoardHandler(sess *game.Session, events EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sess.Reset(); err != nil {
			respondError(w, r, err)
			return
		}
		snap := sess.Snapshot()
		if err := events.Record(r.Context(), syncx.TypeBoardReset, snap.Source,
			map[string]any{"by": auth.SubjectFromContext(r.Context())}); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("record board reset")
		}
		respondJSON(w, http.StatusOK, snap)
	}
}

// GET /api/board/ws streams a snapshot on connect and after every change.
// Messages from the client are ignored.
func BoardWSHandler(sess *game.Session, origins []string) http.HandlerFunc {
	opts := &websocket.AcceptOptions{OriginPatterns: originPatterns(origins)}
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)
		ws, err := websocket.Accept(w, r, opts)
		if err != nil {
			log.Warn().Err(err).Msg("board websocket accept")
			return
		}
		defer ws.CloseNow()

		ctx := ws.CloseRead(r.Context())
		updates, cancel := sess.Subscribe()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-updates:
				if err := writeSnapshot(ctx, ws, snap); err != nil {
					log.Debug().Err(err).Msg("board websocket closed")
					return
				}
			}
		}
	}
}

func writeSnapshot(ctx context.Context, ws *websocket.Conn, snap game.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, snap)
}

// originPatterns turns CORS origins into the host patterns the websocket
// origin check expects.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			out = append(out, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		out = append(out, u.Host)
	}
	return out
}
