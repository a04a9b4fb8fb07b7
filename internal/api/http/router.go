package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/game"
	"github.com/mind-engage/mindengage-quiz/internal/library"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type Deps struct {
	Session     *game.Session
	Library     *library.Service
	Events      EventLog
	Auth        *auth.AuthService
	Log         zerolog.Logger
	CORSOrigins []string
	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func() error
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(hlog.NewHandler(d.Log), accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition", "X-Image-Bg", "X-Image-Flip-H", "X-Image-Flip-V", "X-Image-Rotate"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(d.Auth))

	// long-lived, so it stays outside the timeout group
	r.Get("/api/board/ws", BoardWSHandler(d.Session, d.CORSOrigins))

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.Timeout(30 * time.Second))

		// Public: the board and what players may see of the questions.
		pr.Get("/api/board", GetBoardHandler(d.Session))
		pr.Get("/api/questions", ListQuestionsHandler(d.Session))
		pr.Get("/api/questions/{index}", GetQuestionHandler(d.Session))
		pr.Get("/api/questions/{index}/images/{n}", QuestionImageHandler(d.Session))

		// Host: JWT → role in context → RBAC
		pr.Group(func(hr chi.Router) {
			hr.Use(auth.JWTMiddleware(d.Auth))

			hr.With(rbac.Require("question:answer")).
				Post("/api/questions/{index}/answer", ShowAnswerHandler(d.Session))
			hr.With(rbac.Require("question:answer")).
				Post("/api/questions/{index}/accept", AcceptHandler(d.Session, d.Events))
			hr.With(rbac.Require("question:answer")).
				Post("/api/questions/{index}/dismiss", DismissHandler(d.Session))
			hr.With(rbac.Require("board:reset")).
				Post("/api/board/reset", ResetBoardHandler(d.Session, d.Events))

			hr.With(rbac.Require("quiz:generate")).
				Post("/api/generate", GenerateHandler())

			hr.With(rbac.Require("library:manage")).
				Post("/api/library", UploadLibraryHandler(d.Library))
			hr.With(rbac.Require("library:view")).
				Get("/api/library", ListLibraryHandler(d.Library))
			hr.With(rbac.Require("library:manage")).
				Delete("/api/library/{id}", DeleteLibraryHandler(d.Library))
			hr.With(rbac.Require("library:view")).
				Get("/api/library/{id}/files/*", LibraryFileHandler(d.Library))
			hr.With(rbac.Require("library:open")).
				Post("/api/library/{id}/open", OpenLibraryHandler(d.Library, d.Session, d.Events))

			hr.With(rbac.Require("events:view")).
				Get("/api/events", ListEventsHandler(d.Events))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// accessLog writes one line per request through the request's logger.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("req_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})
