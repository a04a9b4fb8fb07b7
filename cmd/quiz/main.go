package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/game"
	"github.com/mind-engage/mindengage-quiz/internal/library"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz/document"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

func main() {
	args := os.Args[1:]

	// quiz -generate "<phrase>": write output.xml and exit, no server.
	if phrase, ok := generateArgs(args); ok {
		if _, err := generate(".", phrase); err != nil {
			log := logger.Setup("warn", "pretty")
			log.Warn().Err(err).Msg("generate failed")
		}
		return
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log := logger.Setup("info", "pretty")
		log.Fatal().Err(err).Msg("config")
	}
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("mode", string(cfg.Mode)).
		Str("db", cfg.DBDriver).
		Msg("starting quiz server")

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db open failed")
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("blob store")
	}

	// --- Auth ---
	passHash := cfg.HostPassHash
	if passHash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.HostPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Msg("hash host password")
		}
		passHash = string(h)
		log.Warn().Str("user", cfg.HostUser).Msg("using HOST_PASSWORD; set HOST_PASS_HASH outside development")
	}
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.HostUser, passHash)

	// --- Game ---
	sess := game.NewSession()
	if len(args) == 1 {
		preload(log, sess, args[0])
	}

	r := api.NewRouter(api.Deps{
		Session:     sess,
		Library:     library.NewService(library.NewSQLStore(dbh), bs),
		Events:      syncx.NewEventRepo(dbh),
		Auth:        authSvc,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins(),
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return dbh.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

// preload starts the game with the document at path. A bad document leaves
// the board empty.
func preload(log zerolog.Logger, sess *game.Session, path string) {
	q, err := document.Load(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not load quiz document")
		return
	}
	if err := sess.Load(q, path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not start quiz")
		return
	}
	log.Info().Str("path", path).Int("letters", len(q.Letters)).Msg("quiz loaded")
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
