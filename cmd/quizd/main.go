package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	api "github.com/joseph-bosch/quiz-app/internal/api/http"
	"github.com/joseph-bosch/quiz-app/internal/cert"
	"github.com/joseph-bosch/quiz-app/internal/config"
	"github.com/joseph-bosch/quiz-app/internal/db"
	"github.com/joseph-bosch/quiz-app/internal/history"
	"github.com/joseph-bosch/quiz-app/internal/quiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := history.NewSQLStore(dbh)

	// --- Engine ---
	var source quiz.BankSource
	if strings.HasPrefix(cfg.BankURL, "http://") || strings.HasPrefix(cfg.BankURL, "https://") {
		source = &quiz.HTTPSource{URL: cfg.BankURL}
	} else {
		source = &quiz.FileSource{Path: cfg.BankURL}
	}
	ctrl := quiz.NewController(quiz.ControllerConfig{
		SampleSize:   cfg.SampleSize,
		PassMark:     cfg.PassMark,
		AdvanceDelay: cfg.AdvanceDelay,
	}, source, store, nil)
	certs := cert.NewService(cfg.TemplatePath, cfg.FontPath)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/session", func(sr chi.Router) {
		sr.Post("/", api.StartSessionHandler(ctrl, cfg))
		sr.Get("/", api.GetSessionHandler(ctrl))
		sr.Post("/select", api.SelectHandler(ctrl))
		sr.Post("/next", api.AdvanceHandler(ctrl))
		sr.Post("/submit", api.SubmitHandler(ctrl))
		sr.Post("/retry", api.RetryHandler(ctrl))
		sr.Post("/reset", api.ResetHandler(ctrl))
		sr.Get("/certificate", api.CertificateHandler(ctrl, certs, cfg))
	})

	r.Route("/history", func(hr chi.Router) {
		hr.Use(api.RequireAdmin(cfg))
		hr.Get("/", api.ListHistoryHandler(store))
		hr.Get("/export", api.ExportHistoryHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s, passMark=%d)", cfg.HTTPAddr, cfg.DBDriver, cfg.PassMark)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
