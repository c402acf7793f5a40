package http

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/joseph-bosch/quiz-app/internal/config"
	"github.com/joseph-bosch/quiz-app/internal/history"
)

// RequireAdmin gates history views behind the name allow-list. There is
// deliberately no stronger authentication on this deployment; the name
// comes from the same field the start form collects.
func RequireAdmin(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimSpace(r.URL.Query().Get("name"))
			if !cfg.IsAdmin(name) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GET /history?name=...&limit=10&offset=0
func ListHistoryHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 10)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

		records, total, err := store.List(r.Context(), history.ListOpts{Limit: limit, Offset: offset})
		if err != nil {
			log.Printf("history list: %v", err)
			http.Error(w, "history unavailable", 500)
			return
		}
		writeJSON(w, struct {
			Records []history.Record `json:"records"`
			Total   int              `json:"total"`
		}{Records: records, Total: total})
	}
}

// GET /history/export?name=...
func ExportHistoryHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, _, err := store.List(r.Context(), history.ListOpts{Limit: 200})
		if err != nil {
			log.Printf("history export: %v", err)
			http.Error(w, "history unavailable", 500)
			return
		}
		out, err := history.ExportXLSX(records)
		if err != nil {
			log.Printf("history export: %v", err)
			http.Error(w, "export failed", 500)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+history.ExportFilename+`"`)
		w.Header().Set("Content-Length", fmt.Sprint(len(out)))
		_, _ = w.Write(out)
	}
}
