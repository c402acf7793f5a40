package http

import (
	"fmt"
	"log"
	"mime"
	"net/http"
	"time"

	"github.com/joseph-bosch/quiz-app/internal/cert"
	"github.com/joseph-bosch/quiz-app/internal/config"
	"github.com/joseph-bosch/quiz-app/internal/quiz"
)

// CertificateHandler renders and downloads the certificate for the
// current session. Only a passed, submitted session has one. An asset
// or render failure aborts this download and nothing else; the result
// screen keeps working.
func CertificateHandler(ctrl *quiz.Controller, certs *cert.Service, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, pct, err := ctrl.CertificateData()
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		renderer, err := certs.Renderer(r.Context())
		if err != nil {
			log.Printf("certificate assets: %v", err)
			http.Error(w, "certificate assets unavailable", http.StatusServiceUnavailable)
			return
		}
		out, err := renderer.Render(cert.Spec{
			Name:           p.Name,
			Department:     p.Department,
			Percent:        pct,
			Date:           time.Now(),
			CourseTitle:    cfg.CourseTitle,
			Issuer:         cfg.CertIssuer,
			ShowDepartment: cfg.CertShowDepartment,
		})
		if err != nil {
			log.Printf("certificate render: %v", err)
			http.Error(w, "certificate render failed", http.StatusInternalServerError)
			return
		}

		disposition := mime.FormatMediaType("attachment", map[string]string{
			"filename": cert.Filename(p.Name),
		})
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", disposition)
		w.Header().Set("Content-Length", fmt.Sprint(len(out)))
		_, _ = w.Write(out)
	}
}
