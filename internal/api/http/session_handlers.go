package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/joseph-bosch/quiz-app/internal/config"
	"github.com/joseph-bosch/quiz-app/internal/quiz"
)

// StartSessionHandler captures the participant identity and kicks off
// the bank load. Which identity fields are mandatory is a deployment
// option; the name always is.
func StartSessionHandler(ctrl *quiz.Controller, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name       string `json:"name"`
			EmployeeNo string `json:"employee_no"`
			Department string `json:"department"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		p := quiz.Participant{
			Name:       strings.TrimSpace(req.Name),
			EmployeeNo: strings.TrimSpace(req.EmployeeNo),
			Department: strings.TrimSpace(req.Department),
		}
		if p.Name == "" {
			http.Error(w, "name required", 400)
			return
		}
		if cfg.CollectEmployeeNo && p.EmployeeNo == "" {
			http.Error(w, "employee number required", 400)
			return
		}
		if cfg.CollectDepartment && p.Department == "" {
			http.Error(w, "department required", 400)
			return
		}
		if err := ctrl.Start(p); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		writeJSON(w, ctrl.Snapshot())
	}
}

func GetSessionHandler(ctrl *quiz.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, ctrl.Snapshot())
	}
}

func SelectHandler(ctrl *quiz.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Option string `json:"option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := ctrl.Select(req.Option); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, ctrl.Snapshot())
	}
}

func AdvanceHandler(ctrl *quiz.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.Advance(); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, ctrl.Snapshot())
	}
}

func SubmitHandler(ctrl *quiz.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := ctrl.Submit(r.Context()); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, ctrl.Snapshot())
	}
}

func RetryHandler(ctrl *quiz.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.Retry(); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, ctrl.Snapshot())
	}
}

func ResetHandler(ctrl *quiz.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl.Reset()
		writeJSON(w, ctrl.Snapshot())
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrSubmitted):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrNoSession), errors.Is(err, quiz.ErrNotQuestion):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrNotPassed):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
