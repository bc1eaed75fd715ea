package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"portfolio/src/utils"
	"portfolio/src/worker/controllers"
)

type Handler struct {
	Controller *controllers.Controller
}

func NewHandler(controller *controllers.Controller) *Handler {
	return &Handler{Controller: controller}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

// HandleErrors reports a failed job run and logs it, since nobody else watches manual triggers.
func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *utils.HTTPError
	status, message := http.StatusInternalServerError, "Internal Server Error"
	switch {
	case errors.As(err, &httpErr):
		status, message = httpErr.Code, httpErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "Job timed out"
	case errors.Is(err, context.Canceled):
		status, message = http.StatusServiceUnavailable, "Job cancelled"
	}

	utils.LoggerFromContext(r.Context()).
		WithError(err).
		WithField("path", r.URL.Path).
		Error("Job failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
