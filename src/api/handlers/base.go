package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"portfolio/src/api/controllers"
	"portfolio/src/services"
	"portfolio/src/utils"
)

type Handler struct {
	Controller controllers.IController
}

func NewHandler(controller controllers.IController) *Handler {
	return &Handler{Controller: controller}
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

// HandleErrors maps domain errors onto status codes. Unknown errors are logged and reported as 500.
func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var (
		httpErr      *utils.HTTPError
		validation   *services.ValidationError
		insufficient *services.InsufficientQuantityError
	)
	switch {
	case errors.As(err, &validation):
		h.respond(w, r, map[string]string{"error": validation.Error(), "field": validation.Field}, http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		h.respond(w, r, map[string]string{"error": "not found"}, http.StatusNotFound)
	case errors.As(err, &insufficient):
		h.respond(w, r, map[string]interface{}{
			"error":   fmt.Sprintf("%s (short by %d)", insufficient.Error(), insufficient.Deficit()),
			"deficit": insufficient.Deficit(),
		}, http.StatusUnprocessableEntity)
	case errors.As(err, &httpErr):
		h.respond(w, r, map[string]string{"error": httpErr.Message}, httpErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		h.respond(w, r, map[string]string{"error": "Request timed out"}, http.StatusGatewayTimeout)
	default:
		if r != nil {
			utils.LoggerFromContext(r.Context()).WithError(err).Error("Unhandled error")
		}
		h.respond(w, r, map[string]string{"error": "Internal Server Error"}, http.StatusInternalServerError)
	}
}

func (h *Handler) decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return utils.BadRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
