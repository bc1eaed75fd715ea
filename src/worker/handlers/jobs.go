package handlers

import (
	"context"
	"net/http"
	"time"
)

const jobTimeout = 5 * time.Minute

func (h *Handler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), jobTimeout)
	defer cancel()

	summary, err := h.Controller.RefreshPrices(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, summary, http.StatusOK)
}

func (h *Handler) SnapshotPerformance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), jobTimeout)
	defer cancel()

	summary, err := h.Controller.SnapshotPerformance(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, summary, http.StatusOK)
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.Controller.ListSchedules(), http.StatusOK)
}
