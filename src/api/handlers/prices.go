package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Stays under the server write timeout.
const refreshTimeout = 25 * time.Second

func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	quotes, err := h.Controller.ListPrices(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, quotes, http.StatusOK)
}

func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	quote, err := h.Controller.GetPrice(ctx, chi.URLParam(r, "symbol"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, quote, http.StatusOK)
}

func (h *Handler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	summary, err := h.Controller.RefreshPrices(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, summary, http.StatusOK)
}
