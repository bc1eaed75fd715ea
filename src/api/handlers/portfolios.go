package handlers

import (
	"context"
	"net/http"
	"time"

	"portfolio/src/schemas"
	"portfolio/src/utils"

	"github.com/go-chi/chi/v5"
)

const requestTimeout = 10 * time.Second

func (h *Handler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req schemas.CreatePortfolioRequest
	if err := h.decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	portfolio, err := h.Controller.CreatePortfolio(ctx, principalFrom(r), &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, portfolio, http.StatusCreated)
}

func (h *Handler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	portfolios, err := h.Controller.ListPortfolios(ctx, principalFrom(r))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, portfolios, http.StatusOK)
}

func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	portfolio, err := h.Controller.GetPortfolio(ctx, principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, portfolio, http.StatusOK)
}

func (h *Handler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Controller.DeletePortfolio(ctx, principalFrom(r), chi.URLParam(r, "id")); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, nil, http.StatusNoContent)
}

func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	holdings, err := h.Controller.GetHoldings(ctx, principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, holdings, http.StatusOK)
}

func (h *Handler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	// window limits the history to recent months, e.g. ?window=6m or ?window=1y
	var since time.Time
	if window := r.URL.Query().Get("window"); window != "" {
		interval, err := utils.ParseTimeInterval(window)
		if err != nil {
			h.HandleErrors(w, r, utils.BadRequest(err.Error()))
			return
		}
		since = interval.Before(time.Now())
	}

	history, err := h.Controller.GetPerformance(ctx, principalFrom(r), chi.URLParam(r, "id"), since)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, history, http.StatusOK)
}
