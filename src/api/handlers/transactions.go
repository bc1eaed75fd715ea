package handlers

import (
	"context"
	"net/http"

	"portfolio/src/schemas"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req schemas.CreateTransactionRequest
	if err := h.decode(r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	res, err := h.Controller.CreateTransaction(ctx, principalFrom(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusCreated)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	transactions, err := h.Controller.ListTransactions(ctx, principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.respond(w, r, transactions, http.StatusOK)
}
