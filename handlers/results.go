// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

type ResultsComputer interface {
	ComputeResults(ctx context.Context, pollID string) (models.PollResult, error)
}

type ResultsHandler struct {
	tally ResultsComputer
}

func NewResultsHandler(tally ResultsComputer) *ResultsHandler {
	return &ResultsHandler{tally: tally}
}

// GetResults handles GET /polls/{id}/results
// Results are readable in every phase; while a poll is open they are a
// live snapshot.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	result, err := h.tally.ComputeResults(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}
