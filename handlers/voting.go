// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

type BallotSubmitter interface {
	SubmitBallot(ctx context.Context, pollID string, voter models.Identity, selection []string) (models.BallotReceipt, error)
}

type BallotReader interface {
	GetBallot(ctx context.Context, pollID, voterID string) (models.Ballot, error)
	ListByVoter(ctx context.Context, voterID string) ([]models.Ballot, error)
}

type VotingHandler struct {
	admission BallotSubmitter
	ballots   BallotReader
}

func NewVotingHandler(admission BallotSubmitter, ballots BallotReader) *VotingHandler {
	return &VotingHandler{admission: admission, ballots: ballots}
}

// SubmitBallot handles POST /polls/{id}/ballots
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	receipt, err := h.admission.SubmitBallot(r.Context(), r.PathValue("id"), identity, req.CandidateIDs)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, receipt)
}

// GetMyBallot handles GET /polls/{id}/my-ballot
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	ballot, err := h.ballots.GetBallot(r.Context(), r.PathValue("id"), identity.ID)
	if errors.Is(err, models.ErrNotFound) {
		middleware.JSONResponse(w, http.StatusOK, models.MyBallotResponse{HasVoted: false})
		return
	}
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyBallotResponse{
		HasVoted: true,
		Ballot:   &ballot,
	})
}

// GetHistory handles GET /ballots/mine
func (h *VotingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	ballots, err := h.ballots.ListByVoter(r.Context(), identity.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.BallotHistoryResponse{Ballots: ballots})
}
