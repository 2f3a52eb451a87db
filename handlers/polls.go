// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-vote/clock"
	"github.com/danielhkuo/quickly-vote/lifecycle"
	"github.com/danielhkuo/quickly-vote/metrics"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

// PollService is the poll store as seen by the HTTP layer.
type PollService interface {
	CreatePoll(ctx context.Context, spec models.PollSpec, creator models.Identity, now time.Time) (models.Poll, error)
	GetPoll(ctx context.Context, id string) (models.Poll, error)
	UpdatePoll(ctx context.Context, id string, patch models.PollPatch, requester models.Identity, now time.Time) (models.Poll, error)
	ClosePoll(ctx context.Context, id string, requester models.Identity, now time.Time) (models.Poll, error)
	ListPolls(ctx context.Context, filter models.PollFilter, now time.Time) ([]models.Poll, error)
}

type PollHandler struct {
	polls   PollService
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewPollHandler(polls PollService, clk clock.Clock, m *metrics.Metrics) *PollHandler {
	if clk == nil {
		clk = clock.Real()
	}
	return &PollHandler{polls: polls, clock: clk, metrics: m}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	poll, err := h.polls.CreatePoll(r.Context(), req, identity, h.clock.Now())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	h.metrics.PollWrite("create")

	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// ListPolls handles GET /polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.PollFilter{
		CreatedBy:  query.Get("created_by"),
		Visibility: models.Visibility(query.Get("visibility")),
		Status:     models.Status(query.Get("status")),
		Phase:      models.Phase(query.Get("phase")),
	}

	if mine, _ := strconv.ParseBool(query.Get("mine")); mine {
		identity, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "identity token required")
			return
		}
		filter.CreatedBy = identity.ID
	}

	if msg := validateFilter(filter); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	polls, err := h.polls.ListPolls(r.Context(), filter, h.clock.Now())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollListResponse{Polls: polls})
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.polls.GetPoll(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// UpdatePoll handles PATCH /polls/{id}. The expected version may come from
// the body or an If-Match header.
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	var req models.UpdatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	if ifMatch := strings.Trim(r.Header.Get("If-Match"), `" `); ifMatch != "" && req.Version == nil {
		version, err := strconv.Atoi(ifMatch)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "If-Match must be a poll version")
			return
		}
		req.Version = &version
	}

	poll, err := h.polls.UpdatePoll(r.Context(), r.PathValue("id"), req, identity, h.clock.Now())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	h.metrics.PollWrite("update")

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// ClosePoll handles POST /polls/{id}/close
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	poll, err := h.polls.ClosePoll(r.Context(), r.PathValue("id"), identity, h.clock.Now())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	h.metrics.PollWrite("close")

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// GetPhase handles GET /polls/{id}/phase
func (h *PollHandler) GetPhase(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()

	poll, err := h.polls.GetPoll(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	phase, summary := lifecycle.Describe(poll, now)
	middleware.JSONResponse(w, http.StatusOK, models.PhaseResponse{
		PollID:  poll.ID,
		Phase:   phase,
		Summary: summary,
		Now:     now,
	})
}

func validateFilter(f models.PollFilter) string {
	switch f.Visibility {
	case "", models.VisibilityPublic, models.VisibilityRestricted:
	default:
		return "visibility must be public or restricted"
	}
	switch f.Status {
	case "", models.StatusActive, models.StatusEnded:
	default:
		return "status must be active or ended"
	}
	switch f.Phase {
	case "", models.PhaseScheduled, models.PhaseOpen, models.PhaseClosed:
	default:
		return "phase must be scheduled, open or closed"
	}
	return ""
}
