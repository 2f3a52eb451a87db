// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/lifecycle"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/polltype"
)

// PollStore is the durable record of polls and their candidates.
type PollStore struct {
	db      *sql.DB
	dialect db.Dialect
	logger  *slog.Logger
}

func NewPollStore(conn *sql.DB, dialect db.Dialect, logger *slog.Logger) *PollStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollStore{db: conn, dialect: dialect, logger: logger}
}

// CreatePoll validates spec and stores a new active poll owned by creator.
func (s *PollStore) CreatePoll(ctx context.Context, spec models.PollSpec, creator models.Identity, now time.Time) (models.Poll, error) {
	if creator.Role != models.RoleAdmin {
		return models.Poll{}, fmt.Errorf("only admins can create polls: %w", models.ErrForbidden)
	}

	if spec.Visibility == "" {
		spec.Visibility = models.VisibilityPublic
	}
	spec.Title = strings.TrimSpace(spec.Title)
	candidates := normalizeCandidates(spec.Candidates)

	if err := validateShape(spec.Title, candidates, spec.StartDate, spec.EndDate, spec.PollType, spec.Visibility); err != nil {
		return models.Poll{}, err
	}

	pollID, err := auth.GenerateID(16)
	if err != nil {
		return models.Poll{}, err
	}

	poll := models.Poll{
		ID:          pollID,
		Title:       spec.Title,
		Description: strings.TrimSpace(spec.Description),
		StartDate:   spec.StartDate.UTC(),
		EndDate:     spec.EndDate.UTC(),
		PollType:    spec.PollType,
		Visibility:  spec.Visibility,
		Status:      models.StatusActive,
		CreatedBy:   creator.ID,
		CreatedAt:   now.UTC(),
		Version:     1,
	}
	for i, c := range candidates {
		candidateID, err := auth.GenerateID(12)
		if err != nil {
			return models.Poll{}, err
		}
		poll.Candidates = append(poll.Candidates, models.Candidate{
			ID:          candidateID,
			Name:        c.Name,
			Description: c.Description,
			Position:    i,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, title, description, poll_type, visibility, status,
		                  start_date, end_date, created_by, created_at, total_votes, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 1)
	`, poll.ID, poll.Title, poll.Description, string(poll.PollType), string(poll.Visibility),
		string(poll.Status), poll.StartDate, poll.EndDate, poll.CreatedBy, poll.CreatedAt)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to insert poll: %w", err)
	}

	for _, c := range poll.Candidates {
		if err := insertCandidate(ctx, tx, poll.ID, c); err != nil {
			return models.Poll{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to commit poll: %w", err)
	}

	s.logger.Info("poll created", "poll_id", poll.ID, "creator", poll.CreatedBy,
		"poll_type", poll.PollType, "candidates", len(poll.Candidates))
	return poll, nil
}

func (s *PollStore) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	return getPoll(ctx, s.db, s.dialect, id, false)
}

// UpdatePoll applies patch on behalf of requester. Structural fields freeze
// once the poll has votes; only description, visibility and an extension of
// the end date stay editable. Ended polls are read-only.
func (s *PollStore) UpdatePoll(ctx context.Context, id string, patch models.PollPatch, requester models.Identity, now time.Time) (models.Poll, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getPoll(ctx, tx, s.dialect, id, true)
	if err != nil {
		return models.Poll{}, err
	}

	if requester.ID != current.CreatedBy {
		return models.Poll{}, fmt.Errorf("poll %s belongs to another admin: %w", id, models.ErrForbidden)
	}
	if patch.Version != nil && *patch.Version != current.Version {
		return models.Poll{}, fmt.Errorf("poll %s is at version %d, patch expects %d: %w",
			id, current.Version, *patch.Version, models.ErrStaleVersion)
	}
	if lifecycle.HasEnded(current, now) {
		return models.Poll{}, fmt.Errorf("poll %s has ended: %w", id, models.ErrImmutable)
	}
	if current.TotalVotes > 0 {
		if patch.TouchesStructure() {
			return models.Poll{}, fmt.Errorf("poll %s already has votes: %w", id, models.ErrImmutable)
		}
		if patch.EndDate != nil && patch.EndDate.Before(current.EndDate) {
			return models.Poll{}, fmt.Errorf("end date can only be extended once votes exist: %w", models.ErrImmutable)
		}
	}

	next, removed, err := applyPatch(current, patch)
	if err != nil {
		return models.Poll{}, err
	}
	if patch.EndDate != nil && !next.EndDate.After(now) {
		return models.Poll{}, models.NewValidationError("end_date", "must be in the future")
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE poll
		SET title = $1, description = $2, poll_type = $3, visibility = $4,
		    start_date = $5, end_date = $6, updated_at = $7, version = version + 1
		WHERE id = $8 AND version = $9
	`, next.Title, next.Description, string(next.PollType), string(next.Visibility),
		next.StartDate, next.EndDate, now.UTC(), id, current.Version)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to update poll: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to update poll: %w", err)
	} else if n != 1 {
		return models.Poll{}, fmt.Errorf("poll %s changed concurrently: %w", id, models.ErrStaleVersion)
	}

	if patch.Candidates != nil {
		if err := replaceCandidates(ctx, tx, id, next.Candidates, removed); err != nil {
			return models.Poll{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to commit poll update: %w", err)
	}

	s.logger.Info("poll updated", "poll_id", id, "version", current.Version+1)
	return s.GetPoll(ctx, id)
}

// ClosePoll ends a poll early. Status only moves forward, so closing an
// ended poll is refused.
func (s *PollStore) ClosePoll(ctx context.Context, id string, requester models.Identity, now time.Time) (models.Poll, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getPoll(ctx, tx, s.dialect, id, true)
	if err != nil {
		return models.Poll{}, err
	}
	if requester.ID != current.CreatedBy {
		return models.Poll{}, fmt.Errorf("poll %s belongs to another admin: %w", id, models.ErrForbidden)
	}
	if current.Status == models.StatusEnded {
		return models.Poll{}, fmt.Errorf("poll %s is already ended: %w", id, models.ErrImmutable)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE poll
		SET status = $1, updated_at = $2, version = version + 1
		WHERE id = $3 AND status = $4
	`, string(models.StatusEnded), now.UTC(), id, string(models.StatusActive))
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to close poll: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to close poll: %w", err)
	} else if n != 1 {
		return models.Poll{}, fmt.Errorf("poll %s is already ended: %w", id, models.ErrImmutable)
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to commit poll close: %w", err)
	}

	s.logger.Info("poll closed", "poll_id", id, "total_votes", current.TotalVotes)
	return s.GetPoll(ctx, id)
}

// ListPolls returns polls matching filter, newest first. The phase filter is
// evaluated against now.
func (s *PollStore) ListPolls(ctx context.Context, filter models.PollFilter, now time.Time) ([]models.Poll, error) {
	var where []string
	var args []any
	add := func(column string, value string) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.CreatedBy != "" {
		add("created_by", filter.CreatedBy)
	}
	if filter.Visibility != "" {
		add("visibility", string(filter.Visibility))
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}

	query := "SELECT " + pollColumns + " FROM poll"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}

	polls := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		if filter.Phase != "" && lifecycle.Phase(p, now) != filter.Phase {
			continue
		}
		polls = append(polls, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}

	// Rows are closed before loading candidates so a single-connection pool
	// is never asked for a second connection.
	for i := range polls {
		polls[i].Candidates, err = getCandidates(ctx, s.db, polls[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return polls, nil
}

func normalizeCandidates(in []models.CandidateSpec) []models.CandidateSpec {
	out := make([]models.CandidateSpec, len(in))
	for i, c := range in {
		out[i] = models.CandidateSpec{
			ID:          strings.TrimSpace(c.ID),
			Name:        strings.TrimSpace(c.Name),
			Description: strings.TrimSpace(c.Description),
		}
	}
	return out
}

func validateShape(title string, candidates []models.CandidateSpec, start, end time.Time, pollType models.PollType, visibility models.Visibility) error {
	if title == "" {
		return models.NewValidationError("title", "is required")
	}
	if len(candidates) < 2 {
		return models.NewValidationError("candidates", "at least 2 candidates are required")
	}
	for i, c := range candidates {
		if c.Name == "" {
			return models.NewValidationError(fmt.Sprintf("candidates[%d].name", i), "is required")
		}
	}
	if start.IsZero() || end.IsZero() {
		return models.NewValidationError("start_date", "start and end dates are required")
	}
	if !end.After(start) {
		return models.NewValidationError("end_date", "must be after start_date")
	}
	if !polltype.Valid(pollType) {
		return models.NewValidationError("poll_type", fmt.Sprintf("unknown poll type %q", pollType))
	}
	if visibility != models.VisibilityPublic && visibility != models.VisibilityRestricted {
		return models.NewValidationError("visibility", fmt.Sprintf("unknown visibility %q", visibility))
	}
	return nil
}

// applyPatch returns the poll as it would look after patch, plus the IDs of
// candidates the patch drops.
func applyPatch(current models.Poll, patch models.PollPatch) (models.Poll, []string, error) {
	next := current
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.StartDate != nil {
		next.StartDate = patch.StartDate.UTC()
	}
	if patch.EndDate != nil {
		next.EndDate = patch.EndDate.UTC()
	}
	if patch.PollType != nil {
		next.PollType = *patch.PollType
	}
	if patch.Visibility != nil {
		next.Visibility = *patch.Visibility
	}

	var removed []string
	specs := make([]models.CandidateSpec, len(current.Candidates))
	for i, c := range current.Candidates {
		specs[i] = models.CandidateSpec{ID: c.ID, Name: c.Name, Description: c.Description}
	}

	if patch.Candidates != nil {
		specs = normalizeCandidates(*patch.Candidates)

		existing := make(map[string]models.Candidate, len(current.Candidates))
		for _, c := range current.Candidates {
			existing[c.ID] = c
		}

		kept := make(map[string]bool, len(specs))
		next.Candidates = make([]models.Candidate, 0, len(specs))
		for i, spec := range specs {
			c := models.Candidate{Name: spec.Name, Description: spec.Description, Position: i}
			if spec.ID != "" {
				old, ok := existing[spec.ID]
				if !ok {
					return models.Poll{}, nil, models.NewValidationError(
						fmt.Sprintf("candidates[%d].id", i), "does not belong to this poll")
				}
				if kept[spec.ID] {
					return models.Poll{}, nil, models.NewValidationError(
						fmt.Sprintf("candidates[%d].id", i), "listed more than once")
				}
				kept[spec.ID] = true
				c.ID = old.ID
				c.Votes = old.Votes
			}
			next.Candidates = append(next.Candidates, c)
		}

		for _, c := range current.Candidates {
			if kept[c.ID] {
				continue
			}
			if c.Votes > 0 {
				return models.Poll{}, nil, fmt.Errorf("candidate %s has votes: %w", c.ID, models.ErrImmutable)
			}
			removed = append(removed, c.ID)
		}
	}

	if err := validateShape(next.Title, specs, next.StartDate, next.EndDate, next.PollType, next.Visibility); err != nil {
		return models.Poll{}, nil, err
	}
	return next, removed, nil
}

func insertCandidate(ctx context.Context, q querier, pollID string, c models.Candidate) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO candidate (id, poll_id, name, description, votes, ordinal)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, pollID, c.Name, c.Description, c.Votes, c.Position)
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

func replaceCandidates(ctx context.Context, tx *sql.Tx, pollID string, next []models.Candidate, removed []string) error {
	if len(removed) > 0 {
		args := []any{pollID}
		for _, id := range removed {
			args = append(args, id)
		}
		_, err := tx.ExecContext(ctx,
			"DELETE FROM candidate WHERE poll_id = $1 AND votes = 0 AND id IN ("+placeholders(2, len(removed))+")",
			args...)
		if err != nil {
			return fmt.Errorf("failed to remove candidates: %w", err)
		}
	}

	for _, c := range next {
		if c.ID != "" {
			_, err := tx.ExecContext(ctx, `
				UPDATE candidate SET name = $1, description = $2, ordinal = $3
				WHERE poll_id = $4 AND id = $5
			`, c.Name, c.Description, c.Position, pollID, c.ID)
			if err != nil {
				return fmt.Errorf("failed to update candidate: %w", err)
			}
			continue
		}

		id, err := auth.GenerateID(12)
		if err != nil {
			return err
		}
		c.ID = id
		if err := insertCandidate(ctx, tx, pollID, c); err != nil {
			return err
		}
	}
	return nil
}
