// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-vote/clock"
	"github.com/danielhkuo/quickly-vote/lifecycle"
	"github.com/danielhkuo/quickly-vote/metrics"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/polltype"
	"github.com/danielhkuo/quickly-vote/store"
)

// Authorizer decides whether a voter may take part in a restricted poll.
type Authorizer interface {
	IsAuthorized(ctx context.Context, poll models.Poll, voterID string) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, poll models.Poll, voterID string) (bool, error)

func (f AuthorizerFunc) IsAuthorized(ctx context.Context, poll models.Poll, voterID string) (bool, error) {
	return f(ctx, poll, voterID)
}

type PollReader interface {
	GetPoll(ctx context.Context, id string) (models.Poll, error)
}

type BallotRecorder interface {
	Record(ctx context.Context, pollID string, admit store.AdmitFunc) (models.Ballot, error)
}

// Controller is the only path by which ballots enter the ledger.
type Controller struct {
	polls      PollReader
	ledger     BallotRecorder
	authorizer Authorizer
	clock      clock.Clock
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewController(polls PollReader, ledger BallotRecorder, authorizer Authorizer, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Controller{
		polls:      polls,
		ledger:     ledger,
		authorizer: authorizer,
		clock:      clk,
		metrics:    m,
		logger:     logger,
	}
}

// SubmitBallot admits one ballot for voter. Checks run in a fixed order:
// the poll must exist, the voter must be allowed, the poll must be open,
// the selection must fit the poll type, and the voter must not have voted
// yet. The last three are decided inside the ledger transaction against
// the locked poll, so a concurrent close or a concurrent ballot from the
// same voter cannot slip through. Nothing is retried.
func (c *Controller) SubmitBallot(ctx context.Context, pollID string, voter models.Identity, selection []string) (models.BallotReceipt, error) {
	started := time.Now()
	now := c.clock.Now()

	receipt, err := c.submit(ctx, pollID, voter, selection, now)

	outcome := classify(err)
	c.metrics.ObserveBallot(outcome, time.Since(started))
	switch outcome {
	case metrics.OutcomeAccepted:
		c.logger.Info("ballot recorded", "poll_id", pollID, "ballot_id", receipt.BallotID)
	case metrics.OutcomeError:
		c.logger.Error("ballot submission failed", "poll_id", pollID, "error", err)
	default:
		c.logger.Info("ballot rejected", "poll_id", pollID, "voter_id", voter.ID, "reason", outcome)
	}
	return receipt, err
}

func (c *Controller) submit(ctx context.Context, pollID string, voter models.Identity, selection []string, now time.Time) (models.BallotReceipt, error) {
	poll, err := c.polls.GetPoll(ctx, pollID)
	if err != nil {
		return models.BallotReceipt{}, err
	}

	if err := c.checkVoter(ctx, poll, voter); err != nil {
		return models.BallotReceipt{}, err
	}

	ballot, err := c.ledger.Record(ctx, pollID, func(locked models.Poll) (models.Ballot, []string, error) {
		if phase := lifecycle.Phase(locked, now); phase != models.PhaseOpen {
			return models.Ballot{}, nil, fmt.Errorf("poll %s is %s: %w", locked.ID, phase, models.ErrNotOpen)
		}

		rule, err := polltype.For(locked.PollType)
		if err != nil {
			return models.Ballot{}, nil, err
		}
		if err := rule.Validate(selection, locked.Candidates); err != nil {
			return models.Ballot{}, nil, err
		}

		ballot := models.Ballot{
			ID:           uuid.NewString(),
			PollID:       locked.ID,
			CandidateIDs: append([]string(nil), selection...),
			VoterID:      voter.ID,
			CastAt:       now,
		}
		return ballot, rule.Counted(ballot.CandidateIDs), nil
	})
	if err != nil {
		return models.BallotReceipt{}, err
	}

	return models.BallotReceipt{
		BallotID: ballot.ID,
		PollID:   ballot.PollID,
		CastAt:   ballot.CastAt,
	}, nil
}

func (c *Controller) checkVoter(ctx context.Context, poll models.Poll, voter models.Identity) error {
	if voter.ID == "" || voter.Role != models.RoleVoter {
		return fmt.Errorf("only voters can cast ballots: %w", models.ErrForbidden)
	}
	if !voter.EmailVerified {
		return fmt.Errorf("voter %s has not verified their email: %w", voter.ID, models.ErrForbidden)
	}
	if poll.IsPublic() {
		return nil
	}

	if c.authorizer == nil {
		return fmt.Errorf("poll %s is restricted: %w", poll.ID, models.ErrForbidden)
	}
	ok, err := c.authorizer.IsAuthorized(ctx, poll, voter.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("voter %s is not on the access list of poll %s: %w", voter.ID, poll.ID, models.ErrForbidden)
	}
	return nil
}

func classify(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeAccepted
	case errors.Is(err, models.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, models.ErrForbidden):
		return metrics.OutcomeForbidden
	case errors.Is(err, models.ErrNotOpen):
		return metrics.OutcomeNotOpen
	case errors.Is(err, models.ErrInvalidSelection):
		return metrics.OutcomeInvalidSelection
	case errors.Is(err, models.ErrAlreadyVoted):
		return metrics.OutcomeAlreadyVoted
	}
	return metrics.OutcomeError
}
