// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/models"
)

// Ledger is the append-only record of cast ballots. At most one ballot
// exists per (poll, voter); the database enforces it with a UNIQUE
// constraint.
type Ledger struct {
	db      *sql.DB
	dialect db.Dialect
	logger  *slog.Logger
}

func NewLedger(conn *sql.DB, dialect db.Dialect, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{db: conn, dialect: dialect, logger: logger}
}

// AdmitFunc inspects the locked poll and returns the ballot to record and
// the candidates whose counters it moves, or an error to abort.
type AdmitFunc func(poll models.Poll) (models.Ballot, []string, error)

// Record runs admit against the poll and, if it accepts, inserts the ballot
// and bumps the candidate and poll counters. All of it commits together or
// not at all. A second ballot for the same (poll, voter) fails with
// models.ErrAlreadyVoted.
func (l *Ledger) Record(ctx context.Context, pollID string, admit AdmitFunc) (models.Ballot, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll, err := getPoll(ctx, tx, l.dialect, pollID, true)
	if err != nil {
		return models.Ballot{}, err
	}

	ballot, counted, err := admit(poll)
	if err != nil {
		return models.Ballot{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ballot (id, poll_id, voter_id, cast_at)
		VALUES ($1, $2, $3, $4)
	`, ballot.ID, poll.ID, ballot.VoterID, ballot.CastAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.Ballot{}, fmt.Errorf("voter %s on poll %s: %w", ballot.VoterID, poll.ID, models.ErrAlreadyVoted)
		}
		return models.Ballot{}, fmt.Errorf("failed to insert ballot: %w", err)
	}

	for i, candidateID := range ballot.CandidateIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ballot_choice (ballot_id, candidate_id, preference)
			VALUES ($1, $2, $3)
		`, ballot.ID, candidateID, i+1)
		if err != nil {
			return models.Ballot{}, fmt.Errorf("failed to insert ballot choice: %w", err)
		}
	}

	for _, candidateID := range counted {
		res, err := tx.ExecContext(ctx, `
			UPDATE candidate SET votes = votes + 1 WHERE poll_id = $1 AND id = $2
		`, poll.ID, candidateID)
		if err != nil {
			return models.Ballot{}, fmt.Errorf("failed to count candidate vote: %w", err)
		}
		if err := expectOneRow(res); err != nil {
			return models.Ballot{}, fmt.Errorf("candidate %s vanished: %w", candidateID, models.ErrInvalidSelection)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE poll SET total_votes = total_votes + 1 WHERE id = $1 AND status = $2
	`, poll.ID, string(models.StatusActive))
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to count poll vote: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return models.Ballot{}, fmt.Errorf("poll %s was closed: %w", poll.ID, models.ErrNotOpen)
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return models.Ballot{}, fmt.Errorf("voter %s on poll %s: %w", ballot.VoterID, poll.ID, models.ErrAlreadyVoted)
		}
		return models.Ballot{}, fmt.Errorf("failed to commit ballot: %w", err)
	}

	ballot.PollID = poll.ID
	return ballot, nil
}

// GetBallot returns the voter's ballot for a poll.
func (l *Ledger) GetBallot(ctx context.Context, pollID, voterID string) (models.Ballot, error) {
	ballots, err := l.queryBallots(ctx, `
		SELECT b.id, b.poll_id, b.voter_id, b.cast_at, c.candidate_id
		FROM ballot b
		JOIN ballot_choice c ON c.ballot_id = b.id
		WHERE b.poll_id = $1 AND b.voter_id = $2
		ORDER BY c.preference
	`, pollID, voterID)
	if err != nil {
		return models.Ballot{}, err
	}
	if len(ballots) == 0 {
		return models.Ballot{}, fmt.Errorf("ballot for voter %s on poll %s: %w", voterID, pollID, models.ErrNotFound)
	}
	return ballots[0], nil
}

func (l *Ledger) HasVoted(ctx context.Context, pollID, voterID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ballot WHERE poll_id = $1 AND voter_id = $2
		)
	`, pollID, voterID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ballot: %w", err)
	}
	return exists, nil
}

// ListByVoter returns a voter's ballots across all polls, newest first.
func (l *Ledger) ListByVoter(ctx context.Context, voterID string) ([]models.Ballot, error) {
	return l.queryBallots(ctx, `
		SELECT b.id, b.poll_id, b.voter_id, b.cast_at, c.candidate_id
		FROM ballot b
		JOIN ballot_choice c ON c.ballot_id = b.id
		WHERE b.voter_id = $1
		ORDER BY b.cast_at DESC, b.id, c.preference
	`, voterID)
}

// Replay returns every ballot of a poll in cast order. It is a single
// statement, so it sees each ballot either whole or not at all.
func (l *Ledger) Replay(ctx context.Context, pollID string) ([]models.Ballot, error) {
	return l.queryBallots(ctx, `
		SELECT b.id, b.poll_id, b.voter_id, b.cast_at, c.candidate_id
		FROM ballot b
		JOIN ballot_choice c ON c.ballot_id = b.id
		WHERE b.poll_id = $1
		ORDER BY b.cast_at, b.id, c.preference
	`, pollID)
}

func (l *Ledger) Count(ctx context.Context, pollID string) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ballot WHERE poll_id = $1
	`, pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return count, nil
}

// queryBallots folds one row per choice into ballots. Rows of one ballot
// must be adjacent and in preference order.
func (l *Ledger) queryBallots(ctx context.Context, query string, args ...any) ([]models.Ballot, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		var b models.Ballot
		var candidateID string
		if err := rows.Scan(&b.ID, &b.PollID, &b.VoterID, &b.CastAt, &candidateID); err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}

		if n := len(ballots); n > 0 && ballots[n-1].ID == b.ID {
			ballots[n-1].CandidateIDs = append(ballots[n-1].CandidateIDs, candidateID)
			continue
		}
		b.CastAt = b.CastAt.UTC()
		b.CandidateIDs = []string{candidateID}
		ballots = append(ballots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	return ballots, nil
}

var errNoRow = errors.New("no row affected")

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return errNoRow
	}
	return nil
}
