// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const pollColumns = `id, title, description, poll_type, visibility, status,
	start_date, end_date, created_by, created_at, updated_at, total_votes, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var p models.Poll
	var updatedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.PollType, &p.Visibility, &p.Status,
		&p.StartDate, &p.EndDate, &p.CreatedBy, &p.CreatedAt, &updatedAt,
		&p.TotalVotes, &p.Version,
	)
	if err != nil {
		return models.Poll{}, err
	}

	p.StartDate = p.StartDate.UTC()
	p.EndDate = p.EndDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		p.UpdatedAt = &t
	}
	return p, nil
}

// getPoll loads a poll and its candidates in declared order. With lock set
// the poll row stays locked until the surrounding transaction ends.
func getPoll(ctx context.Context, q querier, dialect db.Dialect, id string, lock bool) (models.Poll, error) {
	query := "SELECT " + pollColumns + " FROM poll WHERE id = $1"
	if lock {
		query += dialect.ForUpdate()
	}

	poll, err := scanPoll(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, fmt.Errorf("poll %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}

	poll.Candidates, err = getCandidates(ctx, q, id)
	if err != nil {
		return models.Poll{}, err
	}
	return poll, nil
}

func getCandidates(ctx context.Context, q querier, pollID string) ([]models.Candidate, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, description, votes, ordinal
		FROM candidate
		WHERE poll_id = $1
		ORDER BY ordinal
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Votes, &c.Position); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// placeholders returns "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}
