// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/quickly-vote/models"
)

// AccessList answers whether a voter may take part in a restricted poll,
// using the poll_access table. Public polls admit everyone. Managing the
// list is left to the tooling that owns voter rosters.
type AccessList struct {
	db *sql.DB
}

func NewAccessList(conn *sql.DB) *AccessList {
	return &AccessList{db: conn}
}

func (a *AccessList) IsAuthorized(ctx context.Context, poll models.Poll, voterID string) (bool, error) {
	if poll.IsPublic() {
		return true, nil
	}

	var exists bool
	err := a.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM poll_access WHERE poll_id = $1 AND voter_id = $2
		)
	`, poll.ID, voterID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check poll access: %w", err)
	}
	return exists, nil
}

// Grant adds a voter to a poll's access list. Granting twice is a no-op.
func (a *AccessList) Grant(ctx context.Context, pollID, voterID string) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO poll_access (poll_id, voter_id) VALUES ($1, $2)
		ON CONFLICT (poll_id, voter_id) DO NOTHING
	`, pollID, voterID)
	if err != nil {
		return fmt.Errorf("failed to grant poll access: %w", err)
	}
	return nil
}
