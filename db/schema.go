// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dialect Dialect) error {
	_, err := db.Exec(Schema(dialect))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Schema returns the DDL for a dialect. The two dialects differ only in
// the timestamp column type.
func Schema(dialect Dialect) string {
	return strings.ReplaceAll(schema, "{{timestamp}}", dialect.timestampType())
}

const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    poll_type TEXT NOT NULL CHECK (poll_type IN ('single', 'multiple', 'ranked')),
    visibility TEXT NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'restricted')),
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'ended')),
    start_date {{timestamp}} NOT NULL,
    end_date {{timestamp}} NOT NULL,
    created_by TEXT NOT NULL,
    created_at {{timestamp}} NOT NULL,
    updated_at {{timestamp}},
    total_votes INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_poll_created_by ON poll(created_by);
CREATE INDEX IF NOT EXISTS idx_poll_status ON poll(status);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT NOT NULL,
    poll_id TEXT NOT NULL REFERENCES poll(id),
    name TEXT NOT NULL CHECK (name <> ''),
    description TEXT NOT NULL DEFAULT '',
    votes INTEGER NOT NULL DEFAULT 0,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (poll_id, id)
);

-- Ballots (append-only)
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id),
    voter_id TEXT NOT NULL,
    cast_at {{timestamp}} NOT NULL,
    UNIQUE (poll_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_voter_id ON ballot(voter_id);

-- Ballot choices, preference 1 is the first (or only) choice
CREATE TABLE IF NOT EXISTS ballot_choice (
    ballot_id TEXT NOT NULL REFERENCES ballot(id),
    candidate_id TEXT NOT NULL,
    preference INTEGER NOT NULL,
    PRIMARY KEY (ballot_id, preference),
    UNIQUE (ballot_id, candidate_id)
);

-- Restricted poll access list (read-only for this service)
CREATE TABLE IF NOT EXISTS poll_access (
    poll_id TEXT NOT NULL REFERENCES poll(id),
    voter_id TEXT NOT NULL,
    PRIMARY KEY (poll_id, voter_id)
);
`
