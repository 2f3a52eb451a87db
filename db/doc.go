// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

Two dialects are supported. SQLite (modernc.org/sqlite, no cgo) is the
default and backs every test through ":memory:"; it is limited to a single
open connection so writers serialize. PostgreSQL (lib/pq) relies on
SELECT ... FOR UPDATE to serialize writers per poll.

	conn, err := db.Open(ctx, db.DialectSQLite, "quickly-vote.db")
	err = db.CreateSchema(conn, db.DialectSQLite)

# Schema

  - poll: window, type, visibility, status, total_votes, version
  - candidate: per-poll choices with a running votes counter and ordinal
  - ballot: UNIQUE (poll_id, voter_id) enforces one ballot per voter
  - ballot_choice: the ordered candidate IDs of each ballot
  - poll_access: voters admitted to restricted polls

CreateSchema is idempotent. IsUniqueViolation recognizes constraint errors
from either driver.
*/
package db
