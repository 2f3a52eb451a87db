// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists polls and ballots.

PollStore owns poll configuration and candidates. Updates are checked
against the stored version and fields freeze once ballots exist.

Ledger is the append-only ballot record. Record runs in one transaction:
lock the poll, let the caller decide admission against the locked row,
insert the ballot, bump the candidate counters and the poll total. The
unique (poll_id, voter_id) constraint turns a second ballot into
ErrAlreadyVoted, and the total update only applies while the poll is
active, so a concurrent close wins.
*/
package store
