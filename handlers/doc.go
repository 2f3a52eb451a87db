// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers implements the HTTP handlers for polls, ballots and results.

Handlers depend on small interfaces (PollService, BallotSubmitter,
BallotReader, ResultsComputer) rather than concrete stores. Identity comes
from the request context, set by middleware.Authenticate.

# Polls

  - CreatePoll: admins only, returns 201 with the stored poll
  - ListPolls: filters by created_by, visibility, status, phase or mine=true
  - UpdatePoll: partial update guarded by version (body or If-Match)
  - ClosePoll: ends the poll immediately
  - GetPhase: derived phase with a human-readable summary

# Ballots

SubmitBallot returns a receipt that never includes the voter. GetMyBallot
reports has_voted=false instead of 404.

# Results

GetResults recomputes the tally from the ballot ledger on every call.
*/
package handlers
