// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain, request and response types shared by the
engine and the API, together with the sentinel errors every layer returns.

# Domain Types

  - Poll: a timed poll with its candidates, window, type, visibility,
    status, denormalized vote total and optimistic-concurrency version
  - Candidate: one choice on a poll, with its declared position
  - Ballot: one voter's selection; VoterID never leaves the server
  - Identity: who is calling, as asserted by the identity token
  - PollResult: per-candidate counts and, for ranked polls, runoff rounds

# Phases

A poll's phase is derived, never stored: upcoming before StartDate, open
within the inclusive window, ended after EndDate or once closed explicitly.

# Errors

Callers branch with errors.Is on ErrNotFound, ErrForbidden, ErrValidation,
ErrNotOpen, ErrInvalidSelection, ErrAlreadyVoted, ErrImmutable and
ErrStaleVersion. ValidationError and SelectionError carry detail while still
matching their sentinel.
*/
package models
