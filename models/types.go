// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// PollType selects how a ballot's selection is validated and counted.
type PollType string

const (
	PollTypeSingle   PollType = "single"
	PollTypeMultiple PollType = "multiple"
	PollTypeRanked   PollType = "ranked"
)

// Visibility controls who may vote on a poll.
type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityRestricted Visibility = "restricted"
)

// Status is the explicit administrative flag of a poll. It only moves forward.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Phase is derived from a poll's time bounds and status; it is never stored.
type Phase string

const (
	PhaseScheduled Phase = "scheduled"
	PhaseOpen      Phase = "open"
	PhaseClosed    Phase = "closed"
)

// Role tags an identity issued by the external authentication provider.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleVoter Role = "voter"
)

// Identity is the caller as vouched for by the authentication provider.
type Identity struct {
	ID            string `json:"id"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Domain types

type Poll struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Candidates  []Candidate `json:"candidates"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	PollType    PollType    `json:"poll_type"`
	Visibility  Visibility  `json:"visibility"`
	Status      Status      `json:"status"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
	TotalVotes  int         `json:"total_votes"`
	Version     int         `json:"version"`
}

func (p Poll) IsPublic() bool {
	return p.Visibility == VisibilityPublic
}

// Candidate returns the candidate with the given ID, if it belongs to the poll.
func (p Poll) Candidate(id string) (Candidate, bool) {
	for _, c := range p.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

type Candidate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Votes       int    `json:"votes"`
	Position    int    `json:"position"`
}

// Ballot is immutable once recorded. CandidateIDs holds the preference
// order for ranked polls.
type Ballot struct {
	ID           string    `json:"id"`
	PollID       string    `json:"poll_id"`
	CandidateIDs []string  `json:"candidate_ids"`
	VoterID      string    `json:"-"` // Never expose in JSON
	CastAt       time.Time `json:"cast_at"`
}

type BallotReceipt struct {
	BallotID string    `json:"ballot_id"`
	PollID   string    `json:"poll_id"`
	CastAt   time.Time `json:"cast_at"`
}

// Store inputs

// CandidateSpec describes a candidate to create or keep. An empty ID means
// a new candidate.
type CandidateSpec struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type PollSpec struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Candidates  []CandidateSpec `json:"candidates"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	PollType    PollType        `json:"poll_type"`
	Visibility  Visibility      `json:"visibility"`
}

// PollPatch carries only the fields to change. Candidates, when set, is the
// complete desired candidate list.
type PollPatch struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Candidates  *[]CandidateSpec `json:"candidates,omitempty"`
	StartDate   *time.Time       `json:"start_date,omitempty"`
	EndDate     *time.Time       `json:"end_date,omitempty"`
	PollType    *PollType        `json:"poll_type,omitempty"`
	Visibility  *Visibility      `json:"visibility,omitempty"`
	Version     *int             `json:"version,omitempty"`
}

// TouchesStructure reports whether the patch edits anything that is frozen
// once a poll has votes.
func (p PollPatch) TouchesStructure() bool {
	return p.Title != nil || p.Candidates != nil || p.StartDate != nil || p.PollType != nil
}

type PollFilter struct {
	CreatedBy  string
	Visibility Visibility
	Status     Status
	Phase      Phase
}

// Tally types

type CandidateResult struct {
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"name"`
	VoteCount   int     `json:"vote_count"`
	Percentage  float64 `json:"percentage"`
}

type RunoffRound struct {
	Round      int               `json:"round"`
	Counts     []CandidateResult `json:"counts"`
	Exhausted  int               `json:"exhausted"`
	Eliminated []string          `json:"eliminated,omitempty"`
}

type RunoffResult struct {
	Rounds   []RunoffRound `json:"rounds"`
	WinnerID string        `json:"winner_id,omitempty"`
}

type PollResult struct {
	PollID       string            `json:"poll_id"`
	PollType     PollType          `json:"poll_type"`
	TotalVotes   int               `json:"total_votes"`
	PerCandidate []CandidateResult `json:"per_candidate"`
	Runoff       *RunoffResult     `json:"runoff,omitempty"`
	ComputedAt   time.Time         `json:"computed_at"`
}

// Request types

type UpdatePollRequest = PollPatch

type CreatePollRequest = PollSpec

type SubmitBallotRequest struct {
	CandidateIDs []string `json:"candidate_ids"`
}

// Response types

type PhaseResponse struct {
	PollID  string    `json:"poll_id"`
	Phase   Phase     `json:"phase"`
	Summary string    `json:"summary"`
	Now     time.Time `json:"now"`
}

type MyBallotResponse struct {
	HasVoted bool    `json:"has_voted"`
	Ballot   *Ballot `json:"ballot,omitempty"`
}

type PollListResponse struct {
	Polls []Poll `json:"polls"`
}

type BallotHistoryResponse struct {
	Ballots []Ballot `json:"ballots"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
