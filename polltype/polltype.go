// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polltype

import (
	"fmt"

	"github.com/danielhkuo/quickly-vote/models"
)

// Rule is the per-type behaviour of a poll: which selections are acceptable
// and which candidates a selection counts toward.
type Rule interface {
	Type() models.PollType
	Validate(selection []string, candidates []models.Candidate) error
	Counted(selection []string) []string
}

// For returns the Rule for a poll type.
func For(t models.PollType) (Rule, error) {
	switch t {
	case models.PollTypeSingle:
		return Single{}, nil
	case models.PollTypeMultiple:
		return Multiple{}, nil
	case models.PollTypeRanked:
		return Ranked{}, nil
	}
	return nil, models.NewValidationError("poll_type", fmt.Sprintf("unknown poll type %q", t))
}

// Valid reports whether t names a known poll type.
func Valid(t models.PollType) bool {
	_, err := For(t)
	return err == nil
}

// Single accepts exactly one candidate.
type Single struct{}

func (Single) Type() models.PollType { return models.PollTypeSingle }

func (Single) Validate(selection []string, candidates []models.Candidate) error {
	if len(selection) != 1 {
		return models.NewSelectionError(fmt.Sprintf("single-choice poll needs exactly one candidate, got %d", len(selection)))
	}
	return checkDistinctMembers(selection, candidates)
}

func (Single) Counted(selection []string) []string { return selection }

// Multiple accepts any non-empty set of distinct candidates.
type Multiple struct{}

func (Multiple) Type() models.PollType { return models.PollTypeMultiple }

func (Multiple) Validate(selection []string, candidates []models.Candidate) error {
	if len(selection) == 0 {
		return models.NewSelectionError("multiple-choice poll needs at least one candidate")
	}
	return checkDistinctMembers(selection, candidates)
}

func (Multiple) Counted(selection []string) []string { return selection }

// Ranked accepts an ordering of some or all candidates, most preferred
// first. Only the first preference moves a candidate's counter.
type Ranked struct{}

func (Ranked) Type() models.PollType { return models.PollTypeRanked }

func (Ranked) Validate(selection []string, candidates []models.Candidate) error {
	if len(selection) == 0 {
		return models.NewSelectionError("ranked poll needs at least one ranked candidate")
	}
	return checkDistinctMembers(selection, candidates)
}

func (Ranked) Counted(selection []string) []string {
	if len(selection) == 0 {
		return nil
	}
	return selection[:1]
}

func checkDistinctMembers(selection []string, candidates []models.Candidate) error {
	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		valid[c.ID] = true
	}

	seen := make(map[string]bool, len(selection))
	for _, id := range selection {
		if !valid[id] {
			return models.NewSelectionError(fmt.Sprintf("candidate %q does not belong to this poll", id))
		}
		if seen[id] {
			return models.NewSelectionError(fmt.Sprintf("candidate %q selected more than once", id))
		}
		seen[id] = true
	}
	return nil
}
