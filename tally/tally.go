// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"math"
	"sort"

	"github.com/danielhkuo/quickly-vote/clock"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/polltype"
)

type PollReader interface {
	GetPoll(ctx context.Context, id string) (models.Poll, error)
}

type BallotSource interface {
	Replay(ctx context.Context, pollID string) ([]models.Ballot, error)
}

// Engine derives results by replaying the ballot ledger. The denormalised
// counters on polls and candidates are never read here.
type Engine struct {
	polls   PollReader
	ballots BallotSource
	clock   clock.Clock
}

func NewEngine(polls PollReader, ballots BallotSource, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real()
	}
	return &Engine{polls: polls, ballots: ballots, clock: clk}
}

// ComputeResults is a pure read and is safe in any phase. While a poll is
// open it returns a snapshot that may trail the newest ballots.
func (e *Engine) ComputeResults(ctx context.Context, pollID string) (models.PollResult, error) {
	now := e.clock.Now()

	poll, err := e.polls.GetPoll(ctx, pollID)
	if err != nil {
		return models.PollResult{}, err
	}

	ballots, err := e.ballots.Replay(ctx, pollID)
	if err != nil {
		return models.PollResult{}, err
	}

	result, err := Tally(poll, ballots)
	if err != nil {
		return models.PollResult{}, err
	}
	result.ComputedAt = now
	return result, nil
}

// Tally counts ballots for poll. Candidates are ordered by vote count,
// ties keeping their declared order. Ranked polls count first preferences
// and additionally carry an instant-runoff resolution.
//
// TotalVotes is always the number of ballots. For single and ranked polls
// the counts sum to it and the percentages to about 100. A multiple-choice
// ballot adds one to every candidate it selects, so there the counts may
// exceed TotalVotes and each percentage is the share of ballots that chose
// that candidate.
func Tally(poll models.Poll, ballots []models.Ballot) (models.PollResult, error) {
	rule, err := polltype.For(poll.PollType)
	if err != nil {
		return models.PollResult{}, err
	}

	known := make(map[string]bool, len(poll.Candidates))
	for _, c := range poll.Candidates {
		known[c.ID] = true
	}

	counts := make(map[string]int, len(poll.Candidates))
	total := 0
	for _, b := range ballots {
		if b.PollID != poll.ID {
			continue
		}
		total++
		for _, id := range rule.Counted(b.CandidateIDs) {
			if known[id] {
				counts[id]++
			}
		}
	}

	result := models.PollResult{
		PollID:       poll.ID,
		PollType:     poll.PollType,
		TotalVotes:   total,
		PerCandidate: rank(poll.Candidates, counts, total),
	}
	if poll.PollType == models.PollTypeRanked {
		result.Runoff = instantRunoff(poll, ballots)
	}
	return result, nil
}

// Percentage is count/total as a percentage rounded to one decimal, or 0
// when there are no votes.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// rank expects candidates in declared order.
func rank(candidates []models.Candidate, counts map[string]int, total int) []models.CandidateResult {
	results := make([]models.CandidateResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, models.CandidateResult{
			CandidateID: c.ID,
			Name:        c.Name,
			VoteCount:   counts[c.ID],
			Percentage:  Percentage(counts[c.ID], total),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].VoteCount > results[j].VoteCount
	})
	return results
}
