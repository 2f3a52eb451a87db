// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import "github.com/danielhkuo/quickly-vote/models"

// instantRunoff resolves a ranked poll. Each round every ballot counts for
// its highest-ranked continuing candidate. A candidate holding a strict
// majority of the non-exhausted ballots wins; otherwise the candidate with
// the fewest votes is eliminated, ties going against the candidate declared
// later. Ballots with no continuing candidate are exhausted.
func instantRunoff(poll models.Poll, ballots []models.Ballot) *models.RunoffResult {
	result := &models.RunoffResult{Rounds: []models.RunoffRound{}}
	if len(ballots) == 0 || len(poll.Candidates) == 0 {
		return result
	}

	continuing := make(map[string]bool, len(poll.Candidates))
	for _, c := range poll.Candidates {
		continuing[c.ID] = true
	}

	for round := 1; len(continuing) > 0; round++ {
		counts := make(map[string]int, len(continuing))
		exhausted := 0
		for _, b := range ballots {
			if b.PollID != poll.ID {
				continue
			}
			top, ok := topChoice(b.CandidateIDs, continuing)
			if !ok {
				exhausted++
				continue
			}
			counts[top]++
		}

		var remaining []models.Candidate
		active := 0
		for _, c := range poll.Candidates {
			if continuing[c.ID] {
				remaining = append(remaining, c)
				active += counts[c.ID]
			}
		}

		standings := rank(remaining, counts, active)
		current := models.RunoffRound{
			Round:     round,
			Counts:    standings,
			Exhausted: exhausted,
		}

		leader := standings[0]
		if active == 0 {
			result.Rounds = append(result.Rounds, current)
			return result
		}
		if len(standings) == 1 || leader.VoteCount*2 > active {
			result.Rounds = append(result.Rounds, current)
			result.WinnerID = leader.CandidateID
			return result
		}

		loser := standings[len(standings)-1].CandidateID
		current.Eliminated = []string{loser}
		delete(continuing, loser)
		result.Rounds = append(result.Rounds, current)
	}
	return result
}

func topChoice(preferences []string, continuing map[string]bool) (string, bool) {
	for _, id := range preferences {
		if continuing[id] {
			return id, true
		}
	}
	return "", false
}
