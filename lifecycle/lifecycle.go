// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-vote/models"
)

// Phase computes where a poll stands at now. Explicit closure wins over the
// time bounds; both bounds are inclusive for the Open phase.
func Phase(poll models.Poll, now time.Time) models.Phase {
	if poll.Status == models.StatusEnded {
		return models.PhaseClosed
	}
	if now.Before(poll.StartDate) {
		return models.PhaseScheduled
	}
	if now.After(poll.EndDate) {
		return models.PhaseClosed
	}
	return models.PhaseOpen
}

// IsOpen reports whether a poll accepts ballots at now.
func IsOpen(poll models.Poll, now time.Time) bool {
	return Phase(poll, now) == models.PhaseOpen
}

// HasEnded reports whether a poll is past its voting window, either by time
// or by explicit closure.
func HasEnded(poll models.Poll, now time.Time) bool {
	return poll.Status == models.StatusEnded || now.After(poll.EndDate)
}

// Describe returns the phase along with a short human readable summary,
// e.g. "closes 3 hours from now".
func Describe(poll models.Poll, now time.Time) (models.Phase, string) {
	phase := Phase(poll, now)
	switch phase {
	case models.PhaseScheduled:
		return phase, "opens " + humanize.RelTime(poll.StartDate, now, "ago", "from now")
	case models.PhaseOpen:
		return phase, "closes " + humanize.RelTime(poll.EndDate, now, "ago", "from now")
	}
	if poll.Status == models.StatusEnded && !now.After(poll.EndDate) {
		return phase, "ended early by its owner"
	}
	return phase, "closed " + humanize.RelTime(poll.EndDate, now, "ago", "from now")
}
