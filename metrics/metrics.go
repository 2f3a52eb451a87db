// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quickly_vote"

// Ballot admission outcomes, used as the "outcome" label.
const (
	OutcomeAccepted         = "accepted"
	OutcomeNotFound         = "not_found"
	OutcomeForbidden        = "forbidden"
	OutcomeNotOpen          = "not_open"
	OutcomeInvalidSelection = "invalid_selection"
	OutcomeAlreadyVoted     = "already_voted"
	OutcomeError            = "error"
)

// Metrics holds the collectors for the vote engine. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ballots           *prometheus.CounterVec
	admissionDuration prometheus.Histogram
	pollWrites        *prometheus.CounterVec
}

func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ballots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballot_submissions_total",
			Help:      "Number of ballot submissions by outcome",
		}, []string{"outcome"}),
		admissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ballot_admission_seconds",
			Help:      "Time spent admitting a ballot",
			Buckets:   prometheus.DefBuckets,
		}),
		pollWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_writes_total",
			Help:      "Number of successful poll writes by operation",
		}, []string{"op"}),
	}

	err := errors.Join(
		registerer.Register(m.ballots),
		registerer.Register(m.admissionDuration),
		registerer.Register(m.pollWrites),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveBallot records one admission attempt.
func (m *Metrics) ObserveBallot(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.ballots.WithLabelValues(outcome).Inc()
	m.admissionDuration.Observe(took.Seconds())
}

// PollWrite counts a successful create, update or close.
func (m *Metrics) PollWrite(op string) {
	if m == nil {
		return
	}
	m.pollWrites.WithLabelValues(op).Inc()
}
