// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quickly-vote/admission"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/clock"
	"github.com/danielhkuo/quickly-vote/handlers"
	"github.com/danielhkuo/quickly-vote/metrics"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/tally"
)

// NewRouter wires the engine to HTTP. Every request passes CORS, the per-IP
// rate limiter and identity parsing before reaching its route.
func NewRouter(db *sql.DB, cfg cliparse.Config) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}

	clk := clock.Real()
	logger := slog.Default()
	dialect := cfg.Dialect()

	polls := store.NewPollStore(db, dialect, logger)
	ledger := store.NewLedger(db, dialect, logger)
	access := store.NewAccessList(db)
	controller := admission.NewController(polls, ledger, access, clk, m, logger)
	engine := tally.NewEngine(polls, ledger, clk)

	pollHandler := handlers.NewPollHandler(polls, clk, m)
	votingHandler := handlers.NewVotingHandler(controller, ledger)
	resultsHandler := handlers.NewResultsHandler(engine)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Polls
	mux.HandleFunc("POST /polls", middleware.WithLogging(middleware.RequireIdentity(pollHandler.CreatePoll)))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("PATCH /polls/{id}", middleware.WithLogging(middleware.RequireIdentity(pollHandler.UpdatePoll)))
	mux.HandleFunc("POST /polls/{id}/close", middleware.WithLogging(middleware.RequireIdentity(pollHandler.ClosePoll)))
	mux.HandleFunc("GET /polls/{id}/phase", middleware.WithLogging(pollHandler.GetPhase))

	// Voting
	mux.HandleFunc("POST /polls/{id}/ballots", middleware.WithLogging(middleware.RequireIdentity(votingHandler.SubmitBallot)))
	mux.HandleFunc("GET /polls/{id}/my-ballot", middleware.WithLogging(middleware.RequireIdentity(votingHandler.GetMyBallot)))
	mux.HandleFunc("GET /ballots/mine", middleware.WithLogging(middleware.RequireIdentity(votingHandler.GetHistory)))

	// Results
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-vote API v1"))
	})

	var handler http.Handler = mux
	handler = middleware.Authenticate(cfg.IdentitySecret)(handler)
	handler = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.TrustedProxies).Middleware(handler)
	handler = middleware.CORS(cfg.CORSOrigins)(handler)
	return handler, nil
}
