// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/admission"
	"github.com/danielhkuo/quickly-vote/clock"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/tally"
	"github.com/danielhkuo/quickly-vote/testutil"
)

type testEnv struct {
	db      *sql.DB
	clock   *clock.FakeClock
	polls   *store.PollStore
	ledger  *store.Ledger
	access  *store.AccessList
	poll    *PollHandler
	voting  *VotingHandler
	results *ResultsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	clk := clock.Fake(time.Now().UTC().Truncate(time.Microsecond))
	polls := store.NewPollStore(conn, db.DialectSQLite, nil)
	ledger := store.NewLedger(conn, db.DialectSQLite, nil)
	access := store.NewAccessList(conn)
	controller := admission.NewController(polls, ledger, access, clk, nil, nil)

	return &testEnv{
		db:      conn,
		clock:   clk,
		polls:   polls,
		ledger:  ledger,
		access:  access,
		poll:    NewPollHandler(polls, clk, nil),
		voting:  NewVotingHandler(controller, ledger),
		results: NewResultsHandler(tally.NewEngine(polls, ledger, clk)),
	}
}

// asIdentity attaches identity to the request the way the router's
// authentication middleware would.
func asIdentity(req *http.Request, identity models.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}
