// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router wires stores, the admission controller, the tally engine and
the handlers into one http.Handler.

# Routes

	GET   /health
	GET   /metrics
	POST  /polls                   (identity required)
	GET   /polls
	GET   /polls/{id}
	PATCH /polls/{id}              (identity required)
	POST  /polls/{id}/close        (identity required)
	GET   /polls/{id}/phase
	POST  /polls/{id}/ballots      (identity required)
	GET   /polls/{id}/my-ballot    (identity required)
	GET   /ballots/mine            (identity required)
	GET   /polls/{id}/results

Requests pass CORS, then the rate limiter, then identity parsing.
*/
package router
