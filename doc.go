// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Vote API server.

Quickly Vote runs timed polls. An admin creates a poll with a set of
candidates, a voting window and a poll type (single, multiple or ranked).
Voters submit at most one ballot per poll while the window is open, and
anyone can read the results, which are recomputed from the ballots on every
request.

# Starting the Server

The server reads flags, environment variables and an optional .env file:

	IDENTITY_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." --identity-secret ...

# Configuration

Required settings:

  - IDENTITY_SECRET (--identity-secret): key that verifies identity tokens
  - DATABASE_URL (-d): required when DATABASE_TYPE is postgres

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - LOG_LEVEL (-l): debug, info, warn or error (default: info)
  - RATE_LIMIT, RATE_BURST: per-IP request budget (default: 10/s, burst 20)
  - CORS_ORIGINS (--cors-origin): allowed browser origins
  - TRUSTED_PROXIES (--trusted-proxy): reverse proxies whose X-Forwarded-For
    the rate limiter believes

# Logging

Logs go to stderr through log/slog. A terminal gets the text handler, anything
else gets JSON.

# Shutdown

SIGINT and SIGTERM stop accepting connections and drain in-flight requests
for up to ten seconds.
*/
package main
