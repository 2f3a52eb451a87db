// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

  - Authenticate: parses X-Identity-Token into the request context
  - RequireIdentity: rejects anonymous requests with 401
  - RateLimiter: per-IP token buckets (golang.org/x/time/rate), 429 on excess;
    forwarded headers count only from trusted proxies
  - CORS: browser origin policy via rs/cors
  - WithLogging: one structured log line per request

ParseJSONBody caps bodies at MaxBodyBytes; BodyError answers 413 or 400.
WriteError maps engine errors to status codes with StatusFor. Unexpected
errors are logged and reported as a bare 500.
*/
package middleware
