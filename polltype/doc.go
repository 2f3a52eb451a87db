// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package polltype validates selections against a poll's type and reports
// which candidates a ballot counts toward on the running counters.
package polltype
