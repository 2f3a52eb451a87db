// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle derives a poll's phase from its window, status and the
current time. Phases are never stored.

	upcoming  now < start
	open      start <= now <= end, status active
	ended     now > end, or status ended
*/
package lifecycle
