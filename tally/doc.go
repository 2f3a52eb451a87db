// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally computes poll results by replaying the ballot ledger.

Single and multiple choice polls count every selected candidate; percentages
are relative to the number of ballots and rounded to one decimal place.
Ranked polls report first preferences and resolve a winner by instant
runoff, eliminating the lowest candidate each round. Ties for elimination
remove the later-declared candidate.
*/
package tally
