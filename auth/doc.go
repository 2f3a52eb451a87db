// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth signs and verifies identity tokens and generates record IDs.

An identity token is the base64url JSON encoding of a models.Identity
followed by a dot and its HMAC-SHA256 signature:

	token, err := auth.SignIdentity(identity, secret)
	identity, err := auth.ParseIdentity(token, secret)

The server never issues tokens; the upstream auth provider does, using the
shared IDENTITY_SECRET. Tokens that fail verification return ErrInvalidToken.

GenerateID returns random hex IDs for polls and candidates.
*/
package auth
