// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse builds the server configuration from flags, environment
variables and a .env file.

Precedence is flag, then environment, then default. The .env file (see
--env-file) only fills variables that are not already set, and a missing
file is ignored.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

ParseFlags validates the result: IDENTITY_SECRET is always required and
postgres needs an explicit DATABASE_URL.
*/
package cliparse
