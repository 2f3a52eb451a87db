// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/testutil"
)

func TestAccessList(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	access := store.NewAccessList(conn)
	ctx := context.Background()

	public := testutil.CreateTestPoll(t, conn, testutil.PollFixture{})
	restricted := testutil.CreateTestPoll(t, conn, testutil.PollFixture{Visibility: models.VisibilityRestricted})

	ok, err := access.IsAuthorized(ctx, public, "anyone")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = access.IsAuthorized(ctx, restricted, "v1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, access.Grant(ctx, restricted.ID, "v1"))
	require.NoError(t, access.Grant(ctx, restricted.ID, "v1"))

	ok, err = access.IsAuthorized(ctx, restricted, "v1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = access.IsAuthorized(ctx, restricted, "v2")
	require.NoError(t, err)
	require.False(t, ok)
}
