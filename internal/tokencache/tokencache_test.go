package tokencache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/identity/internal/testutil"
)

func Test_Cache(t *testing.T) {
	t.Parallel()

	rd := testutil.StartRedisContainer(t)
	t.Cleanup(rd.Terminate)

	cache := New(rd.Client)

	t.Run("save and get refresh token", func(t *testing.T) {
		err := cache.SaveRefreshToken(t.Context(), "user-1", "token-1", time.Minute)
		require.NoError(t, err)

		value, err := cache.GetRefreshToken(t.Context(), "user-1", "token-1")
		require.NoError(t, err)
		require.Equal(t, "user-1", value, "stored value should be the user id")
	})

	t.Run("get unknown token returns empty, not error", func(t *testing.T) {
		value, err := cache.GetRefreshToken(t.Context(), "user-1", "never-written")

		require.NoError(t, err, "absence is not an error")
		require.Empty(t, value)
	})

	t.Run("save twice overwrites", func(t *testing.T) {
		require.NoError(t, cache.SaveRefreshToken(t.Context(), "user-2", "token-2", time.Minute))
		require.NoError(t, cache.SaveRefreshToken(t.Context(), "user-2", "token-2", time.Minute))

		value, err := cache.GetRefreshToken(t.Context(), "user-2", "token-2")
		require.NoError(t, err)
		require.Equal(t, "user-2", value, "value should be returned once")
	})

	t.Run("delete refresh token", func(t *testing.T) {
		require.NoError(t, cache.SaveRefreshToken(t.Context(), "user-3", "token-3", time.Minute))

		err := cache.DeleteRefreshToken(t.Context(), "user-3", "token-3")
		require.NoError(t, err)

		value, err := cache.GetRefreshToken(t.Context(), "user-3", "token-3")
		require.NoError(t, err)
		require.Empty(t, value, "deleted token should not be returned")
	})

	t.Run("refresh token expires with ttl", func(t *testing.T) {
		require.NoError(t, cache.SaveRefreshToken(t.Context(), "user-4", "token-4", time.Second))

		time.Sleep(1500 * time.Millisecond)

		value, err := cache.GetRefreshToken(t.Context(), "user-4", "token-4")
		require.NoError(t, err)
		require.Empty(t, value, "expired token should not be returned")
	})

	t.Run("blacklist", func(t *testing.T) {
		blacklisted, err := cache.IsTokenBlacklisted(t.Context(), "some-token")
		require.NoError(t, err)
		require.False(t, blacklisted, "token should not be blacklisted before AddToBlacklist")

		require.NoError(t, cache.AddToBlacklist(t.Context(), "some-token", time.Minute))

		blacklisted, err = cache.IsTokenBlacklisted(t.Context(), "some-token")
		require.NoError(t, err)
		require.True(t, blacklisted)
	})

	t.Run("blacklist entry self expires", func(t *testing.T) {
		require.NoError(t, cache.AddToBlacklist(t.Context(), "short-lived", time.Second))

		blacklisted, err := cache.IsTokenBlacklisted(t.Context(), "short-lived")
		require.NoError(t, err)
		require.True(t, blacklisted)

		time.Sleep(1500 * time.Millisecond)

		blacklisted, err = cache.IsTokenBlacklisted(t.Context(), "short-lived")
		require.NoError(t, err)
		require.False(t, blacklisted, "entry should expire together with the token")
	})
}
