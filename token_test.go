package accounts_test

import (
	"fmt"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessTokenRoundTrip(t *testing.T) {
	raw, err := accounts.GenerateAccessToken()
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	token, err := accounts.ParseAccessToken(raw)
	require.NoError(t, err)

	assert.Len(t, token.Secret, 32, "16 random bytes hex encoded")
	assert.WithinDuration(t, time.Now(), token.IssuedAt, 5*time.Second)
	assert.Equal(t, raw, token.String())
}

func TestGenerateAccessTokenIsUnique(t *testing.T) {
	a, err := accounts.GenerateAccessToken()
	require.NoError(t, err)
	b, err := accounts.GenerateAccessToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestParseAccessTokenMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty string", raw: ""},
		{name: "no separator", raw: "deadbeef1700000000"},
		{name: "missing secret", raw: "_1700000000"},
		{name: "missing timestamp", raw: "deadbeef_"},
		{name: "secret not hex", raw: "nothexatall_1700000000"},
		{name: "timestamp not a number", raw: "deadbeef_not-a-number"},
		{name: "negative timestamp", raw: "deadbeef_-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.ParseAccessToken(tt.raw)

			require.Error(t, err)
			assert.ErrorIs(t, err, accounts.ErrTokenMalformed)
			assert.True(t, accounts.IsBadTokenError(err))
		})
	}
}

func TestValidateAccessToken(t *testing.T) {
	t.Run("fresh token passes", func(t *testing.T) {
		raw := fmt.Sprintf("deadbeefdeadbeefdeadbeefdeadbeef_%d", time.Now().Unix())

		token, err := accounts.ValidateAccessToken(raw)

		require.NoError(t, err)
		assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeef", token.Secret)
	})

	t.Run("token outside window is expired", func(t *testing.T) {
		stale := accounts.AccessToken{
			Secret:   "deadbeefdeadbeefdeadbeefdeadbeef",
			IssuedAt: time.Now().Add(-25 * time.Hour),
		}

		_, err := accounts.ValidateAccessToken(stale.String())

		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrTokenExpired)
		assert.True(t, accounts.IsBadTokenError(err))
	})

	t.Run("malformed beats expired", func(t *testing.T) {
		_, err := accounts.ValidateAccessToken("garbage")

		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrTokenMalformed)
	})
}

func TestAccessTokenExpired(t *testing.T) {
	token := accounts.AccessToken{
		Secret:   "deadbeef",
		IssuedAt: time.Now().Add(-30 * time.Minute),
	}

	expired, err := token.Expired("1h")
	require.NoError(t, err)
	assert.False(t, expired)

	expired, err = token.Expired("15m")
	require.NoError(t, err)
	assert.True(t, expired)
}
