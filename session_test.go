package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRouterSession(t *testing.T) {
	now := time.Now()

	t.Run("missing local yields no session", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("Locals", "user").Return(nil)

		_, err := accounts.GetRouterSession(ctx, "user")
		assert.ErrorIs(t, err, accounts.ErrUnableToFindSession)
	})

	t.Run("stored session object passes through", func(t *testing.T) {
		stored := &accounts.SessionObject{UserID: "user-1"}

		ctx := new(MockContext)
		ctx.On("Locals", "user").Return(stored)

		session, err := accounts.GetRouterSession(ctx, "user")
		require.NoError(t, err)
		assert.Same(t, stored, session)
	})

	t.Run("auth claims become a session", func(t *testing.T) {
		claims := &accounts.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "accounts",
				Subject:   "user-1",
				Audience:  jwt.ClaimStrings{"web"},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			UID:        "user-1",
			UserEmail:  "pepe@example.com",
			UserStatus: accounts.UserStatusActive,
		}

		ctx := new(MockContext)
		ctx.On("Locals", "user").Return(claims)

		session, err := accounts.GetRouterSession(ctx, "user")
		require.NoError(t, err)

		assert.Equal(t, "user-1", session.GetUserID())
		assert.Equal(t, "accounts", session.GetIssuer())
		assert.Equal(t, []string{"web"}, session.GetAudience())
		assert.Equal(t, "pepe@example.com", session.GetData()["email"])
		assert.Equal(t, accounts.UserStatusActive, session.GetData()["status"])
	})

	t.Run("unexpected local type is rejected", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("Locals", "user").Return("a plain string")

		_, err := accounts.GetRouterSession(ctx, "user")
		assert.ErrorIs(t, err, accounts.ErrUnableToDecodeSession)
	})
}

func TestSessionObjectUserUUID(t *testing.T) {
	session := &accounts.SessionObject{UserID: "7b1ee40e-173c-4b26-8b86-47c7798ff1a2"}

	id, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, "7b1ee40e-173c-4b26-8b86-47c7798ff1a2", id.String())

	session.UserID = "not-a-uuid"
	_, err = session.GetUserUUID()
	assert.Error(t, err)
}
