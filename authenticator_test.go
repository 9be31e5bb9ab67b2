package accounts_test

import (
	"context"
	"errors"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if identity, ok := args.Get(0).(accounts.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier)
	if identity, ok := args.Get(0).(accounts.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

func newAuthConfig() *MockConfig {
	cfg := new(MockConfig)
	cfg.On("GetSigningKey").Return("test-signing-key")
	cfg.On("GetTokenExpiration").Return(24)
	cfg.On("GetIssuer").Return("accounts")
	cfg.On("GetAudience").Return([]string(nil))
	return cfg
}

func TestAutherLoginMintsSessionToken(t *testing.T) {
	provider := new(MockIdentityProvider)
	identity := newTestIdentity()

	provider.On("VerifyIdentity", mock.Anything, "pepe@example.com", "password12345").
		Return(identity, nil)

	auther := accounts.NewAuthenticator(provider, newAuthConfig()).WithLogger(testLogger{})

	token, err := auther.Login(context.Background(), "pepe@example.com", "password12345")

	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, identity.id, session.GetUserID())

	provider.AssertExpectations(t)
}

func TestAutherLoginPropagatesVerificationError(t *testing.T) {
	provider := new(MockIdentityProvider)

	provider.On("VerifyIdentity", mock.Anything, "pepe@example.com", "wrongpass").
		Return(nil, accounts.ErrMismatchedHashAndPassword)

	auther := accounts.NewAuthenticator(provider, newAuthConfig()).WithLogger(testLogger{})

	_, err := auther.Login(context.Background(), "pepe@example.com", "wrongpass")

	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
}

func TestAutherLoginRejectsNilIdentity(t *testing.T) {
	provider := new(MockIdentityProvider)

	provider.On("VerifyIdentity", mock.Anything, "pepe@example.com", "password12345").
		Return(nil, nil)

	auther := accounts.NewAuthenticator(provider, newAuthConfig()).WithLogger(testLogger{})

	_, err := auther.Login(context.Background(), "pepe@example.com", "password12345")

	assert.ErrorIs(t, err, accounts.ErrIdentityNotFound)
}

func TestAutherSessionFromTokenRejectsGarbage(t *testing.T) {
	provider := new(MockIdentityProvider)
	auther := accounts.NewAuthenticator(provider, newAuthConfig()).WithLogger(testLogger{})

	_, err := auther.SessionFromToken("not.a.jwt")
	assert.Error(t, err)
}

func TestAutherIdentityFromSession(t *testing.T) {
	provider := new(MockIdentityProvider)
	identity := newTestIdentity()

	provider.On("FindIdentityByIdentifier", mock.Anything, identity.id).
		Return(identity, nil)

	auther := accounts.NewAuthenticator(provider, newAuthConfig()).WithLogger(testLogger{})

	session := &accounts.SessionObject{UserID: identity.id}

	found, err := auther.IdentityFromSession(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, identity.email, found.Email())

	t.Run("lookup failure propagates", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("FindIdentityByIdentifier", mock.Anything, "missing").
			Return(nil, errors.New("not found"))

		auther := accounts.NewAuthenticator(provider, newAuthConfig()).WithLogger(testLogger{})

		_, err := auther.IdentityFromSession(context.Background(), &accounts.SessionObject{UserID: "missing"})
		assert.Error(t, err)
	})
}
