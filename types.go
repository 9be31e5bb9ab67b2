package accounts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	GetExtendedSession() bool
}

// HTTPAuthenticator manages the identity cookie for router based handlers
type HTTPAuthenticator interface {
	Login(c router.Context, payload LoginPayload) error
	Logout(c router.Context)
	SetRedirect(c router.Context)
	GetRedirect(c router.Context, def ...string) string
	GetRedirectOrDefault(c router.Context) string
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Status() UserStatus
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetExtendedTokenDuration() int
	GetIssuer() string
	GetAudience() []string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// KeyStorage is the key-value settings store shared with the admin surface.
// Get returns the stored value for key or def when the key is absent.
type KeyStorage interface {
	Get(ctx context.Context, key string, def any) any
	GetBool(ctx context.Context, key string, def bool) bool
	GetString(ctx context.Context, key string, def string) string
}

// Mailer delivers account lifecycle notifications
type Mailer interface {
	SendAccountConfirmation(ctx context.Context, user *User) error
	SendPasswordReset(ctx context.Context, user *User) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Println("[ERR] ACCOUNTS " + formatLogLine(format, args))
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Println("[WRN] ACCOUNTS " + formatLogLine(format, args))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Println("[INF] ACCOUNTS " + formatLogLine(format, args))
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Println("[DBG] ACCOUNTS " + formatLogLine(format, args))
}

// formatLogLine renders printf style arguments through the format string and
// appends key-value tails ("error", err) as sorted fields.
func formatLogLine(format string, args []any) string {
	fields, rest := splitFieldPairs(args)
	msg := format
	if len(rest) > 0 {
		msg = fmt.Sprintf(format, rest...)
	}

	if len(fields) == 0 {
		return msg
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	return b.String()
}
