package accounts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AccessTokenTTL is the validity window for confirmation and reset tokens
var AccessTokenTTL = "24h"

// AccessToken is the parsed form of a single-use account token. The wire
// format is "<hex random>_<unix seconds>" so expiry can be checked without a
// database round trip.
type AccessToken struct {
	Secret   string
	IssuedAt time.Time
}

// String re-encodes the token into its wire format
func (t AccessToken) String() string {
	return fmt.Sprintf("%s_%d", t.Secret, t.IssuedAt.Unix())
}

// Expired reports whether the token is outside the given validity window
func (t AccessToken) Expired(window string) (bool, error) {
	return IsOutsideThresholdPeriod(t.IssuedAt, window)
}

// GenerateAccessToken mints a fresh single-use token
func GenerateAccessToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	token := AccessToken{
		Secret:   hex.EncodeToString(buf),
		IssuedAt: time.Now(),
	}

	return token.String(), nil
}

// ParseAccessToken validates the structure of a raw token. A malformed token
// yields ErrTokenMalformed; structure only, expiry is checked separately so
// callers can choose their window.
func ParseAccessToken(raw string) (AccessToken, error) {
	secret, stamp, found := strings.Cut(raw, "_")
	if !found || secret == "" || stamp == "" {
		return AccessToken{}, ErrTokenMalformed
	}

	if _, err := hex.DecodeString(secret); err != nil {
		return AccessToken{}, ErrTokenMalformed
	}

	unix, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil || unix <= 0 {
		return AccessToken{}, ErrTokenMalformed
	}

	return AccessToken{
		Secret:   secret,
		IssuedAt: time.Unix(unix, 0),
	}, nil
}

// ValidateAccessToken parses raw and enforces the package validity window.
// Returns ErrTokenMalformed or ErrTokenExpired on the two failure channels.
func ValidateAccessToken(raw string) (AccessToken, error) {
	token, err := ParseAccessToken(raw)
	if err != nil {
		return AccessToken{}, err
	}

	expired, err := token.Expired(AccessTokenTTL)
	if err != nil {
		return AccessToken{}, ErrTokenMalformed
	}

	if expired {
		return AccessToken{}, ErrTokenExpired
	}

	return token, nil
}
