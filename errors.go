package accounts

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// ErrNoEmptyString rejects empty password input
var ErrNoEmptyString = errors.New("password can't be an empty string")

// ErrMismatchedHashAndPassword is returned for any credential mismatch
var ErrMismatchedHashAndPassword = errors.New("credentials do not match")

// ErrTooManyLoginAttempts login throttling kicked in
var ErrTooManyLoginAttempts = errors.New("too many login attempts, account in cool down period")

const (
	// TextCodeTokenExpired marks expired access tokens
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks structurally invalid access tokens
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
)

// ErrRegistrationDisabled signup attempted while the registration flag is off
var ErrRegistrationDisabled = goerrors.New("registration is disabled", goerrors.CategoryAuthz).
	WithTextCode("REGISTRATION_DISABLED").
	WithCode(goerrors.CodeForbidden)

// ErrTokenExpired is returned when an access token is outside its validity window
var ErrTokenExpired = goerrors.New("access token has expired", goerrors.CategoryBadInput).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenMalformed is returned when an access token fails structural parsing.
// This is a hard client error, distinct from field validation.
var ErrTokenMalformed = goerrors.New("access token is malformed", goerrors.CategoryBadInput).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeBadRequest)

// IsBadTokenError reports whether err is the malformed or expired token error
func IsBadTokenError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}

	switch richErr.TextCode {
	case TextCodeTokenExpired, TextCodeTokenMalformed:
		return true
	}
	return false
}

// IsTokenExpiredError will check for expired tokens, both our access tokens
// and session JWTs
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return true
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for structurally broken tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, jwt.ErrTokenMalformed) {
		return true
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "missing or malformed JWT")
}

// FormatValidationErrorToMap flattens an ozzo validation error into the
// field to message map our views expect
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}
