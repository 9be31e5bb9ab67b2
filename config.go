package accounts

import (
	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// EnvConfig satisfies Config from environment variables. Durations are in
// hours; the extended duration backs the remember me checkbox.
type EnvConfig struct {
	SigningKey            string   `env:"AUTH_SIGNING_KEY,required"`
	SigningMethod         string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey            string   `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	TokenExpiration       int      `env:"AUTH_TOKEN_EXPIRATION" envDefault:"24"`
	ExtendedTokenDuration int      `env:"AUTH_EXTENDED_TOKEN_DURATION" envDefault:"720"`
	Issuer                string   `env:"AUTH_ISSUER" envDefault:"accounts"`
	Audience              []string `env:"AUTH_AUDIENCE" envSeparator:","`
	RejectedRouteKey      string   `env:"AUTH_REJECTED_ROUTE_KEY" envDefault:"rejected_route"`
	RejectedRouteDefault  string   `env:"AUTH_REJECTED_ROUTE_DEFAULT" envDefault:"/"`
}

var _ Config = (*EnvConfig)(nil)

// NewConfigFromEnv loads auth settings from environment variables.
func NewConfigFromEnv() (*EnvConfig, error) {
	cfg, err := env.ParseAs[EnvConfig]()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse auth environment")
	}
	return &cfg, nil
}

func (c *EnvConfig) GetSigningKey() string           { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string        { return c.SigningMethod }
func (c *EnvConfig) GetContextKey() string           { return c.ContextKey }
func (c *EnvConfig) GetTokenExpiration() int         { return c.TokenExpiration }
func (c *EnvConfig) GetExtendedTokenDuration() int   { return c.ExtendedTokenDuration }
func (c *EnvConfig) GetIssuer() string               { return c.Issuer }
func (c *EnvConfig) GetAudience() []string           { return c.Audience }
func (c *EnvConfig) GetRejectedRouteKey() string     { return c.RejectedRouteKey }
func (c *EnvConfig) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }
