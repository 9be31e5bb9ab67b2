// Package accounts implements the account lifecycle for admin backed web
// applications: login, signup with optional double opt-in email confirmation,
// token based password reset, and the access policy that gates anonymous vs
// authenticated actions. It also carries the key-value settings store that
// backs feature flags and the admin layout shell.
//
// The package exposes an HTTP controller for goliatone/go-router and keeps
// persistence behind bun repositories so hosts can mount the routes against
// their own database and view engine.
package accounts
