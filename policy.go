package accounts

import (
	"net/http"
	"slices"

	"github.com/goliatone/go-router"
)

// Account workflow action names, shared by the policy and the controller
const (
	ActionLogin                = "login"
	ActionLogout               = "logout"
	ActionSignup               = "signup"
	ActionConfirmEmail         = "confirm-email"
	ActionRequestPasswordReset = "request-password-reset"
	ActionResetPassword        = "reset-password"
)

// AnonymousActions are usable without a session
var AnonymousActions = []string{
	ActionLogin,
	ActionSignup,
	ActionConfirmEmail,
	ActionRequestPasswordReset,
	ActionResetPassword,
}

// DecisionKind discriminates policy outcomes
type DecisionKind int

const (
	// DecisionAllow lets dispatch continue
	DecisionAllow DecisionKind = iota
	// DecisionDenyRedirect denies with an explicit redirect target
	DecisionDenyRedirect
	// DecisionDenyDefault denies and leaves handling to the dispatcher,
	// which remembers the rejected route and bounces to login
	DecisionDenyDefault
)

// Decision is the result of evaluating the access policy for one action.
// Rules produce data, not callbacks; the dispatcher interprets the result.
type Decision struct {
	Kind     DecisionKind
	Redirect string
}

func Allow() Decision {
	return Decision{Kind: DecisionAllow}
}

func DenyWithRedirect(target string) Decision {
	return Decision{Kind: DecisionDenyRedirect, Redirect: target}
}

func DenyDefault() Decision {
	return Decision{Kind: DecisionDenyDefault}
}

// AccessRule matches an action set against the caller's authentication
// state. An empty Actions list matches every action.
type AccessRule struct {
	Actions       []string
	Anonymous     bool
	Authenticated bool
	Allow         bool
	DenyRedirect  string
}

func (r AccessRule) matches(action string, authenticated bool) bool {
	if len(r.Actions) > 0 && !slices.Contains(r.Actions, action) {
		return false
	}

	if authenticated {
		return r.Authenticated
	}
	return r.Anonymous
}

// AccessPolicy is an ordered rule table, first match wins. A request that
// matches no rule is denied.
type AccessPolicy struct {
	rules []AccessRule
}

func NewAccessPolicy(rules ...AccessRule) *AccessPolicy {
	return &AccessPolicy{rules: rules}
}

// DefaultAccountPolicy gates the account lifecycle actions: anonymous
// callers get the account actions, authenticated callers are bounced from
// them to their own profile, everything else requires authentication.
func DefaultAccountPolicy(profileRoute string) *AccessPolicy {
	if profileRoute == "" {
		profileRoute = "/profile"
	}

	return NewAccessPolicy(
		AccessRule{
			Actions:   AnonymousActions,
			Anonymous: true,
			Allow:     true,
		},
		AccessRule{
			Actions:       AnonymousActions,
			Authenticated: true,
			Allow:         false,
			DenyRedirect:  profileRoute,
		},
		AccessRule{
			Authenticated: true,
			Allow:         true,
		},
	)
}

// Evaluate runs the rule table for one action
func (p *AccessPolicy) Evaluate(action string, authenticated bool) Decision {
	for _, rule := range p.rules {
		if !rule.matches(action, authenticated) {
			continue
		}

		if rule.Allow {
			return Allow()
		}

		if rule.DenyRedirect != "" {
			return DenyWithRedirect(rule.DenyRedirect)
		}

		return DenyDefault()
	}

	return DenyDefault()
}

// PolicyMiddleware evaluates the access policy before the wrapped handler
// runs. The session, when present, is stored under the configured context
// key so handlers can reuse it.
func PolicyMiddleware(policy *AccessPolicy, action string, auther *RouteAuthenticator) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			session := resolveSession(ctx, auther)

			decision := policy.Evaluate(action, session != nil)

			switch decision.Kind {
			case DecisionAllow:
				if session != nil {
					ctx.Locals(auther.cfg.GetContextKey(), session)
				}
				return next(ctx)

			case DecisionDenyRedirect:
				return ctx.Redirect(decision.Redirect, router.StatusSeeOther)

			default:
				auther.SetRedirect(ctx)

				statusCode := http.StatusSeeOther
				if ctx.Method() == string(router.GET) {
					statusCode = http.StatusFound
				}
				return ctx.Redirect("/login", statusCode)
			}
		}
	}
}

func resolveSession(ctx router.Context, auther *RouteAuthenticator) *SessionObject {
	raw := ctx.Cookies(auther.cfg.GetContextKey())
	if raw == "" {
		return nil
	}

	session, err := auther.auth.SessionFromToken(raw)
	if err != nil {
		auther.Logger.Debug("policy session decode failed", "error", err)
		return nil
	}

	if so, ok := session.(*SessionObject); ok {
		return so
	}

	return nil
}
