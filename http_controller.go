package accounts

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterAccountRoutes mounts the account lifecycle routes. Every route is
// wrapped by the access policy so anonymous and authenticated callers only
// reach the actions the rule table grants them.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) {

	controller := NewAccountController(opts...)

	app.
		Get(controller.Routes.Login,
			controller.guard(ActionLogin, controller.LoginShow),
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.Login,
			controller.guard(ActionLogin, controller.LoginPost),
		).
		SetName("sign-in.post")

	// logout is a state change, POST only
	app.Post(controller.Routes.Logout, controller.guard(ActionLogout, controller.LogOut)).
		SetName("sign-out.post")

	app.Get(controller.Routes.Signup, controller.guard(ActionSignup, controller.SignupShow)).
		SetName("sign-up.get")
	app.Post(controller.Routes.Signup, controller.guard(ActionSignup, controller.SignupPost)).
		SetName("sign-up.post")

	app.Get(controller.Routes.ConfirmEmail, controller.guard(ActionConfirmEmail, controller.ConfirmEmail)).
		SetName("confirm-email.get")

	app.Get(controller.Routes.PasswordReset, controller.guard(ActionRequestPasswordReset, controller.PasswordResetShow)).
		SetName("pwd-reset.get")
	app.Post(controller.Routes.PasswordReset, controller.guard(ActionRequestPasswordReset, controller.PasswordResetPost)).
		SetName("pwd-reset.post")

	app.Get(fmt.Sprintf("%s/:token", controller.Routes.ResetPassword), controller.guard(ActionResetPassword, controller.ResetPasswordShow)).
		SetName("pwd-reset-do.get")
	app.Post(fmt.Sprintf("%s/:token", controller.Routes.ResetPassword), controller.guard(ActionResetPassword, controller.ResetPasswordExecute)).
		SetName("pwd-reset-do.post")
}

type AccountControllerRoutes struct {
	Login         string
	Logout        string
	Signup        string
	ConfirmEmail  string
	PasswordReset string
	ResetPassword string
}

type AccountControllerViews struct {
	Login         string
	Signup        string
	PasswordReset string
	ResetPassword string
}

type AccountController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Keys         KeyStorage
	Mailer       Mailer
	Routes       *AccountControllerRoutes
	Views        *AccountControllerViews
	Auther       HTTPAuthenticator
	Policy       *AccessPolicy
	ErrorHandler router.ErrorHandler

	routeAuth *RouteAuthenticator
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithKeyStorage(keys KeyStorage) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Keys = keys
		return c
	}
}

func WithMailer(mailer Mailer) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if mailer != nil {
			c.Mailer = mailer
		}
		return c
	}
}

func WithHTTPAuthenticator(auther HTTPAuthenticator) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Auther = auther
		if ra, ok := auther.(*RouteAuthenticator); ok {
			c.routeAuth = ra
		}
		return c
	}
}

func WithAccessPolicy(policy *AccessPolicy) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Policy = policy
		return c
	}
}

func WithControllerRoutes(routes *AccountControllerRoutes) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

func WithControllerViews(views *AccountControllerViews) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if views != nil {
			c.Views = views
		}
		return c
	}
}

func WithErrorHandler(handler router.ErrorHandler) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if handler != nil {
			c.ErrorHandler = handler
		}
		return c
	}
}

func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:       defLogger{},
		Mailer:       NoopMailer{},
		ErrorHandler: defaultErrHandler,
		Policy:       DefaultAccountPolicy("/profile"),
		Routes: &AccountControllerRoutes{
			Login:         "/login",
			Logout:        "/logout",
			Signup:        "/signup",
			ConfirmEmail:  "/confirm-email",
			PasswordReset: "/request-password-reset",
			ResetPassword: "/reset-password",
		},
		Views: &AccountControllerViews{
			Login:         "login",
			Signup:        "signup",
			PasswordReset: "request_password_reset",
			ResetPassword: "reset_password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in account controller...")
	}

	if c.Keys == nil {
		panic("Missing KeyStorage in account controller...")
	}

	return c
}

// guard applies the access policy to a handler when the controller has the
// pieces to resolve a session, otherwise the handler runs unguarded.
func (a *AccountController) guard(action string, handler router.HandlerFunc) router.HandlerFunc {
	if a.Policy == nil || a.routeAuth == nil {
		return handler
	}
	return PolicyMiddleware(a.Policy, action, a.routeAuth)(handler)
}

func (a *AccountController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession reports whether the remember me box was checked
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AccountController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errs := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		a.Logger.Warn("login rejected", "identifier", payload.Identifier, "error", err)
		errs["authentication"] = "Incorrect username or password."
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	a.trackLogin(ctx, payload.GetIdentifier())

	redirect := a.Auther.GetRedirect(ctx, "/")

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

// trackLogin stamps the client address and clears the attempt counters.
// Best effort, a failed stamp never blocks an authenticated user.
func (a *AccountController) trackLogin(ctx router.Context, identifier string) {
	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), identifier)
	if err != nil {
		a.Logger.Warn("login tracking lookup failed", "identifier", identifier, "error", err)
		return
	}

	if err := a.Repo.Users().TrackSucccessfulLogin(ctx.Context(), user, clientIP(ctx)); err != nil {
		a.Logger.Warn("login tracking failed", "identifier", identifier, "error", err)
	}
}

func (a *AccountController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect("/", router.StatusSeeOther)
}

func (a *AccountController) SignupShow(ctx router.Context) error {
	open := a.Keys.GetBool(ctx.Context(), SettingRegistrationOpen, true)

	return ctx.Render(a.Views.Signup, router.ViewContext{
		"errors":            map[string]string{},
		"record":            SignupPayload{},
		"registration_open": open,
	})
}

// SignupPayload is the form payload
type SignupPayload struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) SignupPost(ctx router.Context) error {
	payload := new(SignupPayload)

	if err := ctx.Bind(payload); err != nil {
		errs := map[string]string{}
		errs["form"] = "Failed to parse form"
		a.Logger.Error("signup parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Signup, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		errs := FormatValidationErrorToMap(err)
		a.Logger.Error("signup validate payload", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Signup, router.ViewContext{
			"record":     payload,
			"validation": errs,
		})
	}

	var res *RegisterUserResponse

	req := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *RegisterUserResponse) {
			res = resp
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Keys, a.Mailer).WithLogger(a.Logger)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		if errors.Is(err, ErrRegistrationDisabled) {
			// no form on a closed registration, just the notice
			return flash.WithInfo(ctx, router.ViewContext{
				"system_message": "Registration is currently closed.",
			}).Redirect(a.Routes.Signup, fiber.StatusSeeOther)
		}

		a.Logger.Error("signup execute error", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating account",
		}).Render(a.Views.Signup, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	if res != nil && res.ConfirmationRequired {
		if !res.EmailSent {
			return flash.WithError(ctx, router.ViewContext{
				"system_message": "Error sending confirmation email. Please try again later.",
			}).Redirect(a.Routes.Signup, fiber.StatusSeeOther)
		}

		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": "Thank you for registering. Check your email to confirm your account.",
		}).Redirect(a.Routes.Signup, fiber.StatusSeeOther)
	}

	// no confirmation round trip required, start the session right away
	login := LoginRequest{Identifier: payload.Email, Password: payload.Password}
	if err := a.Auther.Login(ctx, login); err != nil {
		a.Logger.Warn("signup auto login failed", "email", payload.Email, "error", err)
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": "Account created, you can sign in now.",
		}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Welcome! Your account is ready.",
	}).Redirect("/", fiber.StatusSeeOther)
}

func (a *AccountController) ConfirmEmail(ctx router.Context) error {
	id := ctx.Query("id", "")
	token := ctx.Query("token", "")

	var res *ConfirmEmailResponse

	req := ConfirmEmailMessage{
		UserID: id,
		Token:  token,
		OnResponse: func(resp *ConfirmEmailResponse) {
			res = resp
		},
	}

	confirm := NewConfirmEmailHandler(a.Repo).WithLogger(a.Logger)
	if err := confirm.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("confirm email execute error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if res == nil || !res.Activated {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Sorry, we are not able to verify your account with the provided token.",
		}).Redirect("/", fiber.StatusSeeOther)
	}

	// same target as the failure branch, the flash carries the outcome
	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Your email has been confirmed. You can sign in now.",
	}).Redirect("/", fiber.StatusSeeOther)
}

func (a *AccountController) PasswordResetShow(ctx router.Context) error {
	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AccountController) PasswordResetPost(ctx router.Context) error {
	errs := map[string]string{}
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		errs["form"] = "Failed to parse form"
		a.Logger.Error("password reset parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.PasswordReset, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("password reset validate payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := InitializePasswordResetMessage{
		Email: payload.Email,
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo, a.Mailer).WithLogger(a.Logger)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset execute error", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error processing request",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	// same message whether or not the address is registered
	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Check your email for further instructions.",
	}).Redirect(a.Routes.PasswordReset, fiber.StatusSeeOther)
}

func (a *AccountController) ResetPasswordShow(ctx router.Context) error {
	token := ctx.Param("token", "")

	if _, err := ValidateAccessToken(token); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.ResetPassword, router.ViewContext{
		"errors": nil,
		"token":  token,
	})
}

// ResetPasswordPayload holds the replacement password
type ResetPasswordPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(10, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) ResetPasswordExecute(ctx router.Context) error {
	token := ctx.Param("token", "")

	errs := map[string]string{}
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		errs["form"] = "Failed to parse form"
		a.Logger.Error("reset password parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.ResetPassword, router.ViewContext{
			"errors": errs,
			"record": payload,
			"token":  token,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("reset password validate payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.ResetPassword, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
			"token":      token,
		})
	}

	input := FinalizePasswordResetMessage{
		Token:    token,
		Password: payload.Password,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo).WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), input); err != nil {
		// structural token failures take the error page, everything else
		// re-renders the form
		if IsBadTokenError(err) {
			return a.ErrorHandler(ctx, err)
		}

		errs["reset"] = err.Error()
		return ctx.Render(a.Views.ResetPassword, router.ViewContext{
			"errors": errs,
			"token":  token,
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "New password saved.",
	}).Redirect("/", fiber.StatusSeeOther)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func clientIP(ctx router.Context) string {
	if ip := ctx.Header("X-Forwarded-For"); ip != "" {
		if i := strings.Index(ip, ","); i > 0 {
			return strings.TrimSpace(ip[:i])
		}
		return ip
	}
	return ctx.Header("X-Real-IP")
}

func defaultErrHandler(c router.Context, err error) error {
	if IsBadTokenError(err) || IsMalformedError(err) {
		message := "The link you followed is not valid."
		if IsTokenExpiredError(err) {
			message = "The link you followed has expired. Please request a new one."
		}

		return c.Status(fiber.StatusBadRequest).Render("errors/400", router.ViewContext{
			"message": message,
		})
	}

	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
