package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User *User
	// ConfirmationRequired is true when the account was created inactive
	// and a confirmation email was attempted instead of an immediate session.
	ConfirmationRequired bool
	// EmailSent reports whether the confirmation email went out. Only
	// meaningful when ConfirmationRequired is true.
	EmailSent bool
	Success   bool
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	keys   KeyStorage
	mailer Mailer
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, keys KeyStorage, mailer Mailer) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		keys:   keys,
		mailer: mailer,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	resp := &RegisterUserResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if open := h.keys.GetBool(ctx, SettingRegistrationOpen, true); !open {
		return ErrRegistrationDisabled
	}

	needsConfirmation := h.keys.GetBool(ctx, SettingEmailConfirm, false)

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Username = getUsername(event.Username, event.Email)
		user.Status = UserStatusActive

		if needsConfirmation {
			token, err := GenerateAccessToken()
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate confirmation token")
			}
			user.Status = UserStatusInactive
			user.SetAccessToken(token)
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if needsConfirmation {
		if err := h.mailer.SendAccountConfirmation(ctx, user); err != nil {
			// account exists at this point, the user can re-request a link
			h.logger.Error("failed to send confirmation email", "error", err, "email", user.Email)
		} else {
			resp.EmailSent = true
		}
	}

	resp.User = user
	resp.ConfirmationRequired = needsConfirmation
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
