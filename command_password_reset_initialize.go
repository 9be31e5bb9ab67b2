package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

// InitializePasswordResetResponse is intentionally shaped the same whether
// or not the email matched an account, so the endpoint cannot be used to
// probe which addresses are registered.
type InitializePasswordResetResponse struct {
	Success bool
}

type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		record.EnsureStatus()
		if !record.IsActive() {
			return nil
		}

		if !hasUsableResetToken(record) {
			token, err := GenerateAccessToken()
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
			}

			update := &User{}
			update.ID = record.ID
			update.SetAccessToken(token)

			if _, err := h.repo.Users().UpdateTx(ctx, tx, update, repository.UpdateByID(record.ID.String())); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
			}

			record.SetAccessToken(token)
		}

		user = record
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if user != nil {
		if err := h.mailer.SendPasswordReset(ctx, user); err != nil {
			h.logger.Error("failed to send password reset email", "error", err, "email", user.Email)
		}
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

// hasUsableResetToken reports whether the account already carries a token
// inside its validity window, in which case we resend rather than rotate.
func hasUsableResetToken(user *User) bool {
	if user == nil || user.AccessToken == nil {
		return false
	}

	if _, err := ValidateAccessToken(*user.AccessToken); err != nil {
		return false
	}

	return true
}
