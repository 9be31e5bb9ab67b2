package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ConfirmEmailMessage struct {
	UserID     string `json:"id" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"User identifier from the confirmation link"`
	Token      string `json:"token" doc:"Single use confirmation token"`
	OnResponse func(resp *ConfirmEmailResponse)
}

func (e ConfirmEmailMessage) Type() string { return "user.confirm_email" }

type ConfirmEmailResponse struct {
	User *User
	// Activated is false when no pending account matched the link, which
	// covers unknown users, stale tokens, and already confirmed accounts.
	Activated bool
}

type ConfirmEmailHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewConfirmEmailHandler(repo RepositoryManager) *ConfirmEmailHandler {
	return &ConfirmEmailHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ConfirmEmailHandler) WithLogger(logger Logger) *ConfirmEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmEmailHandler) Execute(ctx context.Context, event ConfirmEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailHandler) execute(ctx context.Context, event ConfirmEmailMessage) error {
	resp := &ConfirmEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	id, err := uuid.Parse(event.UserID)
	if err != nil {
		// a mangled link is expected traffic, not an application error
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// the activation update matches id, token and inactive status in a
		// single statement so a reused link loses the race cleanly
		user, err := h.repo.Users().ActivateTx(ctx, tx, id, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate account")
		}

		resp.User = user
		resp.Activated = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm email")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
