package accounts

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/gomail.v2"
)

// MailerConfig holds SMTP settings plus the public base URL used to build
// the links embedded in account emails.
type MailerConfig struct {
	Host     string `env:"SMTP_HOST" envDefault:"localhost"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@localhost"`
	BaseURL  string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	AppName  string `env:"APP_NAME" envDefault:"Admin"`
}

// NewMailerConfigFromEnv loads SMTP settings from environment variables.
func NewMailerConfigFromEnv() (MailerConfig, error) {
	cfg, err := env.ParseAs[MailerConfig]()
	if err != nil {
		return MailerConfig{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse mailer environment")
	}
	return cfg, nil
}

// SMTPMailer delivers account lifecycle emails over SMTP.
type SMTPMailer struct {
	config MailerConfig
	dialer *gomail.Dialer
	logger Logger
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg MailerConfig) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: defLogger{},
	}
}

func (m *SMTPMailer) WithLogger(logger Logger) *SMTPMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *SMTPMailer) SendAccountConfirmation(ctx context.Context, user *User) error {
	if user == nil || user.AccessToken == nil {
		return goerrors.New("user has no confirmation token", goerrors.CategoryBadInput)
	}

	link := fmt.Sprintf("%s/confirm-email?id=%s&token=%s", m.config.BaseURL, user.ID, *user.AccessToken)

	subject := fmt.Sprintf("Confirm your %s account", m.config.AppName)
	body := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>Follow the link below to confirm your email and activate your account:</p>
<p><a href="%s">%s</a></p>`,
		user.Username, link, link,
	)

	return m.send(ctx, user.Email, subject, body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, user *User) error {
	if user == nil || user.AccessToken == nil {
		return goerrors.New("user has no reset token", goerrors.CategoryBadInput)
	}

	link := fmt.Sprintf("%s/reset-password/%s", m.config.BaseURL, *user.AccessToken)

	subject := fmt.Sprintf("%s password reset", m.config.AppName)
	body := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>Follow the link below to choose a new password:</p>
<p><a href="%s">%s</a></p>
<p>If you did not request this you can ignore this message.</p>`,
		user.Username, link, link,
	)

	return m.send(ctx, user.Email, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled before email delivery")
	default:
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	m.logger.Debug("sending email", "to", to, "subject", subject)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deliver email")
	}

	return nil
}

// NoopMailer drops every message, useful in development and tests.
type NoopMailer struct {
	Logger Logger
}

var _ Mailer = NoopMailer{}

func (m NoopMailer) SendAccountConfirmation(ctx context.Context, user *User) error {
	m.log("account confirmation", user)
	return nil
}

func (m NoopMailer) SendPasswordReset(ctx context.Context, user *User) error {
	m.log("password reset", user)
	return nil
}

func (m NoopMailer) log(kind string, user *User) {
	logger := m.Logger
	if logger == nil {
		logger = defLogger{}
	}

	email := "<nil>"
	if user != nil {
		email = user.Email
	}

	logger.Info("mail delivery skipped", "kind", kind, "email", email)
}
