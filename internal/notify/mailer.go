// Package notify sends participant-facing email.
package notify

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/wneessen/go-mail"

	"festreg/internal/models"
)

var ErrDisabled = errors.New("mailer disabled: no SMTP host configured")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// PortalURL is linked from the welcome mail.
	PortalURL string
}

// Mailer delivers welcome emails over SMTP.
type Mailer struct {
	cfg    Config
	logger *slog.Logger
	send   func(ctx context.Context, msg *mail.Msg) error
}

func New(cfg Config, logger *slog.Logger) *Mailer {
	m := &Mailer{cfg: cfg, logger: logger}
	m.send = m.dialAndSend
	return m
}

func (m *Mailer) Enabled() bool { return strings.TrimSpace(m.cfg.Host) != "" }

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// SendWelcomeEmail mails p their temporary password and returns the message
// ID.
func (m *Mailer) SendWelcomeEmail(ctx context.Context, p models.Participant, password string) (string, error) {
	if !m.Enabled() {
		m.logger.WarnContext(ctx, "Skipping welcome email", slog.String("email", p.Email))
		return "", ErrDisabled
	}

	msg, err := m.welcomeMessage(p, password)
	if err != nil {
		return "", err
	}
	if err := m.send(ctx, msg); err != nil {
		return "", fmt.Errorf("send welcome email to %s: %w", p.Email, err)
	}
	return msg.GetMessageID(), nil
}

func (m *Mailer) welcomeMessage(p models.Participant, password string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.AddToFormat(p.FullName, p.Email); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject("Welcome to the festival")
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, welcomeBody(p, password, m.cfg.PortalURL))
	return msg, nil
}

func welcomeBody(p models.Participant, password, portal string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", p.FullName)
	b.WriteString("Your registration has been received and is pending review.\n\n")
	fmt.Fprintf(&b, "Login email: %s\n", p.Email)
	fmt.Fprintf(&b, "Temporary password: %s\n", password)
	if portal != "" {
		fmt.Fprintf(&b, "\nSign in at %s and change your password.\n", portal)
	}
	return b.String()
}

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const PasswordLength = 12

// GeneratePassword returns a random temporary password without look-alike
// characters.
func GeneratePassword() (string, error) {
	out := make([]byte, PasswordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
