package mail

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const verificationSubject = "Verify your email address"

type sendClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridConfig configures SendGridSender.
type SendGridConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
	FrontendURL string
	// LinkTTL is the lifetime quoted in the email body.
	LinkTTL time.Duration
}

// SendGridSender sends verification emails through SendGrid. Without an API
// key it only logs the link.
type SendGridSender struct {
	client      sendClient
	from        *sgmail.Email
	frontendURL string
	linkTTL     time.Duration
	logger      *slog.Logger
}

// NewSendGridSender builds a sender from cfg.
func NewSendGridSender(cfg SendGridConfig, logger *slog.Logger) *SendGridSender {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SendGridSender{
		from:        sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		frontendURL: cfg.FrontendURL,
		linkTTL:     cfg.LinkTTL,
		logger:      logger,
	}
	if cfg.APIKey != "" {
		s.client = sendgrid.NewSendClient(cfg.APIKey)
	}
	return s
}

// Enabled reports whether emails are actually sent.
func (s *SendGridSender) Enabled() bool {
	return s.client != nil
}

// SendVerification emails the verification link to the recipient.
func (s *SendGridSender) SendVerification(ctx context.Context, to, displayName, token string) (string, error) {
	link, err := BuildLink(s.frontendURL, token)
	if err != nil {
		return "", err
	}
	if s.client == nil {
		s.logger.Info("email transport disabled, verification link not sent", "to", to, "link", link)
		return link, nil
	}

	plain, html := verificationBody(displayName, link, s.linkTTL)
	message := sgmail.NewSingleEmail(s.from, verificationSubject, sgmail.NewEmail(displayName, to), plain, html)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return link, fmt.Errorf("send verification email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return link, fmt.Errorf("send verification email: sendgrid status %d", resp.StatusCode)
	}
	s.logger.Info("verification email sent", "to", to, "status", resp.StatusCode)
	return link, nil
}

func verificationBody(name, link string, ttl time.Duration) (string, string) {
	expiry := expiryText(ttl)
	plain := fmt.Sprintf("Hi %s,\n\nPlease verify your email address by opening the link below:\n\n%s\n\n"+
		"This link expires in %s. If you did not create an account, you can ignore this email.\n", name, link, expiry)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Please verify your email address by clicking the button below.</p>
<p><a href="%s" style="display:inline-block;padding:10px 20px;background:#2563eb;color:#ffffff;text-decoration:none;border-radius:4px">Verify email</a></p>
<p>Or copy this link into your browser:<br>%s</p>
<p>This link expires in %s. If you did not create an account, you can ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(link), html.EscapeString(link), expiry)
	return plain, body
}

// expiryText renders ttl as "24 hours", "30 minutes" or, failing whole
// units, the duration string. Zero means the default 24 hours.
func expiryText(ttl time.Duration) string {
	switch {
	case ttl <= 0:
		return "24 hours"
	case ttl%time.Hour == 0:
		return plural(int64(ttl/time.Hour), "hour")
	case ttl%time.Minute == 0:
		return plural(int64(ttl/time.Minute), "minute")
	default:
		return ttl.String()
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
