// Package mail delivers verification emails.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// Sender delivers a verification link. The link is returned even when
// delivery fails so callers can surface it.
type Sender interface {
	SendVerification(ctx context.Context, to, displayName, token string) (string, error)
}

// BuildLink returns <frontendURL>/verify-email?token=<token>.
func BuildLink(frontendURL, token string) (string, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(frontendURL), "/"))
	if err != nil {
		return "", fmt.Errorf("parse frontend url: %w", err)
	}
	link := base.JoinPath("verify-email")
	query := link.Query()
	query.Set("token", token)
	link.RawQuery = query.Encode()
	return link.String(), nil
}

// Paced bounds the outbound send rate of next.
type Paced struct {
	next        Sender
	limiter     *rate.Limiter
	frontendURL string
}

// NewPaced wraps next with limiter. A nil limiter disables pacing.
// frontendURL builds the link returned when no send slot is granted.
func NewPaced(next Sender, limiter *rate.Limiter, frontendURL string) *Paced {
	return &Paced{next: next, limiter: limiter, frontendURL: frontendURL}
}

// SendVerification waits for a send slot, then delegates.
func (p *Paced) SendVerification(ctx context.Context, to, displayName, token string) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			link, linkErr := BuildLink(p.frontendURL, token)
			if linkErr != nil {
				return "", linkErr
			}
			return link, fmt.Errorf("wait for send slot: %w", err)
		}
	}
	return p.next.SendVerification(ctx, to, displayName, token)
}
