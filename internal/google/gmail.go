// Package google wraps the Gmail, Calendar, and Drive APIs as the demo's
// external collaborators. Every operation returns a result value rather than
// propagating provider errors, so callers upstream can feed failures back to
// the model as data.
package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// SendEmailParams is the input of the Gmail send operation.
type SendEmailParams struct {
	To      string
	Subject string
	Body    string
}

// SendEmailResult is the normalized outcome of a Gmail send.
type SendEmailResult struct {
	Success   bool
	MessageID string
	Error     string
}

// SendEmail builds an RFC 2822 message and sends it as the authenticated
// user.
func (s *Service) SendEmail(ctx context.Context, params SendEmailParams) SendEmailResult {
	ts, err := s.auth.TokenSource(ctx)
	if err != nil {
		return SendEmailResult{Error: err.Error()}
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return SendEmailResult{Error: fmt.Sprintf("create gmail client: %v", err)}
	}

	raw := strings.Join([]string{
		"To: " + params.To,
		"Subject: " + params.Subject,
		"Content-Type: text/plain; charset=utf-8",
		"",
		params.Body,
	}, "\r\n")

	msg := &gmail.Message{Raw: base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(raw))}
	sent, err := svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		s.logger.Warn("gmail send failed", "to", params.To, "error", err)
		return SendEmailResult{Error: fmt.Sprintf("failed to send email: %v", err)}
	}
	return SendEmailResult{Success: true, MessageID: sent.Id}
}
