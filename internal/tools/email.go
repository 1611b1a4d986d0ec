package tools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/dealflow/internal/google"
	"github.com/haasonsaas/dealflow/pkg/models"
)

// SendEmail is the Gmail send tool.
type SendEmail struct {
	sender EmailSender
}

// NewSendEmail creates the tool over the given sender.
func NewSendEmail(sender EmailSender) *SendEmail {
	return &SendEmail{sender: sender}
}

// Name implements agent.Tool.
func (t *SendEmail) Name() string { return "send_email" }

// Description implements agent.Tool.
func (t *SendEmail) Description() string { return "Send an email via Gmail" }

// Schema implements agent.Tool.
func (t *SendEmail) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"to": {"type": "string", "description": "Recipient email address"},
			"subject": {"type": "string", "description": "Email subject line"},
			"body": {"type": "string", "description": "Email body content"}
		},
		"required": ["to", "subject", "body"]
	}`)
}

// Execute implements agent.Tool.
func (t *SendEmail) Execute(ctx context.Context, input json.RawMessage) (models.ToolResult, error) {
	var params struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return models.ToolResult{}, err
	}

	res := t.sender.SendEmail(ctx, google.SendEmailParams{
		To:      params.To,
		Subject: params.Subject,
		Body:    params.Body,
	})
	if !res.Success {
		return models.Failure(res.Error), nil
	}

	result := models.ToolResult{Success: true}
	if res.MessageID != "" {
		result.Result = map[string]any{"messageId": res.MessageID}
	}
	return result, nil
}
