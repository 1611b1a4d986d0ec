package script

import (
	"regexp"
	"strings"

	"github.com/haasonsaas/dealflow/pkg/models"
)

var (
	toLineRe      = regexp.MustCompile(`(?i)To:\s*(.+?)(?:\n|$)`)
	subjectLineRe = regexp.MustCompile(`(?i)Subject:\s*(.+?)(?:\n|$)`)
	bodyBlockRe   = regexp.MustCompile(`---\s*\n([\s\S]+?)\n---`)
	bodyLabelRe   = regexp.MustCompile(`(?i)^Body:\s*`)
	greetingRe    = regexp.MustCompile(`(?i)^(Hi|Hello|Hey|Dear)\s+\w+`)
)

// fallbackSubject is used when the output is a bare email body with no
// Subject line at all.
const fallbackSubject = "Re: InventoryAI - Streamlining Your Operations"

// ParseEmail lifts a structured email out of a turn's accumulated free-text
// output. It tries three layers in order: the strict To/Subject/--- format
// the prompts ask for, then a Subject line with everything after it as the
// body, then a bare greeting-shaped body. Returns nil when the output is not
// email-shaped at all.
func ParseEmail(output string) *models.ParsedEmail {
	to := DemoProspect.Email
	if m := toLineRe.FindStringSubmatch(output); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			to = v
		}
	}

	subjectMatch := subjectLineRe.FindStringSubmatch(output)

	// Strict format: Subject line plus a body fenced between --- markers.
	if subjectMatch != nil {
		if body := bodyBlockRe.FindStringSubmatch(output); body != nil {
			return &models.ParsedEmail{
				To:       to,
				ToName:   DemoProspect.Name,
				From:     DemoSender.Email,
				FromName: DemoSender.Name,
				Subject:  strings.TrimSpace(subjectMatch[1]),
				Body:     strings.TrimSpace(body[1]),
			}
		}
	}

	// Relaxed: everything after the Subject line is the body.
	if subjectMatch != nil {
		idx := strings.Index(output, subjectMatch[0])
		after := strings.TrimSpace(output[idx+len(subjectMatch[0]):])
		body := strings.TrimSpace(bodyLabelRe.ReplaceAllString(after, ""))
		if body != "" {
			return &models.ParsedEmail{
				To:       to,
				ToName:   DemoProspect.Name,
				From:     DemoSender.Email,
				FromName: DemoSender.Name,
				Subject:  strings.TrimSpace(subjectMatch[1]),
				Body:     body,
			}
		}
	}

	// Bare body: a greeting opener means the whole output is the email.
	if greetingRe.MatchString(output) {
		return &models.ParsedEmail{
			To:       DemoProspect.Email,
			ToName:   DemoProspect.Name,
			From:     DemoSender.Email,
			FromName: DemoSender.Name,
			Subject:  fallbackSubject,
			Body:     strings.TrimSpace(output),
		}
	}

	return nil
}

// StandardPricing is the fixed price breakdown attached to every parsed
// proposal. The numbers mirror the proposal prompt.
var StandardPricing = models.Pricing{
	BasePlatform:       2500,
	PerWarehouse:       500,
	WarehouseCount:     2,
	UserLicenses:       50,
	UserCount:          15,
	IntegrationSetup:   1000,
	IntegrationMonthly: 200,
	Implementation:     5000,
	TotalMonthly:       4450,
	TotalOneTime:       6000,
}

// ParseProposal parses a proposal email out of turn output and attaches the
// standard pricing breakdown. Returns nil when no email can be parsed.
func ParseProposal(output string) *models.Proposal {
	email := ParseEmail(output)
	if email == nil {
		return nil
	}
	return &models.Proposal{
		To:      email.To,
		ToName:  email.ToName,
		Subject: email.Subject,
		Body:    email.Body,
		Pricing: StandardPricing,
	}
}
