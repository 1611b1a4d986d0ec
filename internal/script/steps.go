package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haasonsaas/dealflow/pkg/models"
)

// ErrUnknownStep is returned when a step ID is not part of the script.
var ErrUnknownStep = errors.New("unknown demo step")

// emailFormatInstruction is appended to every email-writing prompt so the
// output parser can recover To/Subject/body reliably.
const emailFormatInstruction = `

Format your response EXACTLY as follows:
To: [recipient email]
Subject: [email subject line]

---
[email body - write the complete email here]
---`

// Service holds the immutable ten-step script. The recipient override lets
// live demos route real sends to an operator-controlled inbox instead of the
// fictional prospect address.
type Service struct {
	steps []models.DemoStep
	byID  map[string]*models.DemoStep
}

// NewService builds the script. If recipient is empty the prospect's own
// address is used.
func NewService(recipient string) *Service {
	if recipient == "" {
		recipient = DemoProspect.Email
	}
	steps := buildSteps(recipient)

	byID := make(map[string]*models.DemoStep, len(steps))
	for i := range steps {
		byID[steps[i].ID] = &steps[i]
	}
	return &Service{steps: steps, byID: byID}
}

// Steps returns the full script in order.
func (s *Service) Steps() []models.DemoStep {
	return s.steps
}

// Step looks up one step by ID.
func (s *Service) Step(id string) (*models.DemoStep, error) {
	step, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	return step, nil
}

func buildSteps(recipient string) []models.DemoStep {
	p := DemoProspect
	sender := DemoSender

	interested := SimulatedEmails.Interested
	picksTime := SimulatedEmails.PicksTime
	requestsPricing := SimulatedEmails.RequestsPricing
	transcript := DiscoveryTranscript

	return []models.DemoStep{
		{
			ID:          "send-outreach",
			Number:      1,
			Title:       "Send Outreach Email",
			Description: "Agent researches prospect and crafts personalized outreach",
			Type:        models.StepAgentAction,
			Tools:       []string{"send_email"},
			Agent: &models.AgentContext{
				SystemPrompt: fmt.Sprintf(`You are a sales development AI assistant. Your task is to craft and send a personalized outreach email.

Target Prospect:
- Name: %s
- Title: %s
- Company: %s
- Industry: %s
- Known pain points: %s

Your sender identity:
- Name: %s
- Title: %s
- Company: %s

Write a compelling, concise outreach email that:
1. Shows you've done research on their company
2. References a specific pain point they likely have
3. Briefly mentions how we can help (without being salesy)
4. Has a clear, low-friction CTA (offering a brief call)
5. Is under 150 words

Be personable but professional. No generic templates.

IMPORTANT: Send the email to exactly this address: %s%s`,
					p.Name, p.Title, p.Company, p.Industry, strings.Join(p.PainPoints, ", "),
					sender.Name, sender.Title, sender.Company,
					recipient, emailFormatInstruction),
				Task: fmt.Sprintf("Draft and send the initial outreach email to %s. Send it to: %s", p.Name, recipient),
			},
		},
		{
			ID:          "customer-interested",
			Number:      2,
			Title:       "Customer Responds",
			Description: "Marcus expresses interest in learning more",
			Type:        models.StepSimulatedResponse,
			Simulated: &models.SimulatedContent{
				Type:  models.ContentEmail,
				Email: &interested,
			},
		},
		{
			ID:          "send-availability",
			Number:      3,
			Title:       "Reply with Availability",
			Description: "Agent checks calendar and offers meeting times",
			Type:        models.StepAgentAction,
			Tools:       []string{"send_email"},
			Agent: &models.AgentContext{
				SystemPrompt: fmt.Sprintf(`You are responding to a prospect who expressed interest in a call.

Context:
- Prospect: %s, %s at %s
- Their email: %s
- They responded positively to your outreach and want to learn more
- They mentioned Q2 pressure from their CFO
- You need to offer specific meeting times

Your sender identity:
- Name: %s
- Title: %s
- Company: %s

Your task:
1. Thank them warmly for their response
2. Acknowledge their timing comment about Q2 pressure
3. Offer 3-4 specific time slots over the next week (Tuesday-Thursday preferred, mornings PT)
4. Keep it brief and easy to respond to

Be warm but efficient. Make it easy for them to just pick a time.

IMPORTANT: Send the email to exactly this address: %s%s`,
					p.Name, p.Title, p.Company, p.Email,
					sender.Name, sender.Title, sender.Company,
					recipient, emailFormatInstruction),
				Task: fmt.Sprintf("Reply to %s with available meeting times for this week and next. Send it to: %s", p.Name, recipient),
			},
		},
		{
			ID:          "customer-picks-time",
			Number:      4,
			Title:       "Customer Picks Time",
			Description: "Marcus confirms Thursday at 10am PT",
			Type:        models.StepSimulatedResponse,
			Simulated: &models.SimulatedContent{
				Type:  models.ContentEmail,
				Email: &picksTime,
			},
		},
		{
			ID:          "book-meeting",
			Number:      5,
			Title:       "Book Meeting",
			Description: "Agent creates calendar invite and confirms",
			Type:        models.StepAgentAction,
			Tools:       []string{"create_calendar_event", "send_email"},
			Agent: &models.AgentContext{
				SystemPrompt: fmt.Sprintf(`You are booking a discovery call with a prospect.

Meeting details:
- Prospect: %s (%s)
- Time: Thursday at 10:00 AM PT
- Duration: 30 minutes
- Type: Discovery Call / Intro Meeting

Your sender identity:
- Name: %s
- Title: %s
- Company: %s

Your task:
1. Create a calendar invite with a clear title
2. Add a brief agenda in the description
3. Send a short confirmation email

Calendar invite should include:
- Clear title: "InventoryAI <> Acme Corp - Discovery Call"
- Video link placeholder: "Video link will be added"
- Brief agenda: Introductions, Understanding current challenges, Quick overview of InventoryAI, Q&A, Next steps

IMPORTANT: Send the confirmation email to exactly this address: %s
IMPORTANT: Add this attendee to the calendar invite: %s%s`,
					p.Name, p.Email,
					sender.Name, sender.Title, sender.Company,
					recipient, recipient, emailFormatInstruction),
				Task: fmt.Sprintf("Create the calendar invite for Thursday 10am PT and send %s a confirmation email. Send to: %s", p.Name, recipient),
			},
		},
		{
			ID:          "load-transcript",
			Number:      6,
			Title:       "Load Call Transcript",
			Description: "The discovery call happened - loading transcript",
			Type:        models.StepSimulatedResponse,
			Simulated: &models.SimulatedContent{
				Type:       models.ContentTranscript,
				Transcript: &transcript,
			},
		},
		{
			ID:          "analyze-and-followup",
			Number:      7,
			Title:       "Analyze & Send Follow-up",
			Description: "Agent extracts insights, finds docs, sends follow-up",
			Type:        models.StepAgentAction,
			Tools:       []string{"search_drive", "send_email"},
			Agent: &models.AgentContext{
				SystemPrompt: fmt.Sprintf(`You are analyzing a sales call transcript and preparing a follow-up.

Call Summary (from the discovery call that just happened):
- Prospect: %s, %s at %s
- Their email: %s
- Key pain points discussed:
  * 2 hours/day spent on inventory reconciliation (500+ hours/year)
  * $50K lost to stockouts last quarter
  * Using 3 disconnected systems (Legacy ERP, spreadsheets, Access DB)
  * 12,000 active SKUs across 2 warehouses
- Requirements: Must integrate with NetSuite
- Social proof: Prospect knows Jamie at Distribution Pro (our customer)
- Action items committed:
  * Send Distribution Pro case study
  * Send NetSuite integration technical specs
  * Schedule demo with warehouse manager (Thursday)

Your sender identity:
- Name: %s
- Title: %s
- Company: %s

Draft a follow-up email that:
1. Thanks them for their time
2. Summarizes 2-3 key takeaways (shows you listened)
3. Mentions the attached documents (case study, integration specs)
4. Confirms the demo is scheduled for Thursday
5. Is warm but professional

Keep the email concise - busy executives skim.

IMPORTANT: Send the email to exactly this address: %s%s`,
					p.Name, p.Title, p.Company, p.Email,
					sender.Name, sender.Title, sender.Company,
					recipient, emailFormatInstruction),
				Task: fmt.Sprintf("Send a follow-up email to %s with the promised materials. Send it to: %s", p.Name, recipient),
			},
		},
		{
			ID:          "customer-requests-pricing",
			Number:      8,
			Title:       "Customer Requests Pricing",
			Description: "Marcus asks for a formal proposal",
			Type:        models.StepSimulatedResponse,
			Simulated: &models.SimulatedContent{
				Type:  models.ContentEmail,
				Email: &requestsPricing,
			},
		},
		{
			ID:               "generate-proposal",
			Number:           9,
			Title:            "Generate Proposal",
			Description:      "Agent creates pricing proposal (requires approval)",
			Type:             models.StepAgentAction,
			RequiresApproval: true,
			Tools:            []string{"search_drive", "send_email"},
			Agent: &models.AgentContext{
				SystemPrompt: fmt.Sprintf(`You are preparing a pricing proposal for a qualified prospect.

Prospect: %s, %s at %s
Email: %s

Prospect requirements (from their email):
- 12,000 SKUs
- 2 warehouse locations
- 15 user licenses to start
- NetSuite integration required
- Timeline: Need proposal by end of week for Monday leadership meeting

Your sender identity:
- Name: %s
- Title: %s
- Company: %s

Pricing structure (use these EXACT numbers):
- Base platform: $2,500/month
- Per warehouse: $500/month each (2 warehouses = $1,000/month)
- User licenses: $50/user/month (15 users = $750/month)
- NetSuite integration: $1,000 one-time setup + $200/month
- Implementation: $5,000 one-time

Total monthly: $4,450/month
Total one-time: $6,000

Create a clear, professional proposal email that:
1. Acknowledges their timeline (Monday leadership meeting)
2. Breaks down the pricing clearly in a formatted way
3. Highlights value (reference the $50K stockout cost from call - ROI in ~2 months)
4. Offers to answer questions or hop on a call
5. CC's mention that Sarah (CFO) was looped in

IMPORTANT: This email will be reviewed by a human before sending due to the pricing content.

IMPORTANT: Send the email to exactly this address: %s%s`,
					p.Name, p.Title, p.Company, p.Email,
					sender.Name, sender.Title, sender.Company,
					recipient, emailFormatInstruction),
				Task: fmt.Sprintf("Generate a pricing proposal for %s based on their requirements and prepare to send (pending approval). When approved, send to: %s", p.Name, recipient),
			},
		},
		{
			ID:          "send-proposal",
			Number:      10,
			Title:       "Send Proposal",
			Description: "Approved proposal is sent to prospect",
			Type:        models.StepAgentAction,
			Tools:       []string{"send_email"},
			Agent: &models.AgentContext{
				SystemPrompt: fmt.Sprintf(`You are confirming that the approved proposal has been sent.

Prospect: %s at %s
Email: %s

The proposal was already reviewed and approved by the human.
Simply confirm the send with a brief, friendly message.

Your sender identity:
- Name: %s

Just output a brief confirmation that the proposal has been sent.

IMPORTANT: Send the email to exactly this address: %s%s`,
					p.Name, p.Company, p.Email,
					sender.Name,
					recipient, emailFormatInstruction),
				Task: fmt.Sprintf("Confirm that the approved proposal has been sent to %s. Send confirmation to: %s", p.Name, recipient),
			},
		},
	}
}
