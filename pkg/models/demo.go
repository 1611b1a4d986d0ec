package models

// StepType distinguishes live agent steps from scripted counterparty steps.
type StepType string

const (
	// StepAgentAction runs a real model-driven turn.
	StepAgentAction StepType = "agent_action"

	// StepSimulatedResponse serves canned counterparty content, no model call.
	StepSimulatedResponse StepType = "simulated_response"
)

// AgentContext holds the prompt material for a live agent step.
type AgentContext struct {
	SystemPrompt string `json:"system_prompt"`
	Task         string `json:"task"`
}

// ContentType tags the payload of a simulated step.
type ContentType string

const (
	ContentEmail      ContentType = "email"
	ContentTranscript ContentType = "transcript"
)

// SimulatedContent is the canned payload of a simulated_response step.
// Exactly one of Email or Transcript is set, matching Type.
type SimulatedContent struct {
	Type       ContentType `json:"type"`
	Email      *Email      `json:"email,omitempty"`
	Transcript *Transcript `json:"transcript,omitempty"`
}

// DemoStep is one entry in the fixed demo script. Steps are immutable once
// the script is built.
type DemoStep struct {
	ID               string            `json:"id"`
	Number           int               `json:"number"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Type             StepType          `json:"type"`
	RequiresApproval bool              `json:"requires_approval"`
	Tools            []string          `json:"tools,omitempty"`
	Agent            *AgentContext     `json:"agent_context,omitempty"`
	Simulated        *SimulatedContent `json:"simulated_content,omitempty"`
}

// Prospect describes the demo's fictional buyer.
type Prospect struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	Email      string   `json:"email"`
	PainPoints []string `json:"pain_points"`
	Industry   string   `json:"industry"`
	Size       string   `json:"size"`
	SKUs       string   `json:"skus"`
	Warehouses int      `json:"warehouses"`
	Tools      []string `json:"current_tools"`
}

// Sender describes the demo's fictional seller identity.
type Sender struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Email   string `json:"email"`
}

// Email is a rendered email, either sent by the agent or simulated from the
// counterparty.
type Email struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	FromName  string `json:"from_name"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

// TranscriptParticipant identifies one speaker on a recorded call.
type TranscriptParticipant struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Company string `json:"company"`
}

// KeyMoment is an annotated highlight within a call transcript.
type KeyMoment struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Note      string `json:"note"`
}

// Transcript is a recorded discovery-call transcript served by a simulated
// step.
type Transcript struct {
	CallID       string                  `json:"call_id"`
	Title        string                  `json:"title"`
	Date         string                  `json:"date"`
	Duration     string                  `json:"duration"`
	Participants []TranscriptParticipant `json:"participants"`
	Transcript   string                  `json:"transcript"`
	KeyMoments   []KeyMoment             `json:"key_moments"`
}

// ParsedEmail is the structured form extracted from a turn's free-text
// output. Computed once, after the turn completes, from the full accumulated
// text.
type ParsedEmail struct {
	To       string `json:"to"`
	ToName   string `json:"to_name"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// Pricing is the fixed price breakdown used by the proposal step.
type Pricing struct {
	BasePlatform       int `json:"base_platform"`
	PerWarehouse       int `json:"per_warehouse"`
	WarehouseCount     int `json:"warehouse_count"`
	UserLicenses       int `json:"user_licenses"`
	UserCount          int `json:"user_count"`
	IntegrationSetup   int `json:"integration_setup"`
	IntegrationMonthly int `json:"integration_monthly"`
	Implementation     int `json:"implementation"`
	TotalMonthly       int `json:"total_monthly"`
	TotalOneTime       int `json:"total_one_time"`
}

// Proposal is a parsed pricing proposal ready for display.
type Proposal struct {
	To      string  `json:"to"`
	ToName  string  `json:"to_name"`
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
	Pricing Pricing `json:"pricing"`
}
