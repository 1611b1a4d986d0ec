// Package script owns the fixed demo narrative: the cast, the canned
// counterparty messages, the ten-step script, and the parsers that lift
// structure out of the agent's free-text output.
package script

import "github.com/haasonsaas/dealflow/pkg/models"

// DemoProspect is the fictional buyer every step references.
var DemoProspect = models.Prospect{
	Name:    "Marcus Chen",
	Title:   "VP of Operations",
	Company: "Acme Corp",
	Email:   "marcus.chen@acmecorp.com",
	PainPoints: []string{
		"manual inventory reconciliation eating 2 hours/day",
		"$50K lost to stockouts last quarter",
		"three disconnected systems that don't talk to each other",
	},
	Industry:   "Wholesale Distribution",
	Size:       "200-500 employees",
	SKUs:       "12,000 active SKUs",
	Warehouses: 2,
	Tools:      []string{"Legacy ERP", "spreadsheets", "Access database"},
}

// DemoSender is the fictional seller identity the agent writes as.
var DemoSender = models.Sender{
	Name:    "Alex Rivera",
	Title:   "Account Executive",
	Company: "InventoryAI",
	Email:   "alex@inventoryai.com",
}

// SimulatedEmails holds the canned prospect replies, keyed by script beat.
var SimulatedEmails = struct {
	Interested      models.Email
	PicksTime       models.Email
	RequestsPricing models.Email
}{
	Interested: models.Email{
		ID:       "sim-email-interested",
		From:     DemoProspect.Email,
		FromName: DemoProspect.Name,
		To:       DemoSender.Email,
		Subject:  "Re: Cutting inventory reconciliation time at Acme Corp",
		Body: `Hi Alex,

Good timing actually. We've been looking at options in this space - our ops team is drowning in manual reconciliation and my CFO is pushing hard on Q2 efficiency targets.

I'd be open to a quick call to learn more. What does your availability look like this week or next?

Marcus Chen
VP of Operations, Acme Corp`,
		Timestamp: "2026-01-13T09:42:00-08:00",
	},
	PicksTime: models.Email{
		ID:       "sim-email-picks-time",
		From:     DemoProspect.Email,
		FromName: DemoProspect.Name,
		To:       DemoSender.Email,
		Subject:  "Re: Re: Cutting inventory reconciliation time at Acme Corp",
		Body: `Alex,

Thursday at 10am PT works for me. Send over an invite and I'll be there.

Marcus`,
		Timestamp: "2026-01-13T14:18:00-08:00",
	},
	RequestsPricing: models.Email{
		ID:       "sim-email-requests-pricing",
		From:     DemoProspect.Email,
		FromName: DemoProspect.Name,
		To:       DemoSender.Email,
		Subject:  "Pricing for leadership review",
		Body: `Hi Alex,

The materials landed well internally. Can you put together a formal pricing proposal? For sizing: we're at 12,000 SKUs across 2 warehouses, and we'd start with 15 user licenses. NetSuite integration is a hard requirement.

One ask on timing - I need this by end of week. I'm presenting to leadership Monday and Sarah, our CFO, will want to see the numbers.

Thanks,
Marcus`,
		Timestamp: "2026-01-16T11:05:00-08:00",
	},
}

// DiscoveryTranscript is the canned recording of the discovery call, served
// by the load-transcript step.
var DiscoveryTranscript = models.Transcript{
	CallID:   "gong-call-88217",
	Title:    "InventoryAI <> Acme Corp - Discovery Call",
	Date:     "2026-01-15",
	Duration: "31:24",
	Participants: []models.TranscriptParticipant{
		{Name: "Alex Rivera", Role: "Account Executive", Company: "InventoryAI"},
		{Name: "Marcus Chen", Role: "VP of Operations", Company: "Acme Corp"},
	},
	Transcript: `[00:00] Alex Rivera: Marcus, thanks for making the time. Before I talk at you, I'd love to hear how inventory management works at Acme today.

[01:12] Marcus Chen: Honestly, it's messy. We're running a legacy ERP, a pile of spreadsheets, and an old Access database that one person on my team maintains. Nothing talks to anything else.

[03:40] Marcus Chen: The number that keeps me up at night - my team spends about two hours a day just reconciling inventory counts between systems. Call it five hundred plus hours a year.

[07:55] Alex Rivera: And on the revenue side, do you see stockouts or overstock as the bigger cost?

[08:10] Marcus Chen: Stockouts. We put a number on it last quarter - about fifty thousand dollars in missed orders because the system said we had stock we didn't have.

[12:30] Marcus Chen: Scale-wise we're at twelve thousand active SKUs across two warehouses, one in Reno and one in Memphis.

[16:02] Marcus Chen: One hard requirement - whatever we buy has to integrate with NetSuite. Finance lives in it.

[19:45] Alex Rivera: That's a native integration for us. Happy to send the technical specs.

[22:10] Marcus Chen: Funny thing, I was at a conference last fall and met Jamie over at Distribution Pro. They said good things about you folks.

[24:30] Alex Rivera: Jamie's team cut their reconciliation time by about eighty percent. I'll send the Distribution Pro case study along with the NetSuite specs.

[27:50] Marcus Chen: Do that. And I'd like my warehouse manager to see the product - can we set up a demo Thursday?

[29:15] Alex Rivera: Done. I'll get a demo on the calendar for Thursday and follow up today with the case study and the integration specs.

[30:58] Marcus Chen: Sounds good. Talk soon.`,
	KeyMoments: []models.KeyMoment{
		{Timestamp: "03:40", Type: "pain_point", Note: "2 hours/day on manual reconciliation, 500+ hours/year"},
		{Timestamp: "08:10", Type: "pain_point", Note: "$50K lost to stockouts last quarter"},
		{Timestamp: "12:30", Type: "qualification", Note: "12,000 SKUs across 2 warehouses"},
		{Timestamp: "16:02", Type: "requirement", Note: "NetSuite integration is mandatory"},
		{Timestamp: "22:10", Type: "social_proof", Note: "Knows Jamie at Distribution Pro (existing customer)"},
		{Timestamp: "27:50", Type: "next_step", Note: "Demo with warehouse manager on Thursday"},
	},
}
