package script

import (
	"errors"
	"strings"
	"testing"

	"github.com/haasonsaas/dealflow/pkg/models"
)

func TestScriptShape(t *testing.T) {
	svc := NewService("")
	steps := svc.Steps()

	if len(steps) != 10 {
		t.Fatalf("len(steps) = %d, want 10", len(steps))
	}

	for i, step := range steps {
		if step.Number != i+1 {
			t.Errorf("step %s Number = %d, want %d", step.ID, step.Number, i+1)
		}
		switch step.Type {
		case models.StepAgentAction:
			if step.Agent == nil {
				t.Errorf("agent step %s missing agent context", step.ID)
			}
			if step.Simulated != nil {
				t.Errorf("agent step %s carries simulated content", step.ID)
			}
		case models.StepSimulatedResponse:
			if step.Simulated == nil {
				t.Errorf("simulated step %s missing content", step.ID)
			}
			if step.Agent != nil {
				t.Errorf("simulated step %s carries agent context", step.ID)
			}
		default:
			t.Errorf("step %s has unknown type %q", step.ID, step.Type)
		}
	}

	// Only the proposal generation step gates on human approval.
	for _, step := range steps {
		want := step.ID == "generate-proposal"
		if step.RequiresApproval != want {
			t.Errorf("step %s RequiresApproval = %v", step.ID, step.RequiresApproval)
		}
	}
}

func TestStepLookup(t *testing.T) {
	svc := NewService("")

	step, err := svc.Step("book-meeting")
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if step.Number != 5 {
		t.Errorf("Number = %d, want 5", step.Number)
	}

	_, err = svc.Step("no-such-step")
	if !errors.Is(err, ErrUnknownStep) {
		t.Errorf("err = %v, want ErrUnknownStep", err)
	}
}

func TestRecipientOverride(t *testing.T) {
	override := "operator@example.com"
	svc := NewService(override)

	for _, step := range svc.Steps() {
		if step.Agent == nil {
			continue
		}
		if !strings.Contains(step.Agent.SystemPrompt, override) {
			t.Errorf("step %s prompt missing override recipient", step.ID)
		}
		if strings.Contains(step.Agent.Task, DemoProspect.Email) && override != DemoProspect.Email {
			t.Errorf("step %s task still routes to prospect address", step.ID)
		}
	}
}

func TestDefaultRecipientIsProspect(t *testing.T) {
	svc := NewService("")
	step, err := svc.Step("send-outreach")
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !strings.Contains(step.Agent.Task, DemoProspect.Email) {
		t.Errorf("default task should target the prospect: %q", step.Agent.Task)
	}
}

func TestEmailPromptsCarryFormatInstruction(t *testing.T) {
	svc := NewService("")
	for _, step := range svc.Steps() {
		if step.Agent == nil {
			continue
		}
		if !strings.Contains(step.Agent.SystemPrompt, "Format your response EXACTLY as follows:") {
			t.Errorf("step %s prompt missing format instruction", step.ID)
		}
	}
}

func TestSimulatedContentMatchesType(t *testing.T) {
	svc := NewService("")

	for _, id := range []string{"customer-interested", "customer-picks-time", "customer-requests-pricing"} {
		step, err := svc.Step(id)
		if err != nil {
			t.Fatalf("Step(%s): %v", id, err)
		}
		if step.Simulated.Type != models.ContentEmail || step.Simulated.Email == nil {
			t.Errorf("step %s should carry an email", id)
		}
	}

	step, err := svc.Step("load-transcript")
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if step.Simulated.Type != models.ContentTranscript || step.Simulated.Transcript == nil {
		t.Error("load-transcript should carry a transcript")
	}
	if len(step.Simulated.Transcript.KeyMoments) == 0 {
		t.Error("transcript should have key moments")
	}
}
