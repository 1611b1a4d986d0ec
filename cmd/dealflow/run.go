package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/dealflow/internal/script"
	"github.com/haasonsaas/dealflow/pkg/client"
	"github.com/haasonsaas/dealflow/pkg/models"
)

func buildStepsCmd() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the demo script",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			steps := script.NewService(os.Getenv("DEMO_PROSPECT_EMAIL")).Steps()
			if serverURL != "" {
				fetched, err := client.New(serverURL, slog.Default()).Steps(cmd.Context())
				if err != nil {
					return err
				}
				steps = fetched
			}

			for _, step := range steps {
				marker := " "
				if step.RequiresApproval {
					marker = "!"
				}
				fmt.Fprintf(out, "%2d %s %-28s %-20s %s\n", step.Number, marker, step.ID, step.Type, step.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "Fetch the script from a running server instead of the local copy")
	return cmd
}

func buildRunCmd() *cobra.Command {
	var serverURL string
	var showThinking bool
	cmd := &cobra.Command{
		Use:   "run <step-id>",
		Short: "Drive one demo step against a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stepID := args[0]
			out := cmd.OutOrStdout()

			local := script.NewService(os.Getenv("DEMO_PROSPECT_EMAIL"))
			step, err := local.Step(stepID)
			if err != nil {
				return err
			}

			// Simulated steps never touch the server; their content is fixed.
			if step.Type == models.StepSimulatedResponse {
				printSimulated(out, step)
				return nil
			}

			c := client.New(serverURL, slog.Default())
			result, err := c.RunStep(cmd.Context(), stepID, func(ev models.StreamEvent) {
				switch ev.Type {
				case models.EventStatus:
					fmt.Fprintf(out, "[%s]\n", ev.Data.Message)
				case models.EventThinkingDelta:
					if showThinking {
						fmt.Fprint(out, ev.Data.Content)
					}
				case models.EventOutputStart:
					fmt.Fprintln(out, "\n--- output ---")
				case models.EventOutputDelta:
					fmt.Fprint(out, ev.Data.Content)
				}
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			switch {
			case result.Cancelled:
				fmt.Fprintln(out, "Turn cancelled.")
				return nil
			case result.ErrMessage != "":
				return fmt.Errorf("turn failed: %s", result.ErrMessage)
			}

			printParsed(out, step, result.FinalOutput)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the demo server")
	cmd.Flags().BoolVar(&showThinking, "thinking", false, "Print the agent's reasoning stream")
	return cmd
}

func printSimulated(out io.Writer, step *models.DemoStep) {
	if step.Simulated == nil {
		return
	}
	switch step.Simulated.Type {
	case models.ContentEmail:
		email := step.Simulated.Email
		fmt.Fprintf(out, "From:    %s <%s>\n", email.FromName, email.From)
		fmt.Fprintf(out, "Subject: %s\n\n%s\n", email.Subject, email.Body)
	case models.ContentTranscript:
		t := step.Simulated.Transcript
		fmt.Fprintf(out, "%s (%s, %s)\n\n%s\n", t.Title, t.Date, t.Duration, t.Transcript)
		fmt.Fprintln(out, "\nKey moments:")
		for _, m := range t.KeyMoments {
			fmt.Fprintf(out, "  [%s] %s: %s\n", m.Timestamp, m.Type, m.Note)
		}
	}
}

func printParsed(out io.Writer, step *models.DemoStep, output string) {
	if step.ID == "generate-proposal" {
		if proposal := script.ParseProposal(output); proposal != nil {
			fmt.Fprintf(out, "\nProposal for %s <%s>\n", proposal.ToName, proposal.To)
			fmt.Fprintf(out, "Subject: %s\n", proposal.Subject)
			fmt.Fprintf(out, "Monthly: $%d  One-time: $%d\n", proposal.Pricing.TotalMonthly, proposal.Pricing.TotalOneTime)
		}
		return
	}
	if email := script.ParseEmail(output); email != nil {
		fmt.Fprintf(out, "\nParsed email to %s <%s>\n", email.ToName, email.To)
		fmt.Fprintf(out, "Subject: %s\n", email.Subject)
	}
}
