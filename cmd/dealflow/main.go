// Package main provides the CLI entry point for the dealflow demo service.
//
// dealflow orchestrates a scripted AI sales-agent demonstration: a fixed
// ten-step script alternating real model-driven agent turns with canned
// counterparty responses, streamed to clients as typed events.
//
// # Basic Usage
//
// Start the server:
//
//	dealflow serve --config dealflow.yaml
//
// List the demo script:
//
//	dealflow steps
//
// Drive one step against a running server:
//
//	dealflow run send-outreach
//
// # Environment Variables
//
//   - ANTHROPIC_API_KEY: Anthropic API key for the agent model
//   - GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET: OAuth client for Google tools
//   - GOOGLE_REDIRECT_URI: OAuth callback URL
//   - DEMO_PROSPECT_EMAIL: route real sends to this inbox instead of the
//     fictional prospect address
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dealflow",
		Short: "dealflow - Scripted AI sales-agent demo orchestrator",
		Long: `dealflow runs a scripted demonstration of an AI sales agent.

The demo walks a fixed ten-step deal narrative: outreach, scheduling,
a discovery call, follow-up, and a pricing proposal. Agent steps run a
live tool-using model turn streamed as typed events; simulated steps
serve canned prospect responses.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildStepsCmd(),
		buildRunCmd(),
	)

	return rootCmd
}
