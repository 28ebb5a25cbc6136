package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/tool-scout/pkg/analysis"
	"github.com/mikeboe/tool-scout/pkg/chat"
	"github.com/mikeboe/tool-scout/pkg/clients"
	"github.com/mikeboe/tool-scout/pkg/config"
	"github.com/mikeboe/tool-scout/pkg/firecrawl"
	"github.com/mikeboe/tool-scout/pkg/research"
)

var query string

func main() {
	// Setup structured logging
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "tool-scout",
		Short: "A research agent for developer tools",
		Long:  `tool-scout answers "which tool should I use?" questions by finding candidate tools on the web, scraping their official sites and distilling a recommendation.`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			workflow, err := buildWorkflow(ctx, cfg)
			if err != nil {
				slog.Error("Failed to init workflow", "error", err)
				os.Exit(1)
			}

			// Non-Interactive Mode (Flag provided)
			if cmd.Flags().Changed("query") {
				if strings.TrimSpace(query) == "" {
					slog.Error("--query flag provided but empty")
					os.Exit(1)
				}
				runQuery(ctx, workflow, query)
				return
			}

			// Interactive Mode
			reader := bufio.NewReader(os.Stdin)
			for {
				fmt.Print("\nDeveloper Tools Query: ")
				input, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				q := strings.TrimSpace(input)
				if q == "" || strings.EqualFold(q, "exit") || strings.EqualFold(q, "quit") {
					return
				}
				runQuery(ctx, workflow, q)
			}
		},
	}

	rootCmd.Flags().StringVarP(&query, "query", "q", "", "The developer tools query to research")
	rootCmd.AddCommand(chatCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildWorkflow(ctx context.Context, cfg *config.Config) (*research.Workflow, error) {
	llm, err := clients.GoogleAi(ctx, cfg.GoogleApiKey, clients.ModelType(cfg.FastModel))
	if err != nil {
		return nil, fmt.Errorf("failed to init LLM: %w", err)
	}

	analyzer, err := analysis.NewAnalyzer(ctx, cfg.FastModel, cfg.GoogleApiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to init analyzer: %w", err)
	}

	fc := firecrawl.NewClient(cfg.FirecrawlApiKey, cfg.FirecrawlBaseURL)

	return research.NewWorkflow(cfg, llm, fc, analyzer), nil
}

func runQuery(ctx context.Context, workflow *research.Workflow, q string) {
	state, err := workflow.Run(ctx, q)
	if err != nil {
		slog.Error("Research run failed", "error", err)
		return
	}
	printResults(state)
}

func printResults(state *research.ResearchState) {
	fmt.Printf("\nResults for: %s\n", state.Query)
	fmt.Println(strings.Repeat("=", 60))

	for i, company := range state.Companies {
		fmt.Printf("\n%d. %s\n", i+1, company.Name)
		fmt.Printf("   Website: %s\n", company.Website)
		fmt.Printf("   Pricing: %s\n", company.PricingModel)
		fmt.Printf("   Open Source: %s\n", research.FormatTriState(company.IsOpenSource))
		fmt.Printf("   API: %s\n", research.FormatTriState(company.APIAvailable))

		if len(company.TechStack) > 0 {
			fmt.Printf("   Tech Stack: %s\n", strings.Join(company.TechStack, ", "))
		}
		if len(company.LanguageSupport) > 0 {
			fmt.Printf("   Language Support: %s\n", strings.Join(company.LanguageSupport, ", "))
		}
		if len(company.IntegrationCapabilities) > 0 {
			fmt.Printf("   Integrations: %s\n", strings.Join(company.IntegrationCapabilities, ", "))
		}
		if company.Description != "" && company.Description != research.FailedAnalysisDescription {
			fmt.Printf("   Description: %s\n", company.Description)
		}
	}

	if state.Analysis != "" {
		fmt.Println("\nDeveloper Recommendations:")
		fmt.Println(strings.Repeat("-", 40))
		fmt.Println(state.Analysis)
	}
}

func chatCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the research agent",
		Long:  `Starts an interactive session with an agent that runs developer-tools research on demand and answers follow-up questions about the results.`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			workflow, err := buildWorkflow(ctx, cfg)
			if err != nil {
				slog.Error("Failed to init workflow", "error", err)
				os.Exit(1)
			}

			svc, err := chat.NewService(ctx, cfg, workflow)
			if err != nil {
				slog.Error("Failed to init chat service", "error", err)
				os.Exit(1)
			}

			userID := "user" // Single user for now
			sessionID, err := svc.StartSession(ctx, userID)
			if err != nil {
				slog.Error("Failed to start session", "error", err)
				os.Exit(1)
			}

			fmt.Println("Chat with tool-scout. A blank line, 'exit' or 'quit' ends the session.")
			reader := bufio.NewReader(os.Stdin)
			for {
				fmt.Print("\nYou: ")
				input, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				msg := strings.TrimSpace(input)
				if msg == "" || strings.EqualFold(msg, "exit") || strings.EqualFold(msg, "quit") {
					return
				}

				for event, err := range svc.SendMessage(ctx, userID, sessionID, msg) {
					if err != nil {
						slog.Error("Chat stream failed", "error", err)
						break
					}
					if event.Type == "content" {
						if text, ok := event.Payload.(string); ok {
							fmt.Print(text)
						}
					}
				}
				fmt.Println()
			}
		},
	}
}
