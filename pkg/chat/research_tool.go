package chat

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/mikeboe/tool-scout/pkg/research"
)

// ResearchToolset exposes the research pipeline to the chat agent.
type ResearchToolset struct {
	workflow *research.Workflow
}

func NewResearchToolset(workflow *research.Workflow) *ResearchToolset {
	return &ResearchToolset{
		workflow: workflow,
	}
}

func (t *ResearchToolset) Name() string {
	return "research_tools"
}

func (t *ResearchToolset) Tools(ctx agent.ReadonlyContext) ([]tool.Tool, error) {
	researchTool, err := functiontool.New[ResearchArgs, ResearchResp](
		functiontool.Config{
			Name:        "research_developer_tools",
			Description: "Research developer tools matching a query: find candidates on the web, scrape their official sites and return structured findings with a recommendation.",
		},
		t.researchTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create research tool: %w", err)
	}

	return []tool.Tool{researchTool}, nil
}

// --- Tool Implementations ---

type ResearchArgs struct {
	Query string `json:"query" description:"The developer tool category or product to research"`
}

type ResearchResp struct {
	Report string `json:"report"`
}

// Wrapper for ADK tool interface
func (t *ResearchToolset) researchTool(ctx tool.Context, args ResearchArgs) (ResearchResp, error) {
	return t.Research(ctx, args)
}

// Public method using standard context
func (t *ResearchToolset) Research(ctx context.Context, args ResearchArgs) (ResearchResp, error) {
	slog.Info("Research tool invoked", "query", args.Query)

	state, err := t.workflow.Run(ctx, args.Query)
	if err != nil {
		return ResearchResp{}, fmt.Errorf("research failed: %w", err)
	}

	report := research.FormatCompanyData(state.Companies)
	if state.Analysis != "" {
		report += "\n\nRecommendation:\n" + state.Analysis
	}
	return ResearchResp{Report: report}, nil
}
