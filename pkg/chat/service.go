// Package chat runs the follow-up agent: an LLM agent holding the research
// pipeline as a tool, so a user can refine a recommendation conversationally
// without re-running the pipeline by hand.
package chat

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"github.com/mikeboe/tool-scout/pkg/config"
	"github.com/mikeboe/tool-scout/pkg/research"
)

const appName = "tool-scout"

type Service struct {
	Agent    agent.Agent
	sessions session.Service
	runner   *runner.Runner
}

// StreamEvent represents a single event in the chat stream
type StreamEvent struct {
	Type    string      `json:"type"` // "content", "tool_call", "tool_result", "error", "done"
	Payload interface{} `json:"payload"`
}

func NewService(ctx context.Context, cfg *config.Config, workflow *research.Workflow) (*Service, error) {
	modelClient, err := gemini.NewModel(ctx, cfg.ReasoningModel, &genai.ClientConfig{
		APIKey: cfg.GoogleApiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	scoutAgent, err := llmagent.New(llmagent.Config{
		Name:        "tool_scout",
		Model:       modelClient,
		Description: "A developer tools scout with access to a web research pipeline.",
		Instruction: "You are a developer tools scout. When the user asks about a category of developer tools or a specific product, use the research_developer_tools tool to gather current information, then answer from its report. For follow-up questions about tools you already researched in this conversation, answer from the earlier report instead of researching again. Be concise and concrete.",
		Toolsets: []tool.Toolset{
			NewResearchToolset(workflow),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessionSvc := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          scoutAgent,
		SessionService: sessionSvc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return &Service{
		Agent:    scoutAgent,
		sessions: sessionSvc,
		runner:   r,
	}, nil
}

// StartSession creates a fresh in-memory conversation and returns its ID.
// Sessions live for the process lifetime only.
func (s *Service) StartSession(ctx context.Context, userID string) (string, error) {
	sessionID := uuid.NewString()
	_, err := s.sessions.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return sessionID, nil
}

// SendMessage streams the agent's handling of one user message: text chunks,
// tool calls and tool results, terminated by a "done" event.
func (s *Service) SendMessage(ctx context.Context, userID, sessionID, content string) iter.Seq2[StreamEvent, error] {
	userContent := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: content},
		},
	}

	return func(yield func(StreamEvent, error) bool) {
		slog.Info("Starting agent run", "session_id", sessionID)
		runCfg := agent.RunConfig{
			StreamingMode: agent.StreamingModeSSE,
		}

		for event, err := range s.runner.Run(ctx, userID, sessionID, userContent, runCfg) {
			if err != nil {
				slog.Error("Agent runner error", "error", err)
				yield(StreamEvent{Type: "error", Payload: err.Error()}, err)
				return
			}

			if event.LLMResponse.Content == nil {
				continue
			}
			for _, part := range event.LLMResponse.Content.Parts {
				if part.Text != "" {
					if !yield(StreamEvent{Type: "content", Payload: part.Text}, nil) {
						return
					}
				}
				if part.FunctionCall != nil {
					slog.Info("Agent tool call", "tool", part.FunctionCall.Name)
					if !yield(StreamEvent{Type: "tool_call", Payload: part.FunctionCall}, nil) {
						return
					}
				}
				if part.FunctionResponse != nil {
					slog.Info("Agent tool result", "tool", part.FunctionResponse.Name)
					if !yield(StreamEvent{Type: "tool_result", Payload: part.FunctionResponse}, nil) {
						return
					}
				}
			}
		}

		slog.Info("Agent run completed")
		yield(StreamEvent{Type: "done", Payload: "done"}, nil)
	}
}
