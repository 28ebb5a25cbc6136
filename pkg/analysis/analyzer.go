// Package analysis extracts structured company attributes from scraped page
// content using Gemini structured output.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/mikeboe/tool-scout/pkg/research"
)

// Analyzer asks Gemini for a CompanyAnalysis conforming to a response
// schema. It implements research.Analyzer.
type Analyzer struct {
	client *genai.Client
	model  string
}

// NewAnalyzer creates a structured-output analyzer for the given model.
func NewAnalyzer(ctx context.Context, model, apiKey string) (*Analyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}

	return &Analyzer{
		client: client,
		model:  model,
	}, nil
}

// AnalyzeCompanyContent extracts structured attributes for one candidate
// from its scraped site content. Provider and schema failures are returned
// to the caller, which substitutes research.FallbackAnalysis.
func (a *Analyzer) AnalyzeCompanyContent(ctx context.Context, companyName, content string) (research.CompanyAnalysis, error) {
	prompt := research.ToolAnalysisUser(companyName, content)

	resp, err := a.client.Models.GenerateContent(ctx, a.model, []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: research.ToolAnalysisSystem}},
		},
		Temperature:      genai.Ptr(float32(0)),
		ResponseMIMEType: "application/json",
		ResponseSchema:   CompanyAnalysisSchema(),
	})
	if err != nil {
		return research.CompanyAnalysis{}, fmt.Errorf("failed to generate analysis: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return research.CompanyAnalysis{}, fmt.Errorf("llm returned no candidates")
	}

	rawJSON := ""
	for _, p := range resp.Candidates[0].Content.Parts {
		rawJSON += p.Text
	}

	return parseAnalysis(rawJSON)
}

// parseAnalysis decodes the model's JSON reply into a CompanyAnalysis.
func parseAnalysis(raw string) (research.CompanyAnalysis, error) {
	var analysis research.CompanyAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return research.CompanyAnalysis{}, fmt.Errorf("failed to unmarshal analysis response: %w (content: %s)", err, raw)
	}
	return analysis, nil
}

// CompanyAnalysisSchema is the response schema the model must satisfy. The
// boolean fields are nullable so the model can report "unknown".
func CompanyAnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"pricing_model": {
				Type:        genai.TypeString,
				Description: "Free, Freemium, Paid, Enterprise or Unknown",
			},
			"is_open_source": {
				Type:     genai.TypeBoolean,
				Nullable: genai.Ptr(true),
			},
			"tech_stack": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"description": {
				Type:        genai.TypeString,
				Description: "One sentence on what the tool does for developers",
			},
			"api_available": {
				Type:     genai.TypeBoolean,
				Nullable: genai.Ptr(true),
			},
			"language_support": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"integration_capabilities": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"pricing_model", "description"},
	}
}
