package research

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/tool-scout/pkg/config"
	"github.com/mikeboe/tool-scout/pkg/firecrawl"
)

// SearchScraper is the slice of the Firecrawl client the pipeline uses.
// A search miss is an empty result list and a scrape miss is a nil
// document; a non-nil error from either call is a collaborator failure and
// fatal to the run.
type SearchScraper interface {
	Search(ctx context.Context, query string, limit int) ([]firecrawl.SearchResult, error)
	ScrapeURL(ctx context.Context, url string) (*firecrawl.Document, error)
}

// Analyzer produces a structured CompanyAnalysis from a candidate's scraped
// page content. Implementations may fail; the workflow substitutes
// FallbackAnalysis at the call site.
type Analyzer interface {
	AnalyzeCompanyContent(ctx context.Context, companyName, content string) (CompanyAnalysis, error)
}

// Workflow is the three-stage research pipeline: extract candidate tool
// names from comparison articles, research each candidate's official site,
// then synthesize a recommendation across the findings.
type Workflow struct {
	Config    *config.Config
	LLM       llms.Model
	Firecrawl SearchScraper
	Analyzer  Analyzer
	Logger    *slog.Logger
}

func NewWorkflow(cfg *config.Config, llm llms.Model, fc SearchScraper, analyzer Analyzer) *Workflow {
	return &Workflow{
		Config:    cfg,
		LLM:       llm,
		Firecrawl: fc,
		Analyzer:  analyzer,
		Logger:    slog.Default(),
	}
}

// Run executes the full pipeline for a query. The stages run strictly in
// order and each merges its output into the returned state; an error from a
// collaborator terminates the run with whatever had been gathered discarded.
func (w *Workflow) Run(ctx context.Context, query string) (*ResearchState, error) {
	state := &ResearchState{Query: query}
	w.Logger.Info("Starting research run", "query", query)

	tools, err := w.extractTools(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tool extraction failed: %w", err)
	}
	state.ExtractedTools = tools

	companies, err := w.researchCompanies(ctx, query, tools)
	if err != nil {
		return nil, fmt.Errorf("research failed: %w", err)
	}
	state.Companies = companies

	analysis, err := w.synthesize(ctx, query, companies)
	if err != nil {
		return nil, fmt.Errorf("recommendation failed: %w", err)
	}
	state.Analysis = analysis

	w.Logger.Info("Research run complete", "companies", len(state.Companies))
	return state, nil
}

// extractTools searches for comparison articles about the query, scrapes a
// few of them and asks the LLM which tools they mention. An LLM failure
// degrades to an empty list; the researcher has a fallback for that case.
func (w *Workflow) extractTools(ctx context.Context, query string) ([]string, error) {
	articleQuery := fmt.Sprintf("%s tools comparison best alternatives", query)
	w.Logger.Info("Starting extraction stage", "query", query, "search", articleQuery)

	results, err := w.Firecrawl.Search(ctx, articleQuery, w.Config.MaxArticles)
	if err != nil {
		return nil, fmt.Errorf("article search failed: %w", err)
	}

	var content strings.Builder
	for _, result := range results {
		if result.URL == "" {
			continue
		}
		w.Logger.Info("Scraping article", "url", result.URL)
		doc, err := w.Firecrawl.ScrapeURL(ctx, result.URL)
		if err != nil {
			return nil, fmt.Errorf("article scrape failed: %w", err)
		}
		if doc == nil {
			w.Logger.Warn("Article could not be scraped, skipping", "url", result.URL)
			continue
		}
		content.WriteString(truncateRunes(doc.Markdown, w.Config.ArticleContentLimit))
		content.WriteString("\n\n")
	}

	response, err := w.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ToolExtractionSystem),
		llms.TextParts(llms.ChatMessageTypeHuman, ToolExtractionUser(query, content.String())),
	}, nil)
	if err != nil {
		w.Logger.Error("Tool extraction failed", "error", err)
		return []string{}, nil
	}

	tools := parseToolNames(response)
	w.Logger.Info("Extracted tools", "tools", tools)
	return tools, nil
}

// researchCompanies finds an official site for each candidate, scrapes it
// and fills a CompanyInfo from the structured analysis. Candidates whose
// site cannot be found are skipped; a failed scrape keeps the provisional
// search-result description.
func (w *Workflow) researchCompanies(ctx context.Context, query string, extractedTools []string) ([]CompanyInfo, error) {
	toolNames := extractedTools
	if len(toolNames) == 0 {
		w.Logger.Warn("No tools extracted, falling back to title-based name extraction")
		var err error
		toolNames, err = w.fallbackToolNames(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	// Limit to the first few candidates to bound the per-run search,
	// scrape and LLM calls.
	if len(toolNames) > w.Config.MaxCompanies {
		toolNames = toolNames[:w.Config.MaxCompanies]
	}
	w.Logger.Info("Starting research stage", "tools", toolNames)

	companies := make([]CompanyInfo, 0, len(toolNames))
	for _, name := range toolNames {
		results, err := w.Firecrawl.Search(ctx, fmt.Sprintf("%s official site", name), 1)
		if err != nil {
			return nil, fmt.Errorf("site search for %q failed: %w", name, err)
		}
		if len(results) == 0 {
			w.Logger.Warn("No official site found, skipping", "tool", name)
			continue
		}

		result := results[0]
		w.Logger.Info("Found site", "tool", name, "url", result.URL)

		company := CompanyInfo{
			Name:         name,
			Website:      result.URL,
			Description:  result.Markdown,
			PricingModel: "Unknown",
		}

		doc, err := w.Firecrawl.ScrapeURL(ctx, result.URL)
		if err != nil {
			return nil, fmt.Errorf("site scrape for %q failed: %w", name, err)
		}
		if doc != nil {
			company.ApplyAnalysis(w.analyzeCompanyContent(ctx, name, doc.Markdown))
		} else {
			w.Logger.Warn("Site could not be scraped, keeping search snippet", "tool", name, "url", result.URL)
		}

		companies = append(companies, company)
	}

	return companies, nil
}

// fallbackToolNames derives candidate names from raw search-result titles.
// Like extraction, an LLM failure degrades to an empty list.
func (w *Workflow) fallbackToolNames(ctx context.Context, query string) ([]string, error) {
	results, err := w.Firecrawl.Search(ctx, query, w.Config.FallbackSearchResults)
	if err != nil {
		return nil, fmt.Errorf("fallback search failed: %w", err)
	}

	titles := make([]string, 0, len(results))
	for _, result := range results {
		titles = append(titles, result.Metadata.Title)
	}

	response, err := w.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, NameExtractionSystem),
		llms.TextParts(llms.ChatMessageTypeHuman, NameExtractionUser(titles)),
	}, nil)
	if err != nil {
		w.Logger.Error("Fallback name extraction failed", "error", err)
		return []string{}, nil
	}

	names := parseToolNames(response)
	w.Logger.Info("Extracted names from titles", "names", names)
	return names, nil
}

// analyzeCompanyContent runs the structured analyzer and substitutes the
// fixed fallback analysis on any failure, so the research loop never
// observes an error from it.
func (w *Workflow) analyzeCompanyContent(ctx context.Context, name, content string) CompanyAnalysis {
	w.Logger.Info("Analyzing content", "tool", name)
	analysis, err := w.Analyzer.AnalyzeCompanyContent(ctx, name, content)
	if err != nil {
		w.Logger.Error("Content analysis failed", "tool", name, "error", err)
		return FallbackAnalysis()
	}
	return analysis
}

// synthesize renders the researched companies into one prompt and asks the
// LLM for a recommendation answering the original query. There is no
// fallback here: an LLM failure fails the run.
func (w *Workflow) synthesize(ctx context.Context, query string, companies []CompanyInfo) (string, error) {
	w.Logger.Info("Starting recommendation stage", "companies", len(companies))

	response, err := w.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, RecommendationSystem),
		llms.TextParts(llms.ChatMessageTypeHuman, RecommendationUser(query, FormatCompanyData(companies))),
	}, func(content string) error {
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("empty recommendation")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return response, nil
}

// generateWithRetry attempts to generate content and validates it using the
// provided function. It retries with linear backoff if the LLM fails, returns
// no choices, or the validator rejects the response.
func (w *Workflow) generateWithRetry(ctx context.Context, prompts []llms.MessageContent, validator func(string) error) (string, error) {
	maxRetries := w.Config.LLMMaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			w.Logger.Warn("Retrying LLM generation", "attempt", i+1, "last_error", lastErr)
			time.Sleep(time.Second * time.Duration(i)) // Linear backoff
		}

		resp, err := w.LLM.GenerateContent(ctx, prompts, llms.WithTemperature(0))
		if err != nil {
			lastErr = fmt.Errorf("llm generation failed: %w", err)
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("llm returned no choices")
			continue
		}

		content := resp.Choices[0].Content
		if validator != nil {
			if err := validator(content); err != nil {
				lastErr = fmt.Errorf("validation failed: %w", err)
				continue
			}
		}

		return content, nil
	}

	return "", fmt.Errorf("operation failed after %d retries: %w", maxRetries, lastErr)
}

// parseToolNames splits a plain-text LLM reply into one name per line,
// trimming whitespace and dropping blank lines.
func parseToolNames(content string) []string {
	names := []string{}
	for _, line := range strings.Split(content, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// FormatCompanyData renders each company as the fixed multi-line summary
// block fed to the recommendation prompt, joined by separator lines.
func FormatCompanyData(companies []CompanyInfo) string {
	summaries := make([]string, 0, len(companies))
	for _, company := range companies {
		summary := fmt.Sprintf(
			"Company: %s\nWebsite: %s\nDescription: %s\nPricing Model: %s\nOpen Source: %s\nAPI Available: %s\nTech Stack: %s\nLanguage Support: %s\nIntegration Capabilities: %s",
			company.Name,
			company.Website,
			company.Description,
			company.PricingModel,
			FormatTriState(company.IsOpenSource),
			FormatTriState(company.APIAvailable),
			strings.Join(company.TechStack, ", "),
			strings.Join(company.LanguageSupport, ", "),
			strings.Join(company.IntegrationCapabilities, ", "),
		)
		summaries = append(summaries, summary)
	}
	return strings.Join(summaries, "\n\n---\n\n")
}

// FormatTriState renders a nullable boolean as true, false or unknown.
func FormatTriState(v *bool) string {
	if v == nil {
		return "unknown"
	}
	return strconv.FormatBool(*v)
}

// truncateRunes returns at most limit characters of s. Slicing runes rather
// than bytes keeps multi-byte characters intact.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
