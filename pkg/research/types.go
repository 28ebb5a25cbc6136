package research

// ResearchState accumulates the output of each pipeline stage for one query.
// The query is set once at the start of a run; each stage fills in its own
// field and never touches the others.
type ResearchState struct {
	Query          string        `json:"query"`
	ExtractedTools []string      `json:"extracted_tools"`
	Companies      []CompanyInfo `json:"companies"`
	Analysis       string        `json:"analysis"`
}

// CompanyInfo is one researched candidate tool. The description starts as
// the raw search-result snippet and is overwritten by the structured
// analysis when the candidate's site could be scraped.
type CompanyInfo struct {
	Name                    string   `json:"name"`
	Website                 string   `json:"website"`
	Description             string   `json:"description"`
	PricingModel            string   `json:"pricing_model"`
	IsOpenSource            *bool    `json:"is_open_source"`
	TechStack               []string `json:"tech_stack"`
	APIAvailable            *bool    `json:"api_available"`
	LanguageSupport         []string `json:"language_support"`
	IntegrationCapabilities []string `json:"integration_capabilities"`
}

// CompanyAnalysis is the structured judgement the LLM returns about one
// scraped page. The pointer booleans are tri-state: nil means the page did
// not say.
type CompanyAnalysis struct {
	PricingModel            string   `json:"pricing_model"`
	IsOpenSource            *bool    `json:"is_open_source"`
	TechStack               []string `json:"tech_stack"`
	Description             string   `json:"description"`
	APIAvailable            *bool    `json:"api_available"`
	LanguageSupport         []string `json:"language_support"`
	IntegrationCapabilities []string `json:"integration_capabilities"`
}

// FailedAnalysisDescription marks companies whose page analysis failed.
const FailedAnalysisDescription = "Failed to analyze content."

// FallbackAnalysis returns the fixed all-unknown analysis substituted when
// the structured analyzer fails, so one bad candidate never stalls a run.
func FallbackAnalysis() CompanyAnalysis {
	return CompanyAnalysis{
		PricingModel:            "Unknown",
		IsOpenSource:            nil,
		TechStack:               []string{},
		Description:             FailedAnalysisDescription,
		APIAvailable:            nil,
		LanguageSupport:         []string{},
		IntegrationCapabilities: []string{},
	}
}

// ApplyAnalysis copies every attribute from a structured analysis onto the
// company, replacing the provisional search-result description. Duplicate
// tech stack entries are dropped, keeping first-seen order.
func (c *CompanyInfo) ApplyAnalysis(a CompanyAnalysis) {
	c.PricingModel = a.PricingModel
	c.IsOpenSource = a.IsOpenSource
	c.TechStack = dedupe(a.TechStack)
	c.Description = a.Description
	c.APIAvailable = a.APIAvailable
	c.LanguageSupport = a.LanguageSupport
	c.IntegrationCapabilities = a.IntegrationCapabilities
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
