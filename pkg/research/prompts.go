package research

import (
	"fmt"
	"strings"
)

// Prompts for the pipeline stages. Each stage pairs a fixed system
// instruction with a user prompt built from run data.

// ToolExtractionSystem primes the LLM to list concrete products rather than
// concepts when reading comparison articles.
const ToolExtractionSystem = `You are a tech researcher. Extract specific tool, library, platform or service names from articles.
Focus on actual products developers can use, not general concepts or features.`

// ToolExtractionUser embeds the query and the combined article content.
func ToolExtractionUser(query, content string) string {
	return fmt.Sprintf(`Query: %s
Article Content:
%s

Extract a list of tool/service names mentioned in this content that are relevant to "%s".

Rules:
- Only include actual product names, no generic terms
- Include both open source and commercial options
- Limit to the 5 most relevant tools
- Return only the names, one per line, no descriptions`, query, content, query)
}

// NameExtractionSystem is the generic instruction for the fallback path,
// used when article extraction produced no tool names.
const NameExtractionSystem = `You are an expert at extracting company and product names from text.`

// NameExtractionUser embeds the search-result titles the fallback collected.
func NameExtractionUser(titles []string) string {
	return fmt.Sprintf(`From the following list of article titles, extract the names of any companies or software products mentioned. Return only the names, one per line.

Titles:
- %s`, strings.Join(titles, "\n- "))
}

// ToolAnalysisSystem frames the structured page analysis from a developer's
// perspective.
const ToolAnalysisSystem = `You are analyzing developer tools and programming technologies.
Focus on information relevant to software developers: pricing, open source status, programming languages, frameworks, APIs, SDKs and integrations.`

// ToolAnalysisUser embeds one candidate's name and scraped site content.
func ToolAnalysisUser(companyName, content string) string {
	return fmt.Sprintf(`Company/Tool: %s
Website Content:
%s

Analyze this content from a developer's perspective and provide:
- pricing_model: "Free", "Freemium", "Paid", "Enterprise" or "Unknown"
- is_open_source: true if open source, false if proprietary, null if unclear
- tech_stack: programming languages, frameworks, databases or infrastructure mentioned
- description: one sentence describing what this tool does for developers
- api_available: true if a REST API, GraphQL endpoint or SDK is mentioned, null if unclear
- language_support: programming languages explicitly supported
- integration_capabilities: tools and platforms it integrates with`, companyName, content)
}

// RecommendationSystem keeps the final answer short and actionable.
const RecommendationSystem = `You are a senior software engineer giving quick, concise tech recommendations.
Keep responses brief and actionable, at most 3-4 sentences.`

// RecommendationUser embeds the original query and the formatted company
// summaries.
func RecommendationUser(query, companyData string) string {
	return fmt.Sprintf(`Developer Query: %s
Researched Tools:
%s

Provide a brief recommendation covering which tool fits best and why, the main cost consideration, and the key technical advantage.`, query, companyData)
}
