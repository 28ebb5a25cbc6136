package config

import (
	"os"
	"strconv"
)

type Config struct {
	GoogleApiKey          string
	FirecrawlApiKey       string
	FirecrawlBaseURL      string
	ReasoningModel        string
	FastModel             string
	Port                  string
	MaxArticles           int
	MaxCompanies          int
	FallbackSearchResults int
	ArticleContentLimit   int
	LLMMaxRetries         int
}

func Load() *Config {
	return &Config{
		GoogleApiKey:          getEnv("GOOGLE_API_KEY", ""),
		FirecrawlApiKey:       getEnv("FIRECRAWL_API_KEY", ""),
		FirecrawlBaseURL:      getEnv("FIRECRAWL_BASE_URL", ""),
		ReasoningModel:        getEnv("REASONING_MODEL", "gemini-3-pro-preview"),
		FastModel:             getEnv("FAST_MODEL", "gemini-3-flash-preview"),
		Port:                  getEnv("PORT", "8081"),
		MaxArticles:           getEnvAsInt("MAX_ARTICLES", 3),
		MaxCompanies:          getEnvAsInt("MAX_COMPANIES", 4),
		FallbackSearchResults: getEnvAsInt("FALLBACK_SEARCH_RESULTS", 5),
		ArticleContentLimit:   getEnvAsInt("ARTICLE_CONTENT_LIMIT", 1500),
		LLMMaxRetries:         getEnvAsInt("LLM_MAX_RETRIES", 3),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
