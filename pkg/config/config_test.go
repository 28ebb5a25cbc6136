package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"FAST_MODEL", "REASONING_MODEL", "PORT", "MAX_ARTICLES", "MAX_COMPANIES",
		"FALLBACK_SEARCH_RESULTS", "ARTICLE_CONTENT_LIMIT", "LLM_MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.FastModel != "gemini-3-flash-preview" {
		t.Errorf("FastModel = %q, want %q", cfg.FastModel, "gemini-3-flash-preview")
	}
	if cfg.ReasoningModel != "gemini-3-pro-preview" {
		t.Errorf("ReasoningModel = %q, want %q", cfg.ReasoningModel, "gemini-3-pro-preview")
	}
	if cfg.Port != "8081" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8081")
	}
	if cfg.MaxArticles != 3 {
		t.Errorf("MaxArticles = %d, want 3", cfg.MaxArticles)
	}
	if cfg.MaxCompanies != 4 {
		t.Errorf("MaxCompanies = %d, want 4", cfg.MaxCompanies)
	}
	if cfg.FallbackSearchResults != 5 {
		t.Errorf("FallbackSearchResults = %d, want 5", cfg.FallbackSearchResults)
	}
	if cfg.ArticleContentLimit != 1500 {
		t.Errorf("ArticleContentLimit = %d, want 1500", cfg.ArticleContentLimit)
	}
	if cfg.LLMMaxRetries != 3 {
		t.Errorf("LLMMaxRetries = %d, want 3", cfg.LLMMaxRetries)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FAST_MODEL", "gemini-3-pro-preview")
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_COMPANIES", "2")

	cfg := Load()

	if cfg.FastModel != "gemini-3-pro-preview" {
		t.Errorf("FastModel = %q, want override", cfg.FastModel)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want override", cfg.Port)
	}
	if cfg.MaxCompanies != 2 {
		t.Errorf("MaxCompanies = %d, want 2", cfg.MaxCompanies)
	}
}

func TestGetEnvAsIntInvalid(t *testing.T) {
	t.Setenv("MAX_ARTICLES", "not-a-number")

	cfg := Load()

	if cfg.MaxArticles != 3 {
		t.Errorf("MaxArticles = %d, want default 3 for invalid value", cfg.MaxArticles)
	}
}
