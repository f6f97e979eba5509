package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "UPLOAD_DIR", "DETECTION_STRATEGY", "LLM_PROVIDER",
		"GOOGLE_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "LLM_TIMEOUT", "OCR_ENGINE", "OCR_DPI", "MAX_UPLOAD_BYTES",
		"PDFTOTEXT_BIN",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("expected port 8000, got %q", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.UploadDir != "static/uploads" {
		t.Errorf("expected static/uploads, got %q", cfg.UploadDir)
	}
	if cfg.Strategy != StrategyAuto {
		t.Errorf("expected auto strategy, got %q", cfg.Strategy)
	}
	if cfg.LLMTimeout != 90*time.Second {
		t.Errorf("expected 90s timeout, got %v", cfg.LLMTimeout)
	}
	if cfg.OCRDPI != 300 {
		t.Errorf("expected dpi 300, got %d", cfg.OCRDPI)
	}
	if cfg.Pdftotext != "pdftotext" {
		t.Errorf("expected pdftotext, got %q", cfg.Pdftotext)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DETECTION_STRATEGY", "BOTH")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("OCR_DPI", "-1")
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.Strategy != StrategyBoth {
		t.Errorf("expected strategy to be lowercased to both, got %q", cfg.Strategy)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.LLMTimeout)
	}
	if cfg.OCRDPI != 300 {
		t.Errorf("expected invalid dpi to reset to 300, got %d", cfg.OCRDPI)
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Errorf("expected default upload limit, got %d", cfg.MaxUploadBytes)
	}
}

func TestValidate_Rejects(t *testing.T) {
	base := Config{Strategy: StrategyAuto, LLMProvider: ProviderGemini, OCREngine: OCRTesseract, UploadDir: "x"}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad strategy", func(c *Config) { c.Strategy = "magic" }},
		{"bad provider", func(c *Config) { c.LLMProvider = "openai" }},
		{"bad ocr engine", func(c *Config) { c.OCREngine = "abbyy" }},
		{"gemini ocr without key", func(c *Config) { c.OCREngine = OCRGemini }},
		{"empty upload dir", func(c *Config) { c.UploadDir = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEffectiveStrategy(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"auto without key", Config{Strategy: StrategyAuto, LLMProvider: ProviderGemini}, StrategyRegex},
		{"auto with gemini key", Config{Strategy: StrategyAuto, LLMProvider: ProviderGemini, GeminiAPIKey: "k"}, StrategyLLM},
		{"auto with wrong provider key", Config{Strategy: StrategyAuto, LLMProvider: ProviderAnthropic, GeminiAPIKey: "k"}, StrategyRegex},
		{"explicit regex", Config{Strategy: StrategyRegex, GeminiAPIKey: "k"}, StrategyRegex},
		{"explicit both", Config{Strategy: StrategyBoth}, StrategyBoth},
	}
	for _, tc := range tests {
		if got := tc.cfg.EffectiveStrategy(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestLLMKey_Missing(t *testing.T) {
	cfg := Config{LLMProvider: ProviderAnthropic}
	if _, err := cfg.LLMKey(); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}
