package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingCredential is returned when an LLM feature is used without an API key.
var ErrMissingCredential = errors.New("llm api key not configured")

// Detection strategies.
const (
	StrategyAuto  = "auto"  // llm when a credential is configured, regex otherwise
	StrategyRegex = "regex" // local framework matcher only
	StrategyLLM   = "llm"   // external classifier only
	StrategyBoth  = "both"  // both, merged
)

// LLM providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// OCR engines.
const (
	OCRTesseract = "tesseract"
	OCRGemini    = "gemini"
	OCRNone      = "none"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	// Auth for the upload endpoint. Empty disables auth.
	APIKey string

	// Storage of uploaded reports.
	UploadDir      string
	MaxUploadBytes int64

	// Detection
	Strategy  string
	VocabFile string

	// LLM
	LLMProvider     string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	LLMTimeout      time.Duration
	StatsWindow     time.Duration

	// PDF fallbacks
	Pdftotext     string // "none" disables the pdftotext tier
	OCREngine     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	OCRDPI        int
	OCRMaxPages   int
}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", "8000"),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		APIKey: os.Getenv("ESGLENS_API_KEY"),

		UploadDir:      envOr("UPLOAD_DIR", "static/uploads"),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		Strategy:  strings.ToLower(envOr("DETECTION_STRATEGY", StrategyAuto)),
		VocabFile: os.Getenv("ESG_VOCAB_FILE"),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:    envOr("GOOGLE_API_KEY", os.Getenv("GEMINI_API_KEY")),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		LLMTimeout:      envDuration("LLM_TIMEOUT", 90*time.Second),
		StatsWindow:     envDuration("LLM_STATS_WINDOW", 1*time.Hour),

		Pdftotext:     envOr("PDFTOTEXT_BIN", "pdftotext"),
		OCREngine:     strings.ToLower(envOr("OCR_ENGINE", OCRTesseract)),
		Pdftoppm:      envOr("PDFTOPPM_BIN", "pdftoppm"),
		Tesseract:     envOr("TESSERACT_BIN", "tesseract"),
		TesseractLang: envOr("TESSERACT_LANG", "eng"),
		OCRDPI:        envInt("OCR_DPI", 300),
		OCRMaxPages:   envInt("OCR_MAX_PAGES", 0),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 90 * time.Second
	}
	if cfg.OCRDPI <= 0 {
		cfg.OCRDPI = 300
	}
	if cfg.OCRMaxPages < 0 {
		cfg.OCRMaxPages = 0
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyAuto, StrategyRegex, StrategyLLM, StrategyBoth:
	default:
		return fmt.Errorf("DETECTION_STRATEGY must be one of auto, regex, llm, both (got %q)", c.Strategy)
	}
	switch c.LLMProvider {
	case ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("LLM_PROVIDER must be gemini or anthropic (got %q)", c.LLMProvider)
	}
	switch c.OCREngine {
	case OCRTesseract, OCRGemini, OCRNone:
	default:
		return fmt.Errorf("OCR_ENGINE must be tesseract, gemini or none (got %q)", c.OCREngine)
	}
	if c.OCREngine == OCRGemini && c.GeminiAPIKey == "" {
		return fmt.Errorf("OCR_ENGINE=gemini: %w", ErrMissingCredential)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	return nil
}

// LLMKey returns the API key of the configured provider.
func (c Config) LLMKey() (string, error) {
	var key string
	switch c.LLMProvider {
	case ProviderAnthropic:
		key = c.AnthropicAPIKey
	default:
		key = c.GeminiAPIKey
	}
	if key == "" {
		return "", ErrMissingCredential
	}
	return key, nil
}

// EffectiveStrategy resolves StrategyAuto against the available credentials.
func (c Config) EffectiveStrategy() string {
	if c.Strategy != StrategyAuto {
		return c.Strategy
	}
	if _, err := c.LLMKey(); err == nil {
		return StrategyLLM
	}
	return StrategyRegex
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}
