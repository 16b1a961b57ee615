package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. It is loaded once at process
// start and passed explicitly into constructors; components never read the
// environment themselves.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Vision   VisionConfig
	LLM      LLMConfig
	Privacy  PrivacyConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds document-store configuration. DSN may be a postgres://
// URL or a sqlite file path; see repository.Open.
type DatabaseConfig struct {
	DSN         string
	DialTimeout time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string
}

// VisionConfig selects and configures the OCR backend.
type VisionConfig struct {
	Backend       string // "google" | "tesseract"
	GoogleAPIKey  string
	TesseractLang string
	Pdftoppm      string // binary name or absolute path; if empty -> "pdftoppm"
	DPI           int
	Timeout       time.Duration
}

// LLMConfig holds extraction-backend credentials. A backend with an empty
// key is treated as permanently unavailable and never attempted.
type LLMConfig struct {
	GeminiAPIKey string
	GeminiModel  string
	XAIAPIKey    string
	XAIModel     string
	Timeout      time.Duration
	StrictSchema bool
}

// PrivacyConfig carries the identity profile whose values must never leave
// the local process.
type PrivacyConfig struct {
	Name       string
	Lastname   string
	NationalID string
	Address    string
	RulesPath  string // optional JSON file overriding the curated noise patterns
}

// PipelineConfig holds per-document behavior.
type PipelineConfig struct {
	ArtifactDir   string        // parent of ocr_results/, cleaned_results/, json_results/
	DocumentDelay time.Duration // enforced after each document's extraction call
	RulesPath     string        // optional JSON file overriding the normalization maps
	WatchDir      string        // optional inbox directory; empty disables watching
	WatchDebounce time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:         getEnv("DB_URL", "morfolog.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8088"),
		},
		Vision: VisionConfig{
			Backend:       getEnv("OCR_BACKEND", "tesseract"),
			GoogleAPIKey:  getEnv("GOOGLE_VISION_API_KEY", ""),
			TesseractLang: getEnv("TESSERACT_LANG", "pol"),
			Pdftoppm:      getEnv("PDFTOPPM", "pdftoppm"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash-lite"),
			XAIAPIKey:    getEnv("XAI_API_KEY", ""),
			XAIModel:     getEnv("XAI_MODEL", "grok-beta"),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			StrictSchema: getEnvAsBool("LLM_STRICT_SCHEMA", false),
		},
		Privacy: PrivacyConfig{
			Name:       getEnv("USER_NAME", ""),
			Lastname:   getEnv("USER_LASTNAME", ""),
			NationalID: getEnv("USER_PESEL", ""),
			Address:    getEnv("USER_ADDRESS", ""),
			RulesPath:  getEnv("PRIVACY_RULES_PATH", ""),
		},
		Pipeline: PipelineConfig{
			ArtifactDir:   getEnv("ARTIFACT_DIR", "."),
			DocumentDelay: getEnvAsDuration("DOCUMENT_DELAY", 2*time.Second),
			RulesPath:     getEnv("NORMALIZATION_RULES_PATH", ""),
			WatchDir:      getEnv("WATCH_DIR", ""),
			WatchDebounce: getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Vision.Backend == "google" && c.Vision.GoogleAPIKey == "" {
		return NewAppError("CONFIG_ERROR", "GOOGLE_VISION_API_KEY is required for the google backend", ErrInvalidInput)
	}
	if c.LLM.GeminiAPIKey == "" && c.LLM.XAIAPIKey == "" {
		return NewAppError("CONFIG_ERROR", "at least one of GEMINI_API_KEY or XAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
