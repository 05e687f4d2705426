package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where kbdesk stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// AI configuration
	AIEnabled        bool   // KBDESK_AI_ENABLED
	DefaultProvider  string // KBDESK_AI_DEFAULT_PROVIDER (default: openai)
	OpenAIAPIKey     string // KBDESK_AI_OPENAI_API_KEY
	OpenAIBaseURL    string // KBDESK_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	GeminiAPIKey     string // KBDESK_AI_GEMINI_API_KEY
	GeminiBaseURL    string // KBDESK_AI_GEMINI_BASE_URL (default: OpenAI-compatible Gemini endpoint)
	RerankEnabled    bool   // KBDESK_AI_RERANK_ENABLED (default: true)
	TavilyAPIKey     string // KBDESK_WEBSEARCH_TAVILY_API_KEY
	TavilyBaseURL    string // KBDESK_WEBSEARCH_TAVILY_BASE_URL (default: https://api.tavily.com)
	WebSearchEnabled bool   // derived: set when a Tavily key is present
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and at least one provider key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && (p.OpenAIAPIKey != "" || p.GeminiAPIKey != "")
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from KBDESK_* environment variables.
func (p *Profile) FromEnv() {
	p.AIEnabled = os.Getenv("KBDESK_AI_ENABLED") == "true"
	p.DefaultProvider = getEnvOrDefault("KBDESK_AI_DEFAULT_PROVIDER", "openai")
	p.OpenAIAPIKey = os.Getenv("KBDESK_AI_OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("KBDESK_AI_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.GeminiAPIKey = os.Getenv("KBDESK_AI_GEMINI_API_KEY")
	p.GeminiBaseURL = getEnvOrDefault("KBDESK_AI_GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai")
	p.RerankEnabled = getEnvOrDefault("KBDESK_AI_RERANK_ENABLED", "true") == "true"
	p.TavilyAPIKey = os.Getenv("KBDESK_WEBSEARCH_TAVILY_API_KEY")
	p.TavilyBaseURL = getEnvOrDefault("KBDESK_WEBSEARCH_TAVILY_BASE_URL", "https://api.tavily.com")
	p.WebSearchEnabled = p.TavilyAPIKey != ""
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return err
		}
		p.Data = dataDir
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("kbdesk_%s.db", p.Mode))
	}

	return nil
}
