package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	LLMProvider string // deepseek, openai, siliconflow, dashscope, openrouter, ollama
	LLMAPIKey   string
	LLMBaseURL  string // optional, has default per provider
	LLMModel    string
	LLMTimeout  int // seconds (default: 60)
	LLMRPS      float64

	// Emotion classifier. Falls back to the main LLM settings when empty.
	ClassifierModel      string
	ClassifierStructured bool // request json_schema response format

	// Remote insight / ritual capabilities. Empty endpoint selects the built-in generator.
	InsightEndpoint string
	RitualEndpoint  string
	CapabilityKey   string

	Mode        string
	Addr        string
	Port        int
	Data        string
	Driver      string
	DSN         string
	Secret      string
	Version     string
	InstanceURL string
}

// Provider default configurations for LLM.
// Used when ECHOMIND_AI_LLM_BASE_URL or ECHOMIND_AI_LLM_MODEL is not set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4o-mini",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM is reachable with the current settings.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("ECHOMIND_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("ECHOMIND_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("ECHOMIND_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("ECHOMIND_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("ECHOMIND_AI_LLM_TIMEOUT_SECONDS", 60)
	p.LLMRPS = getEnvOrDefaultFloat("ECHOMIND_AI_LLM_RPS", 5)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	defaults := llmProviderDefaults[p.LLMProvider]
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = defaults.BaseURL
	}
	if p.LLMModel == "" {
		p.LLMModel = defaults.Model
	}

	p.ClassifierModel = getEnvOrDefault("ECHOMIND_AI_CLASSIFIER_MODEL", p.LLMModel)
	p.ClassifierStructured = getEnvOrDefault("ECHOMIND_AI_CLASSIFIER_STRUCTURED", "true") == "true"

	p.InsightEndpoint = getEnvOrDefault("ECHOMIND_INSIGHT_ENDPOINT", "")
	p.RitualEndpoint = getEnvOrDefault("ECHOMIND_RITUAL_ENDPOINT", "")
	p.CapabilityKey = getEnvOrDefault("ECHOMIND_CAPABILITY_KEY", "")

	if p.Secret == "" {
		p.Secret = getEnvOrDefault("ECHOMIND_SECRET", "")
	}
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

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "echomind")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/echomind"
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("echomind_%s.db", p.Mode))
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.Mode == "prod" && p.Secret == "" {
		return errors.New("secret is required in prod mode")
	}
	if p.Secret == "" {
		p.Secret = "echomind-dev-secret"
	}

	return nil
}
