package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for dealflow.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Google  GoogleConfig  `yaml:"google"`
	Demo    DemoConfig    `yaml:"demo"`
	Agent   AgentConfig   `yaml:"agent"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	TokenPath    string `yaml:"token_path"`
}

type DemoConfig struct {
	// RecipientOverride routes real email sends to an operator-controlled
	// inbox instead of the fictional prospect address.
	RecipientOverride string `yaml:"recipient_override"`
}

type AgentConfig struct {
	MaxRounds            int `yaml:"max_rounds"`
	MaxTokens            int `yaml:"max_tokens"`
	ThinkingBudgetTokens int `yaml:"thinking_budget_tokens"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the configuration file. A missing file is not an
// error; environment variables alone can configure a demo run.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Expand environment variables
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// applyEnv lets the usual environment variables override file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_REDIRECT_URI"); v != "" {
		cfg.Google.RedirectURL = v
	}
	if v := os.Getenv("DEMO_PROSPECT_EMAIL"); v != "" {
		cfg.Demo.RecipientOverride = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = "http://localhost:8080/api/auth/google/callback"
	}
	if cfg.Google.TokenPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Google.TokenPath = home + "/.dealflow/google-token.json"
		} else {
			cfg.Google.TokenPath = ".dealflow/google-token.json"
		}
	}
	if cfg.Agent.MaxRounds == 0 {
		cfg.Agent.MaxRounds = 10
	}
	if cfg.Agent.MaxTokens == 0 {
		cfg.Agent.MaxTokens = 16000
	}
	if cfg.Agent.ThinkingBudgetTokens == 0 {
		cfg.Agent.ThinkingBudgetTokens = 10000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks settings needed to run live agent turns.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set ANTHROPIC_API_KEY)")
	}
	return nil
}
