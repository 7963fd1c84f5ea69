package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	People     []string         `yaml:"people"`
	Digest     DigestConfig     `yaml:"digest"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	LLM        LLMConfig        `yaml:"llm"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type DigestConfig struct {
	PerPerson        int `yaml:"per_person"`
	MaxSearchResults int `yaml:"max_search_results"`
}

type GatewayConfig struct {
	Endpoint      string   `yaml:"endpoint" env:"MCP_ENDPOINT"`
	RequiredTools []string `yaml:"required_tools" env:"MCP_TOOLS"`
}

type LLMConfig struct {
	Endpoint            string  `yaml:"endpoint" env:"LLM_ENDPOINT"`
	Model               string  `yaml:"model" env:"LLM_MODEL"`
	MaxTranscriptChars  int     `yaml:"max_transcript_chars"`
	MaxTokens           int     `yaml:"max_tokens"`
	Temperature         float64 `yaml:"temperature"`
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
	ProbeTimeoutSeconds int     `yaml:"probe_timeout_seconds"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}
	// A missing config file is fine: defaults and env cover everything.

	if v := os.Getenv("MCP_ENDPOINT"); v != "" {
		cfg.Gateway.Endpoint = v
	}
	if v := os.Getenv("MCP_TOOLS"); v != "" {
		cfg.Gateway.RequiredTools = splitList(v)
	}
	if v := os.Getenv("LLM_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("EMAIL_USERNAME"); v != "" {
		cfg.Email.Username = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.People) == 0 {
		c.People = []string{"Sam Altman", "Elon Musk", "Donald Trump"}
	}
	if c.Digest.PerPerson == 0 {
		c.Digest.PerPerson = 2
	}
	if c.Digest.MaxSearchResults == 0 {
		c.Digest.MaxSearchResults = 15
	}
	if c.Gateway.Endpoint == "" {
		c.Gateway.Endpoint = "http://localhost:8080/mcp"
	}
	if len(c.Gateway.RequiredTools) == 0 {
		c.Gateway.RequiredTools = []string{"search", "get_transcript"}
	}
	if c.LLM.Endpoint == "" {
		c.LLM.Endpoint = "http://127.0.0.1:1234/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "local"
	}
	if c.LLM.MaxTranscriptChars == 0 {
		c.LLM.MaxTranscriptChars = 3000
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 200
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.ProbeTimeoutSeconds == 0 {
		c.LLM.ProbeTimeoutSeconds = 5
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8085
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 8 * * *" // Daily at 8 AM
	}
}

func (c *Config) validate() error {
	if c.Digest.PerPerson < 1 {
		return fmt.Errorf("digest.per_person must be at least 1, got %d", c.Digest.PerPerson)
	}
	if c.Digest.MaxSearchResults < 1 {
		return fmt.Errorf("digest.max_search_results must be at least 1, got %d", c.Digest.MaxSearchResults)
	}
	if c.Gateway.Endpoint == "" {
		return fmt.Errorf("gateway endpoint is required (set MCP_ENDPOINT or gateway.endpoint)")
	}
	if c.LLM.Endpoint == "" {
		return fmt.Errorf("LLM endpoint is required (set LLM_ENDPOINT or llm.endpoint)")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	if c.Monitoring.HealthPort < 1 || c.Monitoring.HealthPort > 65535 {
		return fmt.Errorf("monitoring.health_port must be a valid port, got %d", c.Monitoring.HealthPort)
	}
	return nil
}

// ValidateEmail is only enforced for scheduled runs, where the digest
// is delivered by mail instead of printed.
func (c *Config) ValidateEmail() error {
	if c.Email.SMTPServer == "" {
		return fmt.Errorf("SMTP server is required (set email.smtp_server)")
	}
	if c.Email.Username == "" {
		return fmt.Errorf("email username is required (set EMAIL_USERNAME or email.username)")
	}
	if c.Email.Password == "" {
		return fmt.Errorf("email password is required (set EMAIL_PASSWORD or email.password)")
	}
	if c.Email.FromEmail == "" || c.Email.ToEmail == "" {
		return fmt.Errorf("email from_email and to_email are required")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
