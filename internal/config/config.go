package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Batches  BatchesConfig  `yaml:"batches"`
	Mailer   MailerConfig   `yaml:"mailer"`
	GenAI    GenAIConfig    `yaml:"genai"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// BaseURL is the public address embedded in tracking pixel and
	// click redirect links.
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BatchesConfig struct {
	// Path to the bbolt file holding scheduled batches.
	Path         string        `yaml:"path"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type MailerConfig struct {
	Provider  string `yaml:"provider"` // resend, noop
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type GenAIConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8090"
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:8090"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "/var/lib/splitmail/app.db"
	}
	if cfg.Batches.Path == "" {
		cfg.Batches.Path = "/var/lib/splitmail/batches.db"
	}
	if cfg.Batches.PollInterval == 0 {
		cfg.Batches.PollInterval = 15 * time.Second
	}
	if cfg.Mailer.Provider == "" {
		cfg.Mailer.Provider = "noop"
	}
	if cfg.GenAI.BaseURL == "" {
		cfg.GenAI.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.GenAI.Model == "" {
		cfg.GenAI.Model = "llama3-70b-8192"
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 60 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	switch cfg.Mailer.Provider {
	case "noop":
	case "resend":
		if cfg.Mailer.APIKey == "" {
			return fmt.Errorf("mailer.api_key is required for the resend provider")
		}
		if cfg.Mailer.FromEmail == "" {
			return fmt.Errorf("mailer.from_email is required for the resend provider")
		}
	default:
		return fmt.Errorf("unknown mailer.provider: %s", cfg.Mailer.Provider)
	}
	return nil
}
