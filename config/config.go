// Package config provides typed configuration for the magi deliberation
// system, loaded once at process start.
//
// Precedence: defaults -> YAML file -> environment variables.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("MAGI").
//	    Load()
//
// Unknown YAML keys are ignored; missing keys keep their defaults.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration surface.
type Config struct {
	LLM     LLMConfig     `yaml:"llm" env:"LLM"`
	Council CouncilConfig `yaml:"council" env:"COUNCIL"`
	Tools   ToolsConfig   `yaml:"tools" env:"TOOLS"`
	Memory  MemoryConfig  `yaml:"memory" env:"MEMORY"`
	Log     LogConfig     `yaml:"log" env:"LOG"`
	Agents  AgentsConfig  `yaml:"agents" env:"AGENTS"`
}

// LLMConfig configures the model backend.
type LLMConfig struct {
	// Base URL of the OpenAI-compatible server.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Model name sent with each request.
	Model string `yaml:"model" env:"MODEL"`
	// API key. Local servers accept any value.
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Per-call ceiling; a call exceeding it resolves to a failure.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// CouncilConfig holds deliberation thresholds.
type CouncilConfig struct {
	// Minimum pairwise similarity ratio for consensus.
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD"`
	// Maximum debate extension rounds after the initial synthesis.
	MaxDebateRounds int `yaml:"max_debate_rounds" env:"MAX_DEBATE_ROUNDS"`
	// Output token budget per agent call.
	MaxAgentTokens int `yaml:"max_agent_tokens" env:"MAX_AGENT_TOKENS"`
	// Per-agent history cap within one deliberation.
	MaxHistoryMessages int `yaml:"max_history_messages" env:"MAX_HISTORY_MESSAGES"`
}

// ToolsConfig configures the tool bridge.
type ToolsConfig struct {
	WebSearchEnabled bool `yaml:"web_search_enabled" env:"WEB_SEARCH_ENABLED"`
	MaxSearchResults int  `yaml:"max_search_results" env:"MAX_SEARCH_RESULTS"`
}

// MemoryConfig configures persistence.
type MemoryConfig struct {
	Enabled              bool   `yaml:"enabled" env:"ENABLED"`
	AutoExtractKeypoints bool   `yaml:"auto_extract_keypoints" env:"AUTO_EXTRACT_KEYPOINTS"`
	DBPath               string `yaml:"db_path" env:"DB_PATH"`
	ClipboardPath        string `yaml:"clipboard_path" env:"CLIPBOARD_PATH"`
	// When set, the clipboard is kept in Redis instead of the JSON file.
	RedisAddr          string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RecentContextLimit int    `yaml:"recent_context_limit" env:"RECENT_CONTEXT_LIMIT"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string   `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format      string   `yaml:"format" env:"FORMAT"` // json, console
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// AgentConfig carries per-agent backend and voice identifiers.
type AgentConfig struct {
	Model string `yaml:"model" env:"MODEL"`
	Voice string `yaml:"voice" env:"VOICE"`
}

// AgentsConfig maps the three deliberating agents to their identifiers.
type AgentsConfig struct {
	Melchior  AgentConfig `yaml:"melchior" env:"MELCHIOR"`
	Balthasar AgentConfig `yaml:"balthasar" env:"BALTHASAR"`
	Casper    AgentConfig `yaml:"casper" env:"CASPER"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL: "http://localhost:1234/v1",
			Model:   "qwen3.5-35b-a3b",
			Timeout: 300 * time.Second,
		},
		Council: CouncilConfig{
			SimilarityThreshold: 0.8,
			MaxDebateRounds:     2,
			MaxAgentTokens:      1500,
			MaxHistoryMessages:  6,
		},
		Tools: ToolsConfig{
			WebSearchEnabled: true,
			MaxSearchResults: 3,
		},
		Memory: MemoryConfig{
			Enabled:              true,
			AutoExtractKeypoints: true,
			DBPath:               "data/magi.db",
			ClipboardPath:        "data/clipboard.json",
			RecentContextLimit:   3,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			OutputPaths: []string{"stderr"},
		},
	}
}

// Loader loads configuration with builder-style options.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "MAGI",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a config validator.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load loads configuration with precedence defaults -> file -> env.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads configuration, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate checks threshold sanity.
func (c *Config) Validate() error {
	var errs []string

	if c.Council.SimilarityThreshold < 0 || c.Council.SimilarityThreshold > 1 {
		errs = append(errs, "similarity_threshold must be in [0,1]")
	}
	if c.Council.MaxDebateRounds < 0 {
		errs = append(errs, "max_debate_rounds must be non-negative")
	}
	if c.Council.MaxHistoryMessages <= 0 {
		errs = append(errs, "max_history_messages must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
