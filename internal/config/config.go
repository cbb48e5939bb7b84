package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config represents the application configuration
type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Processing ProcessingConfig `yaml:"processing"`
	SpamFilter SpamFilterConfig `yaml:"spam_filter"`
	Storage    StorageConfig    `yaml:"storage"`
}

// YouTubeConfig represents YouTube Data API configuration
type YouTubeConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageSize       int    `yaml:"page_size"`
}

// AnthropicConfig represents Anthropic API configuration
type AnthropicConfig struct {
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	BaseURL           string `yaml:"base_url"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	MaxTokens         int    `yaml:"max_tokens"`
	RetryCount        int    `yaml:"retry_count"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
}

// ProcessingConfig represents pipeline configuration
type ProcessingConfig struct {
	MaxComments      int    `yaml:"max_comments"`
	BatchSize        int    `yaml:"batch_size"`
	Concurrency      int    `yaml:"concurrency"`
	HintCount        int    `yaml:"hint_count"`
	TargetLanguage   string `yaml:"target_language"`
	OutputDir        string `yaml:"output_dir"`
	SaveIntermediate bool   `yaml:"save_intermediate"`
}

// SpamFilterConfig represents the deterministic pre-filter thresholds.
// MinWords is a pointer so that an explicit 0 disables the word floor.
type SpamFilterConfig struct {
	NGramSize      int  `yaml:"ngram_size"`
	NGramThreshold int  `yaml:"ngram_threshold"`
	MinWords       *int `yaml:"min_words"`
}

// StorageConfig represents run history storage. An empty path disables history.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

const (
	DefaultYouTubeBaseURL   = "https://www.googleapis.com/youtube/v3"
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultModel            = "claude-3-5-haiku-latest"
	DefaultPageSize         = 100
	DefaultMaxComments      = 1000
	DefaultBatchSize        = 200
	DefaultConcurrency      = 10
	DefaultHintCount        = 10
	DefaultTargetLanguage   = "English"
	DefaultNGramSize        = 5
	DefaultNGramThreshold   = 2
	DefaultMinWords         = 25
)

// Int returns a pointer to v, for optional settings
func Int(v int) *int {
	return &v
}

// Default returns a configuration with every default applied
func Default() *Config {
	var config Config
	config.ApplyDefaults()
	return &config
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// ApplyDefaults fills zero values with defaults
func (c *Config) ApplyDefaults() {
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = DefaultYouTubeBaseURL
	}
	if c.YouTube.TimeoutSeconds == 0 {
		c.YouTube.TimeoutSeconds = 30
	}
	if c.YouTube.PageSize == 0 {
		c.YouTube.PageSize = DefaultPageSize
	}

	if c.Anthropic.BaseURL == "" {
		c.Anthropic.BaseURL = DefaultAnthropicBaseURL
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = DefaultModel
	}
	if c.Anthropic.TimeoutSeconds == 0 {
		c.Anthropic.TimeoutSeconds = 120
	}
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = 8192
	}
	if c.Anthropic.RetryCount == 0 {
		c.Anthropic.RetryCount = 1
	}

	if c.Processing.MaxComments == 0 {
		c.Processing.MaxComments = DefaultMaxComments
	}
	if c.Processing.BatchSize == 0 {
		c.Processing.BatchSize = DefaultBatchSize
	}
	if c.Processing.Concurrency == 0 {
		c.Processing.Concurrency = DefaultConcurrency
	}
	if c.Processing.HintCount == 0 {
		c.Processing.HintCount = DefaultHintCount
	}
	if c.Processing.TargetLanguage == "" {
		c.Processing.TargetLanguage = DefaultTargetLanguage
	}
	if c.Processing.OutputDir == "" {
		c.Processing.OutputDir = "output"
	}

	if c.SpamFilter.NGramSize == 0 {
		c.SpamFilter.NGramSize = DefaultNGramSize
	}
	if c.SpamFilter.NGramThreshold == 0 {
		c.SpamFilter.NGramThreshold = DefaultNGramThreshold
	}
	if c.SpamFilter.MinWords == nil {
		c.SpamFilter.MinWords = Int(DefaultMinWords)
	}
}

// ApplyEnv overrides credentials from the environment when set
func (c *Config) ApplyEnv() {
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		c.YouTube.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Anthropic.APIKey = key
	}
}

// Validate validates the configuration. A missing YouTube key is reported by
// the analysis run itself, not here.
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic API key is required")
	}

	if c.YouTube.PageSize < 1 || c.YouTube.PageSize > 100 {
		return fmt.Errorf("youtube page size must be between 1 and 100, got %d", c.YouTube.PageSize)
	}

	if c.Processing.MaxComments < 0 {
		return fmt.Errorf("max comments must not be negative")
	}

	if c.Processing.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive")
	}

	if c.Processing.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive")
	}

	if c.SpamFilter.NGramThreshold < 2 {
		return fmt.Errorf("ngram threshold must be at least 2")
	}

	if c.SpamFilter.MinWords != nil && *c.SpamFilter.MinWords < 0 {
		return fmt.Errorf("min words must not be negative")
	}

	return nil
}
