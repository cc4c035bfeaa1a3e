package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Boolean settings default to false: cleanenv applies env-default to any
// zero value, so a "true" default could not be switched off from YAML.
type Config struct {
	APIKey    string `yaml:"api_key" env:"OPENROUTER_API_KEY" env-description:"OpenRouter API key"`
	BaseURL   string `yaml:"base_url" env:"OPENROUTER_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	Model     string `yaml:"model" env:"OPENROUTER_MODEL" env-default:"google/gemini-2.5-flash-image-preview:free"`
	MaxTokens int    `yaml:"max_tokens" env:"OPENROUTER_MAX_TOKENS" env-default:"1000"`
	Referer   string `yaml:"referer" env:"OPENROUTER_REFERER" env-default:"https://github.com/openrouter-imagegen"`
	Title     string `yaml:"title" env:"OPENROUTER_TITLE" env-default:"Image Generator App"`

	OutputDir     string `yaml:"output_dir" env:"IMAGEGEN_OUTPUT_DIR" env-default:"."`
	DebugFile     string `yaml:"debug_file" env:"IMAGEGEN_DEBUG_FILE" env-default:"response_debug.json"`
	NoOpen        bool   `yaml:"no_open" env:"IMAGEGEN_NO_OPEN" env-description:"do not open saved images"`
	StrictDataURL bool   `yaml:"strict_data_url" env:"IMAGEGEN_STRICT_DATA_URL"`
	HistoryFile   string `yaml:"history_file" env:"IMAGEGEN_HISTORY_FILE"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`

	PreferIPv4            bool `yaml:"prefer_ipv4" env:"PREFER_IPV4"`
	HTTPTimeoutSeconds    int  `yaml:"http_timeout_seconds" env:"HTTP_TIMEOUT_SECONDS" env-default:"180"`
	RequestTimeoutSeconds int  `yaml:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS" env-default:"180"`

	TelegramToken string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	MaxConcurrent int    `yaml:"max_concurrent" env:"MAX_CONCURRENT" env-default:"4"`
	TelegramDebug bool   `yaml:"telegram_debug" env:"TELEGRAM_DEBUG"`

	HTTPTimeout    time.Duration `yaml:"-"`
	RequestTimeout time.Duration `yaml:"-"`
}

// Load reads the YAML file at path, when given, and then the environment.
// Environment variables win over file values.
func Load(path string) (Config, error) {
	var cfg Config

	var err error
	if strings.TrimSpace(path) != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(&cfg, nil)
		return Config{}, fmt.Errorf("config: %w; %s", err, desc)
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	switch {
	case cfg.APIKey == "":
		return Config{}, errors.New("OPENROUTER_API_KEY is required")
	case cfg.Model == "":
		return Config{}, errors.New("OPENROUTER_MODEL is empty")
	}

	if cfg.MaxTokens < 1 {
		cfg.MaxTokens = 1000
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = "."
	}
	if strings.TrimSpace(cfg.DebugFile) == "" {
		cfg.DebugFile = "response_debug.json"
	}

	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}

	return cfg, nil
}

// RequireTelegram reports whether the bot front end can start.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}
