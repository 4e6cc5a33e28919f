// Package config loads the application configuration from a JSON file
// with PDFTRANS_* environment overrides and documented defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	TranslationEngine  string `mapstructure:"translation_engine" json:"translation_engine"`
	OpenAIAPIKey       string `mapstructure:"openai_api_key" json:"openai_api_key"`
	OpenAIBaseURL      string `mapstructure:"openai_base_url" json:"openai_base_url"`
	OpenAIModel        string `mapstructure:"openai_model" json:"openai_model"`
	QPS                int    `mapstructure:"qps" json:"qps"`
	MinTextLength      int    `mapstructure:"min_text_length" json:"min_text_length"`
	Debug              bool   `mapstructure:"debug" json:"debug"`
	LogFile            string `mapstructure:"log_file" json:"log_file"`
	CustomSystemPrompt string `mapstructure:"custom_system_prompt" json:"custom_system_prompt"`

	Watch WatchConfig `mapstructure:"watch" json:"watch"`
}

// WatchConfig drives the scheduled directory scanner.
type WatchConfig struct {
	Dirs       []string `mapstructure:"dirs" json:"dirs"`
	CronExpr   string   `mapstructure:"cron_expr" json:"cron_expr"`
	Extensions []string `mapstructure:"extensions" json:"extensions"`
	LangIn     string   `mapstructure:"lang_in" json:"lang_in"`
	LangOut    string   `mapstructure:"lang_out" json:"lang_out"`
	OutputDir  string   `mapstructure:"output_dir" json:"output_dir"`
	DBPath     string   `mapstructure:"db_path" json:"db_path"`
	Workers    int      `mapstructure:"workers" json:"workers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("translation_engine", "openai")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("qps", 4)
	v.SetDefault("min_text_length", 5)
	v.SetDefault("debug", false)
	v.SetDefault("log_file", "")
	v.SetDefault("custom_system_prompt", "")
	v.SetDefault("watch.dirs", []string{})
	v.SetDefault("watch.cron_expr", "@every 10m")
	v.SetDefault("watch.extensions", []string{})
	v.SetDefault("watch.lang_in", "en")
	v.SetDefault("watch.lang_out", "zh")
	v.SetDefault("watch.output_dir", "")
	v.SetDefault("watch.db_path", "data/pdftrans.db")
	v.SetDefault("watch.workers", 2)
}

// Load reads the JSON config at path. Environment variables of the
// form PDFTRANS_OPENAI_API_KEY override file values; keys missing from
// both fall back to the defaults above.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PDFTRANS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TranslationEngine != "openai" {
		return fmt.Errorf("unsupported translation engine: %q", c.TranslationEngine)
	}
	if c.QPS < 0 {
		return fmt.Errorf("qps must not be negative")
	}
	if c.MinTextLength < 0 {
		return fmt.Errorf("min_text_length must not be negative")
	}
	if c.Watch.Workers < 0 {
		return fmt.Errorf("watch.workers must not be negative")
	}
	return nil
}

// WriteExample writes a starter config file with placeholder
// credentials for the user to fill in.
func WriteExample(path string) error {
	example := Config{
		TranslationEngine: "openai",
		OpenAIAPIKey:      "your-api-key-here",
		OpenAIBaseURL:     "https://api.openai.com/v1",
		OpenAIModel:       "gpt-4o-mini",
		QPS:               4,
		MinTextLength:     5,
		Watch: WatchConfig{
			CronExpr: "@every 10m",
			LangIn:   "en",
			LangOut:  "zh",
			DBPath:   "data/pdftrans.db",
			Workers:  2,
		},
	}
	payload, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}
