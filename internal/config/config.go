package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Addr     string `json:"addr"`
	LogLevel string `json:"log_level"`
	// MaxSteps bounds the number of model invocations per turn.
	MaxSteps int `json:"max_steps"`
	// DescriptionLimit is the character budget for shaped descriptions.
	DescriptionLimit int `json:"description_limit"`
	LLM              struct {
		BaseURL          string  `json:"base_url"`
		APIKey           string  `json:"api_key"`
		Model            string  `json:"model"`
		MaxTokens        int     `json:"max_tokens"`
		Temperature      float32 `json:"temperature"`
		MaxContextTokens int     `json:"max_context_tokens"`
		OutputReserve    int     `json:"output_reserve"`
	} `json:"llm"`
	CMS struct {
		BaseURL string `json:"base_url"`
		Token   string `json:"token"`
	} `json:"cms"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
	Digest struct {
		Schedule string  `json:"schedule"`
		ChatIDs  []int64 `json:"chat_ids"`
	} `json:"digest"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Addr = ":8080"
	cfg.LogLevel = "info"
	cfg.MaxSteps = 5
	cfg.DescriptionLimit = 280
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.MaxTokens = 2000
	cfg.LLM.Temperature = 0.7
	cfg.LLM.MaxContextTokens = 128000
	cfg.LLM.OutputReserve = 4096

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if cmsURL := os.Getenv("CMS_URL"); cmsURL != "" {
		cfg.CMS.BaseURL = cmsURL
	}
	if cmsToken := os.Getenv("CMS_TOKEN"); cmsToken != "" {
		cfg.CMS.Token = cmsToken
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	return cfg, nil
}

// Validate reports missing required values. Telegram and digest settings
// are optional; the model and CMS credentials are not.
func (c *Config) Validate() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "llm.api_key (or OPENAI_API_KEY)")
	}
	if c.CMS.BaseURL == "" {
		missing = append(missing, "cms.base_url (or CMS_URL)")
	}
	if c.CMS.Token == "" {
		missing = append(missing, "cms.token (or CMS_TOKEN)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %v", missing)
	}
	return nil
}

// Save writes the config as indented JSON, atomically via a temp file.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func writeDefaults(path string, cfg *Config) error {
	return Save(path, cfg)
}

// ListValues returns all config values as a flat dot-keyed map.
// When mask is true, secret values are masked for display.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue reads the config at path and returns the value for a
// dot-separated key. Secrets are masked.
func GetValue(path, key string) (any, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	flat, err := ListValues(cfg, true)
	if err != nil {
		return nil, err
	}
	val, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return val, nil
}

// SetValue sets a dot-separated key in the config file and saves it.
func SetValue(path, key, value string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	flat := Flatten(m)
	if _, ok := flat[key]; !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	flat[key] = coerce(flat[key], value)
	nested := Unflatten(flat)
	merged, err := json.Marshal(nested)
	if err != nil {
		return err
	}
	updated := &Config{}
	if err := json.Unmarshal(merged, updated); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return Save(path, updated)
}

// coerce converts the string value to the type of the existing value so
// numeric and boolean fields survive a round-trip through JSON.
func coerce(existing any, value string) any {
	switch existing.(type) {
	case float64:
		var f float64
		if _, err := fmt.Sscanf(value, "%g", &f); err == nil {
			return f
		}
	case bool:
		return value == "true"
	}
	return value
}
