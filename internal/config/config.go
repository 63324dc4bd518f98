// Package config loads awful-rustdocs configuration: built-in defaults, then a rustdocs.yaml file, then AWFUL_RUSTDOCS_* environment variables, then command-line flags bound
// by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/graves/awful-rustdocs/internal/generate"
	"github.com/graves/awful-rustdocs/internal/report"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name searched for (without extension) when no explicit file is given.
const FileName = "rustdocs"

// EnvPrefix prefixes environment overrides. Key dots become underscores: llm.model is AWFUL_RUSTDOCS_LLM_MODEL.
const EnvPrefix = "AWFUL_RUSTDOCS"

type Config struct {
	LLM       LLM       `mapstructure:"llm" yaml:"llm"`
	Templates Templates `mapstructure:"templates" yaml:"templates"`
	Run       Run       `mapstructure:"run" yaml:"run"`
	Log       Log       `mapstructure:"log" yaml:"log"`
}

// LLM configures the OpenAI-compatible chat completions endpoint.
type LLM struct {
	APIBase       string  `mapstructure:"api_base" yaml:"api_base"`
	APIKey        string  `mapstructure:"api_key" yaml:"api_key"` // Literal key, or "$ENV_VAR".
	Model         string  `mapstructure:"model" yaml:"model"`
	Temperature   float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" yaml:"max_tokens"` // 0 leaves the completion length to the server.
	MaxBodyTokens int     `mapstructure:"max_body_tokens" yaml:"max_body_tokens"`
	MaxRetries    int     `mapstructure:"max_retries" yaml:"max_retries"`
}

type Templates struct {
	Function generate.Template `mapstructure:"function" yaml:"function"`
	Struct   generate.Template `mapstructure:"struct" yaml:"struct"`
}

type Run struct {
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"` // 0 means GOMAXPROCS.
	Artifact    string `mapstructure:"artifact" yaml:"artifact"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, or error.
	Format string `mapstructure:"format" yaml:"format"` // text or json.
}

// Default returns the built-in configuration. It targets a local OpenAI-compatible server.
func Default() Config {
	return Config{
		LLM: LLM{
			APIBase:       "http://127.0.0.1:1234/v1",
			Model:         "jade_qwen3_4b_mlx",
			Temperature:   0.5,
			MaxBodyTokens: generate.DefaultMaxBodyTokens,
			MaxRetries:    2,
		},
		Templates: Templates{
			Function: generate.DefaultFunctionTemplate,
			Struct:   generate.DefaultStructTemplate,
		},
		Run: Run{
			Artifact: report.DefaultArtifactPath,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// New returns a viper instance with defaults and environment overrides registered. When file is non-empty it is the config file to read; otherwise rustdocs.yaml is searched for in
// the working directory and then the user config dir.
func New(file string) *viper.Viper {
	v := viper.New()
	for key, val := range flatten(Default()) {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return v
	}
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "awful-rustdocs"))
	}
	return v
}

// Load reads v's config file, if one is found, and decodes and validates the merged configuration. A missing searched-for file is not an error; a missing explicit file is.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("load configuration: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load configuration: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg for values the pipeline cannot run with.
func Validate(cfg Config) error {
	var problems []string
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		problems = append(problems, "llm.model must be set")
	}
	if cfg.LLM.MaxBodyTokens <= 0 {
		problems = append(problems, fmt.Sprintf("llm.max_body_tokens must be > 0 (got %d)", cfg.LLM.MaxBodyTokens))
	}
	if cfg.LLM.MaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("llm.max_retries must be >= 0 (got %d)", cfg.LLM.MaxRetries))
	}
	if cfg.Run.Concurrency < 0 {
		problems = append(problems, fmt.Sprintf("run.concurrency must be >= 0 (got %d)", cfg.Run.Concurrency))
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level must be debug, info, warn, or error (got %q)", cfg.Log.Level))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be text or json (got %q)", cfg.Log.Format))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// ErrExists is returned by WriteFile when the target exists and force is not set.
var ErrExists = errors.New("config file already exists")

// WriteFile writes cfg to path as YAML, creating parent directories. An existing file is only replaced when force is set.
func WriteFile(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// flatten returns cfg as dotted viper keys. Every key needs a default so AutomaticEnv can see it during Unmarshal.
func flatten(cfg Config) map[string]any {
	out := map[string]any{
		"llm.api_base":        cfg.LLM.APIBase,
		"llm.api_key":         cfg.LLM.APIKey,
		"llm.model":           cfg.LLM.Model,
		"llm.temperature":     cfg.LLM.Temperature,
		"llm.max_tokens":      cfg.LLM.MaxTokens,
		"llm.max_body_tokens": cfg.LLM.MaxBodyTokens,
		"llm.max_retries":     cfg.LLM.MaxRetries,
		"run.concurrency":     cfg.Run.Concurrency,
		"run.artifact":        cfg.Run.Artifact,
		"log.level":           cfg.Log.Level,
		"log.format":          cfg.Log.Format,
	}
	for name, t := range map[string]generate.Template{"function": cfg.Templates.Function, "struct": cfg.Templates.Struct} {
		out["templates."+name+".system_prompt"] = t.SystemPrompt
		out["templates."+name+".pre_user"] = t.PreUser
		out["templates."+name+".post_user"] = t.PostUser
	}
	return out
}
