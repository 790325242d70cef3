package appconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

// Config is the runtime configuration of the speedmap CLI.
type Config struct {
	Env             Environment `yaml:"env" validate:"oneof=development test production"`
	LogLevel        string      `yaml:"logLevel" validate:"oneof=debug info warn error"`
	LogFormat       string      `yaml:"logFormat" validate:"oneof=text json"`
	OutputFormat    string      `yaml:"outputFormat" validate:"oneof=text json csv"`
	MetricsTextfile string      `yaml:"metricsTextfile"`
	DumpSpeedGraph  bool        `yaml:"dumpSpeedGraph"`
}

// Environment variables read by Load. They override the YAML file.
const (
	EnvVarEnv             = "SPEEDMAP_ENV"
	EnvVarLogLevel        = "SPEEDMAP_LOG_LEVEL"
	EnvVarLogFormat       = "SPEEDMAP_LOG_FORMAT"
	EnvVarOutputFormat    = "SPEEDMAP_OUTPUT_FORMAT"
	EnvVarMetricsTextfile = "SPEEDMAP_METRICS_TEXTFILE"
	EnvVarDumpSpeedGraph  = "SPEEDMAP_DUMP_GRAPH"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Env:          Production,
		LogLevel:     "info",
		LogFormat:    "text",
		OutputFormat: "text",
	}
}

// Load builds a Config from defaults, the optional YAML file at path, a .env
// file in the working directory and SPEEDMAP_* environment variables, in
// increasing order of precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvVarEnv); v != "" {
		cfg.Env = Environment(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv(EnvVarLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvVarLogFormat); v != "" {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvVarOutputFormat); v != "" {
		cfg.OutputFormat = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvVarMetricsTextfile); v != "" {
		cfg.MetricsTextfile = v
	}
	if v := os.Getenv(EnvVarDumpSpeedGraph); v != "" {
		dump, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvVarDumpSpeedGraph, v)
		}
		cfg.DumpSpeedGraph = dump
	}
	return nil
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
