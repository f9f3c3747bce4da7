// Package config loads faculty-scrape settings from an optional YAML file,
// FACULTY_* environment variables, and command-line flags.
package config

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultBaseURL is the full-time faculty directory the built-in rules target.
const DefaultBaseURL = "https://engineering.buffalo.edu/computer-science-engineering/people/faculty-directory/full-time.html"

// Config holds the full application configuration.
type Config struct {
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
}

// ScrapeConfig selects the site, pages, and rules.
type ScrapeConfig struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Pages       []string      `yaml:"pages" mapstructure:"pages"`
	Letters     string        `yaml:"letters" mapstructure:"letters"`
	LetterParam string        `yaml:"letter_param" mapstructure:"letter_param"`
	RulesFile   string        `yaml:"rules_file" mapstructure:"rules_file"`
	InputDir    string        `yaml:"input_dir" mapstructure:"input_dir"`
	Workers     int           `yaml:"workers" mapstructure:"workers"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
	Dedupe      bool          `yaml:"dedupe" mapstructure:"dedupe"`
	NoProfiles  bool          `yaml:"no_profiles" mapstructure:"no_profiles"`
}

// OutputConfig selects where results go. Empty paths are skipped.
type OutputConfig struct {
	CSV      string `yaml:"csv" mapstructure:"csv"`
	XLSX     string `yaml:"xlsx" mapstructure:"xlsx"`
	Table    bool   `yaml:"table" mapstructure:"table"`
	MaxWidth int    `yaml:"max_width" mapstructure:"max_width"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json | console
}

// MetricsConfig enables the Datadog backend.
type MetricsConfig struct {
	Datadog    bool          `yaml:"datadog" mapstructure:"datadog"`
	JobName    string        `yaml:"job_name" mapstructure:"job_name"`
	Tags       string        `yaml:"tags" mapstructure:"tags"` // "env:prod,site:ub"
	FlushEvery time.Duration `yaml:"flush_every" mapstructure:"flush_every"`
}

// StoreConfig selects an optional database sink. An empty Kind disables it.
type StoreConfig struct {
	Kind  string `yaml:"kind" mapstructure:"kind"`
	DSN   string `yaml:"dsn" mapstructure:"dsn"`
	Table string `yaml:"table" mapstructure:"table"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"url":          "scrape.base_url",
	"page":         "scrape.pages",
	"letters":      "scrape.letters",
	"letter-param": "scrape.letter_param",
	"rules":        "scrape.rules_file",
	"input-dir":    "scrape.input_dir",
	"workers":      "scrape.workers",
	"timeout":      "scrape.timeout",
	"user-agent":   "scrape.user_agent",
	"dedupe":       "scrape.dedupe",
	"no-profiles":  "scrape.no_profiles",
	"csv":          "output.csv",
	"xlsx":         "output.xlsx",
	"table":        "output.table",
	"max-width":    "output.max_width",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"datadog":      "metrics.datadog",
	"store":        "store.kind",
	"dsn":          "store.dsn",
	"store-table":  "store.table",
}

// Load reads configuration. path may be empty, in which case ./faculty.yaml
// is used if present. Flags present in flags (it may be nil) override file and
// environment values only when explicitly set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("faculty")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FACULTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("scrape.base_url", DefaultBaseURL)
	v.SetDefault("scrape.letter_param", "letter")
	v.SetDefault("scrape.workers", 10)
	v.SetDefault("scrape.timeout", 20*time.Second)
	v.SetDefault("output.max_width", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.job_name", "faculty-scrape")
	v.SetDefault("metrics.flush_every", time.Minute)
	v.SetDefault("store.table", "faculty_records")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, eris.Wrapf(err, "config: bind flag %s", name)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// InitLogger builds a zap logger for cfg that writes to stderr.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	return NewLogger(cfg, os.Stderr)
}

// NewLogger builds a zap logger for cfg that writes to w. Format "console"
// selects the development encoder; anything else is JSON.
func NewLogger(cfg LogConfig, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}

	var enc zapcore.Encoder
	if cfg.Format == "console" {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
