// Package config loads cricket-results settings from an optional YAML file,
// CRICKET_* environment variables, and command-line flags, in increasing order
// of precedence.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/cricket-results/internal/apperr"
	"github.com/pfrederiksen/cricket-results/internal/scorecard"
	"github.com/pfrederiksen/cricket-results/internal/scraper"
)

// Config holds the full application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Scorecard ScorecardConfig `yaml:"scorecard" mapstructure:"scorecard"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceConfig locates the results page.
type SourceConfig struct {
	URL           string `yaml:"url" mapstructure:"url"`
	FromJSON      bool   `yaml:"from_json" mapstructure:"from_json"`
	Policy        string `yaml:"policy" mapstructure:"policy"`
	SkipMalformed bool   `yaml:"skip_malformed" mapstructure:"skip_malformed"`
}

// MalformedPolicy returns the malformed block policy. skip_malformed is
// shorthand for policy "skip" and wins over it.
func (c SourceConfig) MalformedPolicy() (scraper.Policy, error) {
	if c.SkipMalformed {
		return scraper.PolicySkip, nil
	}
	return scraper.ParsePolicy(c.Policy)
}

// OutputConfig names the artifacts.
type OutputConfig struct {
	Excel      string `yaml:"excel" mapstructure:"excel"`
	DataFolder string `yaml:"data_folder" mapstructure:"data_folder"`
	JSONDir    string `yaml:"json_dir" mapstructure:"json_dir"`
	Format     string `yaml:"format" mapstructure:"format"`
}

// ScorecardConfig configures PDF generation.
type ScorecardConfig struct {
	Template string           `yaml:"template" mapstructure:"template"`
	Workers  int              `yaml:"workers" mapstructure:"workers"`
	Layout   scorecard.Layout `yaml:"layout" mapstructure:"layout"`
}

// HTTPConfig configures the page fetch.
type HTTPConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the fetch timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"source":         "source.url",
	"from-json":      "source.from_json",
	"on-malformed":   "source.policy",
	"skip-malformed": "source.skip_malformed",
	"excel":          "output.excel",
	"data-folder":    "output.data_folder",
	"json-dir":       "output.json_dir",
	"format":         "output.format",
	"template":       "scorecard.template",
	"workers":        "scorecard.workers",
	"timeout":        "http.timeout_secs",
	"log-level":      "log.level",
}

// Load reads configuration from file, environment, and flags.
// configFile may be empty, in which case cricket-results.yaml in the working
// directory is used if present. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("cricket-results")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("CRICKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	layout := scorecard.DefaultLayout()
	v.SetDefault("source.url", "")
	v.SetDefault("source.from_json", false)
	v.SetDefault("source.policy", string(scraper.PolicyAbort))
	v.SetDefault("source.skip_malformed", false)
	v.SetDefault("output.excel", "")
	v.SetDefault("output.data_folder", "")
	v.SetDefault("output.json_dir", ".")
	v.SetDefault("output.format", "text")
	v.SetDefault("scorecard.template", "scoreCard.pdf")
	v.SetDefault("scorecard.workers", 1)
	setFieldDefaults(v, "scorecard.layout.team", layout.Team)
	setFieldDefaults(v, "scorecard.layout.opponent", layout.Opponent)
	setFieldDefaults(v, "scorecard.layout.self_score", layout.SelfScore)
	setFieldDefaults(v, "scorecard.layout.opponent_score", layout.OpponentScore)
	setFieldDefaults(v, "scorecard.layout.result", layout.Result)
	v.SetDefault("http.timeout_secs", 30)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("log.level", "info")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, &apperr.ConfigError{Setting: key, Err: eris.Wrapf(err, "bind flag %s", name)}
				}
			}
		}
	}

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, &apperr.ConfigError{Err: eris.Wrap(err, "read file")}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &apperr.ConfigError{Err: eris.Wrap(err, "unmarshal")}
	}

	return &cfg, nil
}

func setFieldDefaults(v *viper.Viper, key string, f scorecard.Field) {
	v.SetDefault(key+".x", f.X)
	v.SetDefault(key+".y", f.Y)
	v.SetDefault(key+".size", f.Size)
}

// Validate checks that the required inputs are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Source.URL == "" && !c.Source.FromJSON {
		missing = append(missing, "source")
	}
	if c.Output.Excel == "" {
		missing = append(missing, "excel")
	}
	if c.Output.DataFolder == "" {
		missing = append(missing, "data-folder")
	}
	if len(missing) > 0 {
		return &apperr.ConfigError{Err: eris.Errorf("missing required inputs: %s", strings.Join(missing, ", "))}
	}

	switch c.Output.Format {
	case "text", "json":
	default:
		return &apperr.ConfigError{
			Setting: "output.format",
			Err:     eris.Errorf("invalid format: %s (must be 'text' or 'json')", c.Output.Format),
		}
	}

	if c.HTTP.TimeoutSecs <= 0 {
		return &apperr.ConfigError{
			Setting: "http.timeout_secs",
			Err:     eris.Errorf("invalid HTTP timeout: %d seconds", c.HTTP.TimeoutSecs),
		}
	}

	if _, err := c.Source.MalformedPolicy(); err != nil {
		return err
	}

	return nil
}
