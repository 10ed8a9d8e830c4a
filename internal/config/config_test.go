package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/cricket-results/internal/apperr"
	"github.com/pfrederiksen/cricket-results/internal/scorecard"
	"github.com/pfrederiksen/cricket-results/internal/scraper"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("source", "", "")
	fs.String("excel", "", "")
	fs.String("data-folder", "", "")
	fs.Int("workers", 1, "")
	fs.String("on-malformed", "abort", "")
	fs.Bool("skip-malformed", false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Output.JSONDir)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "scoreCard.pdf", cfg.Scorecard.Template)
	assert.Equal(t, 1, cfg.Scorecard.Workers)
	assert.Equal(t, scorecard.DefaultLayout(), cfg.Scorecard.Layout)
	assert.Equal(t, 30, cfg.HTTP.TimeoutSecs)
	assert.Equal(t, "info", cfg.Log.Level)

	policy, err := cfg.Source.MalformedPolicy()
	require.NoError(t, err)
	assert.Equal(t, scraper.PolicyAbort, policy)
}

func TestLoad_MalformedPolicy(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want scraper.Policy
	}{
		{"default", nil, scraper.PolicyAbort},
		{"policy flag", []string{"--on-malformed", "skip"}, scraper.PolicySkip},
		{"skip shorthand", []string{"--skip-malformed"}, scraper.PolicySkip},
		{"shorthand wins", []string{"--on-malformed", "abort", "--skip-malformed"}, scraper.PolicySkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			fs := newFlags()
			require.NoError(t, fs.Parse(tt.args))

			cfg, err := Load("", fs)
			require.NoError(t, err)

			got, err := cfg.Source.MalformedPolicy()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cricket-results.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  url: https://example.com/from-file
output:
  excel: file.xlsx
scorecard:
  workers: 3
  layout:
    result:
      x: 100
      y: 200
      size: 24
`), 0644))

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--source", "https://example.com/from-flag", "--data-folder", "scoreData"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/from-flag", cfg.Source.URL)
	assert.Equal(t, "file.xlsx", cfg.Output.Excel)
	assert.Equal(t, "scoreData", cfg.Output.DataFolder)
	assert.Equal(t, 3, cfg.Scorecard.Workers)
	assert.Equal(t, scorecard.Field{X: 100, Y: 200, Size: 24}, cfg.Scorecard.Layout.Result)
	assert.Equal(t, scorecard.DefaultLayout().Team, cfg.Scorecard.Layout.Team)
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CRICKET_OUTPUT_EXCEL", "env.xlsx")
	t.Setenv("CRICKET_LOG_LEVEL", "debug")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "env.xlsx", cfg.Output.Excel)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingNamedFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Equal(t, "config", apperr.Kind(err))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Source: SourceConfig{URL: "https://example.com"},
			Output: OutputConfig{Excel: "out.xlsx", DataFolder: "scoreData", Format: "text"},
			HTTP:   HTTPConfig{TimeoutSecs: 30},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing source", func(c *Config) { c.Source.URL = "" }, true},
		{"from json needs no source", func(c *Config) { c.Source.URL = ""; c.Source.FromJSON = true }, false},
		{"missing excel", func(c *Config) { c.Output.Excel = "" }, true},
		{"missing data folder", func(c *Config) { c.Output.DataFolder = "" }, true},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"bad timeout", func(c *Config) { c.HTTP.TimeoutSecs = 0 }, true},
		{"skip policy", func(c *Config) { c.Source.Policy = "skip" }, false},
		{"bad policy", func(c *Config) { c.Source.Policy = "ignore" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "config", apperr.Kind(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
