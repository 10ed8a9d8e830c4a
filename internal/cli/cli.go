package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/cricket-results/internal/apperr"
	"github.com/pfrederiksen/cricket-results/internal/config"
	"github.com/pfrederiksen/cricket-results/internal/logger"
	"github.com/pfrederiksen/cricket-results/internal/match"
	"github.com/pfrederiksen/cricket-results/internal/scorecard"
	"github.com/pfrederiksen/cricket-results/internal/scraper"
	"github.com/pfrederiksen/cricket-results/internal/spreadsheet"
	"github.com/pfrederiksen/cricket-results/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var (
		configFile string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "cricket-results",
		Short: "Turn a cricket tournament results page into JSON, a spreadsheet, and PDF scorecards",
		Long: `Fetches a tournament match-results page, groups the matches by team, and writes
matches.json, teams.json, a spreadsheet with one sheet per team, and one PDF
scorecard per team per match under the data folder.`,
		Example: `  cricket-results --excel=worldCup.xlsx --data-folder=scoreData \
    --source=https://www.espncricinfo.com/series/icc-cricket-world-cup-2019-1144415/match-results`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if verbose {
				cfg.Log.Level = "debug"
			}

			level, err := logger.ParseLevel(cfg.Log.Level)
			if err != nil {
				return &apperr.ConfigError{Setting: "log.level", Err: err}
			}
			logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

			if err := cfg.Validate(); err != nil {
				return err
			}

			return Run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	// Define flags
	cmd.Flags().String("source", "", "URL of the tournament match-results page (required)")
	cmd.Flags().String("excel", "", "Spreadsheet output path (required)")
	cmd.Flags().String("data-folder", "", "Folder for per-team scorecards; must not exist (required)")
	cmd.Flags().StringVar(&configFile, "config", "", "Config file (default ./cricket-results.yaml if present)")
	cmd.Flags().String("template", "scoreCard.pdf", "Scorecard PDF template")
	cmd.Flags().String("json-dir", ".", "Directory for matches.json and teams.json")
	cmd.Flags().String("on-malformed", "abort", "Match blocks missing team names or a result: abort or skip")
	cmd.Flags().Bool("skip-malformed", false, "Shorthand for --on-malformed=skip")
	cmd.Flags().Bool("from-json", false, "Regroup from an existing matches.json instead of fetching --source")
	cmd.Flags().Int("workers", 1, "Scorecards rendered at once")
	cmd.Flags().Int("timeout", 30, "HTTP timeout in seconds")
	cmd.Flags().String("format", "text", "Summary format: text or json")
	cmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	return cmd
}

// Run executes the whole pipeline for cfg and writes the summary to out
func Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	started := time.Now()

	store, err := storage.New(cfg.Output.JSONDir)
	if err != nil {
		return err
	}
	logger.Debug("JSON output directory ready", logger.Fields{"dir": store.Dir()})

	// Load the template before fetching so a bad template fails fast
	tmpl, err := scorecard.LoadTemplate(cfg.Scorecard.Template, cfg.Scorecard.Layout)
	if err != nil {
		return err
	}
	logger.Info("Loaded scorecard template", logger.Fields{
		"path":  cfg.Scorecard.Template,
		"pages": tmpl.Pages(),
	})

	matches, err := loadMatches(ctx, cfg, store)
	if err != nil {
		return err
	}

	teams := match.Group(matches)
	logger.SetGauge("teams", float64(len(teams)))
	logger.Info("Grouped matches by team", logger.Fields{
		"matches":      len(matches),
		"teams":        len(teams),
		"team_matches": match.MatchCount(teams),
	})

	if err := store.SaveTeams(teams); err != nil {
		return err
	}

	if err := spreadsheet.Write(cfg.Output.Excel, teams); err != nil {
		return err
	}

	paths, err := scorecard.NewWriter(tmpl, cfg.Scorecard.Workers).WriteAll(ctx, cfg.Output.DataFolder, teams)
	if err != nil {
		return err
	}
	logger.Info("Wrote scorecards", logger.Fields{
		"folder": cfg.Output.DataFolder,
		"files":  len(paths),
	})

	result := &OutputResult{
		CompletedAt: time.Now().UTC(),
		Source:      cfg.Source.URL,
		MatchCount:  len(matches),
		Teams:       summarize(teams),
		MatchesJSON: store.MatchesPath(),
		TeamsJSON:   store.TeamsPath(),
		Spreadsheet: cfg.Output.Excel,
		Scorecards:  paths,
	}
	if cfg.Source.FromJSON {
		result.Source = store.MatchesPath()
	}

	logger.RecordTiming("run", time.Since(started))
	logger.Debug("Run metrics", logger.Fields{"metrics": logger.GetMetricsSnapshot()})

	if err := WriteOutput(out, result, OutputFormat(cfg.Output.Format), cfg.Log.Level == "debug"); err != nil {
		return eris.Wrap(err, "writing output")
	}

	return nil
}

// loadMatches fetches and extracts the page, writing matches.json, or reads
// matches.json back in offline mode
func loadMatches(ctx context.Context, cfg *config.Config, store *storage.Storage) ([]match.Match, error) {
	if cfg.Source.FromJSON {
		matches, err := store.LoadMatches()
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded matches from JSON", logger.Fields{
			"path":    store.MatchesPath(),
			"matches": len(matches),
		})
		return matches, nil
	}

	policy, err := cfg.Source.MalformedPolicy()
	if err != nil {
		return nil, err
	}

	sc := scraper.New(cfg.Source.URL,
		scraper.WithTimeout(cfg.HTTP.Timeout()),
		scraper.WithUserAgent(cfg.HTTP.UserAgent),
		scraper.WithPolicy(policy),
	)

	logger.Info("Fetching results page", logger.Fields{
		"url":    sc.URL(),
		"policy": policy.String(),
	})

	matches, err := sc.FetchMatches(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("Extracted matches", logger.Fields{
		"url":     sc.URL(),
		"matches": len(matches),
	})

	if err := store.SaveMatches(matches); err != nil {
		return nil, err
	}

	return matches, nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Error("Run failed", logger.Fields{"kind": apperr.Kind(err)}, err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
