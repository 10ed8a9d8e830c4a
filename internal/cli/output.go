package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/cricket-results/internal/match"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// TeamSummary is one team's line in the run summary
type TeamSummary struct {
	Name    string `json:"name"`
	Matches int    `json:"matches"`
}

// OutputResult describes what a run produced
type OutputResult struct {
	CompletedAt time.Time     `json:"completed_at"`
	Source      string        `json:"source"`
	MatchCount  int           `json:"match_count"`
	Teams       []TeamSummary `json:"teams"`
	MatchesJSON string        `json:"matches_json"`
	TeamsJSON   string        `json:"teams_json"`
	Spreadsheet string        `json:"spreadsheet"`
	Scorecards  []string      `json:"scorecards"`
}

func summarize(teams []*match.Team) []TeamSummary {
	out := make([]TeamSummary, 0, len(teams))
	for _, team := range teams {
		out = append(out, TeamSummary{Name: team.Name, Matches: len(team.Matches)})
	}
	return out
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return eris.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.MatchCount == 0 {
		fmt.Fprintln(w, "No matches found.")
	} else {
		fmt.Fprintf(w, "%d matches, %d teams\n", result.MatchCount, len(result.Teams))
		for _, team := range result.Teams {
			fmt.Fprintf(w, "  %s: %d matches\n", team.Name, team.Matches)
		}
	}

	fmt.Fprintf(w, "\nWrote %s, %s\n", result.MatchesJSON, result.TeamsJSON)
	fmt.Fprintf(w, "Wrote %s\n", result.Spreadsheet)
	fmt.Fprintf(w, "Wrote %d scorecards\n", len(result.Scorecards))

	if verbose {
		for _, path := range result.Scorecards {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}

	return nil
}
