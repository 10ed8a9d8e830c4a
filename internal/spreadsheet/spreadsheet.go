// Package spreadsheet writes the team index to an XLSX workbook, one sheet per team.
package spreadsheet

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/pfrederiksen/cricket-results/internal/apperr"
	"github.com/pfrederiksen/cricket-results/internal/logger"
	"github.com/pfrederiksen/cricket-results/internal/match"
)

const (
	// HeaderColor is the ARGB font colour of the header row
	HeaderColor = "FF498AFF"

	// EmptySheet names the only sheet of a workbook with no teams, since XLSX
	// requires at least one
	EmptySheet = "No matches"

	maxSheetName = 31
)

// Header is the first row of every team sheet
var Header = []string{"Opponent", "Self-Score", "Opponent-Score", "Result"}

// Write builds the workbook for teams and saves it to path
func Write(path string, teams []*match.Team) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		logger.Warn("Spreadsheet is written as XLSX regardless of extension", logger.Fields{
			"path":      path,
			"extension": ext,
		})
	}

	f, err := Build(teams)
	if err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return &apperr.IOError{Op: "write", Path: path, Err: err}
	}

	logger.Info("Wrote spreadsheet", logger.Fields{
		"path":   path,
		"sheets": len(f.Sheets),
	})

	return nil
}

// Build creates one sheet per team, in index order, with a styled header row
// and a row per match
func Build(teams []*match.Team) (*xlsx.File, error) {
	f := xlsx.NewFile()
	header := headerStyle()
	used := make(map[string]bool)

	if len(teams) == 0 {
		if _, err := addSheet(f, EmptySheet, header); err != nil {
			return nil, err
		}
		return f, nil
	}

	for _, team := range teams {
		sheet, err := addSheet(f, SheetName(team.Name, used), header)
		if err != nil {
			return nil, err
		}

		for _, tm := range team.Matches {
			row := sheet.AddRow()
			for _, value := range []string{tm.Opponent, tm.SelfScore, tm.OpponentScore, tm.Result} {
				row.AddCell().SetString(value)
			}
		}
	}

	return f, nil
}

// addSheet adds a sheet whose first row is the styled header
func addSheet(f *xlsx.File, name string, header *xlsx.Style) (*xlsx.Sheet, error) {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: add sheet %q", name)
	}

	row := sheet.AddRow()
	for _, title := range Header {
		cell := row.AddCell()
		cell.SetString(title)
		cell.SetStyle(header)
	}

	return sheet, nil
}

func headerStyle() *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font = *xlsx.NewFont(11, "Calibri")
	style.Font.Bold = true
	style.Font.Color = HeaderColor
	style.ApplyFont = true
	return style
}

// SheetName returns the team name as a valid, unused worksheet name.
// Characters XLSX forbids are replaced, the name is cut to 31 characters, and
// a numeric suffix is added when the result is already in used.
func SheetName(team string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, team)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Team"
	}
	name = truncate(name, maxSheetName)

	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncate(name, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true

	return candidate
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
