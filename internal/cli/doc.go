// Package cli implements the command-line interface for cricket-results.
//
// The cli package provides the Cobra-based CLI that fetches a tournament results
// page, extracts its matches, groups them per team, and writes matches.json,
// teams.json, a spreadsheet with one sheet per team, and a folder of PDF
// scorecards. A short run summary is printed as text or JSON.
package cli
