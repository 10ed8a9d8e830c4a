// Package storage provides JSON persistence for extracted matches and the team index.
//
// Two files are written to the output directory: matches.json holds the raw
// matches in page order, and teams.json holds the grouped teams with their
// perspective-relative match lists. Both are JSON arrays. The files can be read
// back to regroup and re-render without fetching the page again.
package storage
