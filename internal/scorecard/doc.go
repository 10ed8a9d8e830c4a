// Package scorecard renders per-match PDF scorecards from a template.
//
// Each scorecard is the template's first page with five text overlays: the
// team's name, the opponent's name, both scores, and the result. Scorecards are
// written to <dataFolder>/<team>/<opponent>.pdf, one per match per team.
package scorecard
