// Package match provides the match and team records produced from a
// tournament results page.
//
// A Match is one fixture as it appears on the page, in document order. Group
// turns the list of matches into a Team index: one Team per distinct team name,
// in first-seen order, each holding a TeamMatch for every fixture it played with
// the scores reoriented to that team's side.
package match
