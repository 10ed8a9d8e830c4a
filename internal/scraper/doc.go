// Package scraper provides HTTP fetching and HTML parsing for cricket tournament results pages.
//
// The scraper fetches a results page and extracts one match per match-score block:
// the two team names in page order, up to two score strings, and the result text.
// Text is kept exactly as it appears on the page, since team identity downstream is
// exact string equality. Blocks that lack two team names or a result are either a
// fatal ParseError or skipped with a warning, depending on the configured Policy.
package scraper
