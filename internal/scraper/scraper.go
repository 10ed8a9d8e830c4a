package scraper

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/cricket-results/internal/apperr"
	"github.com/pfrederiksen/cricket-results/internal/logger"
	"github.com/pfrederiksen/cricket-results/internal/match"
)

const (
	UserAgent = "cricket-results/1.0 (github.com/pfrederiksen/cricket-results)"
	Timeout   = 30 * time.Second
)

// Selectors for the match-results page layout
const (
	BlockSelector  = "div.match-score-block"
	TeamSelector   = "div.name-detail > p.name"
	ScoreSelector  = "div.score-detail > span.score"
	ResultSelector = "div.status-text > span"
)

// Policy decides what happens to a match block with missing team names or result
type Policy string

const (
	// PolicyAbort fails the whole run on the first malformed block
	PolicyAbort Policy = "abort"
	// PolicySkip drops malformed blocks and logs a warning
	PolicySkip Policy = "skip"
)

// Scraper handles fetching and parsing a tournament results page
type Scraper struct {
	client    *http.Client
	url       string
	userAgent string
	policy    Policy
}

// Option configures a Scraper
type Option func(*Scraper)

// WithTimeout sets the HTTP client timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d <= 0 {
			return
		}
		client := *s.client
		client.Timeout = d
		s.client = &client
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithPolicy sets the malformed block policy
func WithPolicy(p Policy) Option {
	return func(s *Scraper) {
		s.policy = p
	}
}

// New creates a new Scraper for the results page at url
func New(url string, opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:       url,
		userAgent: UserAgent,
		policy:    PolicyAbort,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the source page address
func (s *Scraper) URL() string {
	return s.url
}

// FetchMatches fetches the results page and extracts its matches
func (s *Scraper) FetchMatches(ctx context.Context) ([]match.Match, error) {
	body, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return s.ParseMatches(body)
}

// Fetch performs the single GET of the results page. The caller closes the body.
func (s *Scraper) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &apperr.FetchError{URL: s.url, Err: eris.Wrap(err, "creating request")}
	}
	req.Header.Set("User-Agent", s.userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	logger.RecordTiming("stage.fetch", time.Since(start))
	if err != nil {
		return nil, &apperr.FetchError{URL: s.url, Err: eris.Wrap(err, "fetching page")}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &apperr.FetchError{URL: s.url, StatusCode: resp.StatusCode}
	}

	logger.Debug("Fetched results page", logger.Fields{
		"url":    s.url,
		"status": resp.StatusCode,
	})

	return resp.Body, nil
}

// ParseMatches extracts one match per match block, in document order
func (s *Scraper) ParseMatches(r io.Reader) ([]match.Match, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &apperr.ParseError{Block: -1, Err: eris.Wrap(err, "parsing HTML")}
	}

	matches := make([]match.Match, 0)

	var parseErr error
	doc.Find(BlockSelector).EachWithBreak(func(i int, block *goquery.Selection) bool {
		m, err := parseBlock(i, block)
		if err == nil {
			matches = append(matches, m)
			return true
		}

		if s.policy == PolicySkip {
			logger.Warn("Skipping malformed match block", logger.Fields{
				"block": i,
				"error": err.Error(),
			})
			logger.IncrCounter("blocks.skipped")
			return true
		}

		parseErr = err
		return false
	})
	if parseErr != nil {
		return nil, parseErr
	}

	logger.SetGauge("matches.extracted", float64(len(matches)))

	return matches, nil
}

// parseBlock builds a Match from one match-score block
func parseBlock(i int, block *goquery.Selection) (match.Match, error) {
	teams := block.Find(TeamSelector)
	if teams.Length() < 2 {
		return match.Match{}, &apperr.ParseError{
			Block: i,
			Field: "team names",
			Err:   eris.Errorf("found %d team name elements, want 2", teams.Length()),
		}
	}

	result := block.Find(ResultSelector).First()
	if result.Length() == 0 {
		return match.Match{}, &apperr.ParseError{
			Block: i,
			Field: "result",
			Err:   eris.New("no result element"),
		}
	}

	team1Score, team2Score := scores(i, block.Find(ScoreSelector))

	return match.NewMatch(
		teams.Eq(0).Text(),
		teams.Eq(1).Text(),
		team1Score,
		team2Score,
		result.Text(),
	), nil
}

// scores maps zero, one, or two score elements onto the two score strings.
// A single score belongs to the first team. Beyond two, only the first two are used.
func scores(i int, sel *goquery.Selection) (string, string) {
	switch n := sel.Length(); {
	case n == 0:
		return "", ""
	case n == 1:
		return sel.Eq(0).Text(), ""
	default:
		if n > 2 {
			logger.Warn("Ignoring extra score elements", logger.Fields{
				"block":  i,
				"scores": n,
			})
		}
		return sel.Eq(0).Text(), sel.Eq(1).Text()
	}
}

// String implements fmt.Stringer for log fields
func (p Policy) String() string {
	return string(p)
}

// ParsePolicy converts a configuration value to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyAbort, "":
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return PolicyAbort, &apperr.ConfigError{
			Setting: "source.policy",
			Err:     eris.Errorf("unknown malformed block policy %q (must be 'abort' or 'skip')", s),
		}
	}
}
