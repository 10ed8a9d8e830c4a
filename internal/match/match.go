package match

import (
	"github.com/rotisserie/eris"
)

// Match represents one fixture scraped from the results page
type Match struct {
	Team1      string `json:"t1"`
	Team2      string `json:"t2"`
	Team1Score string `json:"t1s"`
	Team2Score string `json:"t2s"`
	Result     string `json:"result"`
}

// TeamMatch is one team's view of a Match
type TeamMatch struct {
	Opponent      string `json:"vs"`
	SelfScore     string `json:"selfScore"`
	OpponentScore string `json:"oppScore"`
	Result        string `json:"result"`
}

// Team holds every match a team played, in processing order
type Team struct {
	Name    string      `json:"name"`
	Matches []TeamMatch `json:"matches"`
}

// NewMatch creates a Match from the two team names, their scores, and the result text
func NewMatch(team1, team2, team1Score, team2Score, result string) Match {
	return Match{
		Team1:      team1,
		Team2:      team2,
		Team1Score: team1Score,
		Team2Score: team2Score,
		Result:     result,
	}
}

// Validate reports whether both team names are present
func (m Match) Validate() error {
	if m.Team1 == "" {
		return eris.New("match: first team name is empty")
	}
	if m.Team2 == "" {
		return eris.New("match: second team name is empty")
	}
	return nil
}

// Perspective returns the match as seen from team's side.
// Scores are swapped when team is the second side; the result is shared.
func (m Match) Perspective(team string) (TeamMatch, bool) {
	switch team {
	case m.Team1:
		return TeamMatch{
			Opponent:      m.Team2,
			SelfScore:     m.Team1Score,
			OpponentScore: m.Team2Score,
			Result:        m.Result,
		}, true
	case m.Team2:
		return TeamMatch{
			Opponent:      m.Team1,
			SelfScore:     m.Team2Score,
			OpponentScore: m.Team1Score,
			Result:        m.Result,
		}, true
	default:
		return TeamMatch{}, false
	}
}
