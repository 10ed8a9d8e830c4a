package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/cricket-results/internal/apperr"
	"github.com/pfrederiksen/cricket-results/internal/match"
)

const (
	MatchesFile = "matches.json"
	TeamsFile   = "teams.json"
)

// Storage handles persistence of matches and teams
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	if dataDir == "" {
		dataDir = "."
	}

	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, &apperr.IOError{Op: "resolve", Path: dataDir, Err: eris.Wrap(err, "getting home directory")}
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, &apperr.IOError{Op: "mkdir", Path: dataDir, Err: err}
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the directory the files are written to
func (s *Storage) Dir() string {
	return s.dataDir
}

// MatchesPath returns the path of matches.json
func (s *Storage) MatchesPath() string {
	return filepath.Join(s.dataDir, MatchesFile)
}

// TeamsPath returns the path of teams.json
func (s *Storage) TeamsPath() string {
	return filepath.Join(s.dataDir, TeamsFile)
}

// SaveMatches writes matches.json
func (s *Storage) SaveMatches(matches []match.Match) error {
	if matches == nil {
		matches = []match.Match{}
	}
	return s.save(s.MatchesPath(), matches)
}

// SaveTeams writes teams.json
func (s *Storage) SaveTeams(teams []*match.Team) error {
	if teams == nil {
		teams = []*match.Team{}
	}
	return s.save(s.TeamsPath(), teams)
}

// LoadMatches reads matches.json
func (s *Storage) LoadMatches() ([]match.Match, error) {
	var matches []match.Match
	if err := s.load(s.MatchesPath(), &matches); err != nil {
		return nil, err
	}

	for i, m := range matches {
		if err := m.Validate(); err != nil {
			return nil, &apperr.ParseError{Block: i, Field: "team names", Err: err}
		}
	}

	return matches, nil
}

func (s *Storage) save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &apperr.IOError{Op: "encode", Path: path, Err: eris.Wrap(err, "encoding JSON")}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return &apperr.IOError{Op: "write", Path: path, Err: err}
	}

	return nil
}

func (s *Storage) load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &apperr.IOError{Op: "read", Path: path, Err: err}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return &apperr.ParseError{Block: -1, Err: eris.Wrapf(err, "decoding %s", filepath.Base(path))}
	}

	return nil
}
