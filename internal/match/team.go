package match

// Index is a name-keyed collection of teams that iterates in insertion order
type Index struct {
	teams  []*Team
	byName map[string]*Team
}

// NewIndex creates an empty Index
func NewIndex() *Index {
	return &Index{
		byName: make(map[string]*Team),
	}
}

// Register adds a team with an empty match list unless one with the same
// name already exists. Names are compared exactly.
func (idx *Index) Register(name string) *Team {
	if team, ok := idx.byName[name]; ok {
		return team
	}

	team := &Team{
		Name:    name,
		Matches: make([]TeamMatch, 0),
	}
	idx.teams = append(idx.teams, team)
	idx.byName[name] = team
	return team
}

// Lookup returns the team registered under name
func (idx *Index) Lookup(name string) (*Team, bool) {
	team, ok := idx.byName[name]
	return team, ok
}

// Teams returns the teams in the order they were first registered
func (idx *Index) Teams() []*Team {
	return idx.teams
}

// Group builds the team index for a list of matches.
//
// Every team is registered before any match is attached, so both lookups in
// the attachment pass always succeed. Each match adds exactly one TeamMatch to
// each of its two teams.
func Group(matches []Match) []*Team {
	idx := NewIndex()

	for _, m := range matches {
		idx.Register(m.Team1)
		idx.Register(m.Team2)
	}

	for _, m := range matches {
		team1, _ := idx.Lookup(m.Team1)
		team2, _ := idx.Lookup(m.Team2)

		self, _ := m.Perspective(m.Team1)
		team1.Matches = append(team1.Matches, self)

		other, _ := m.Perspective(m.Team2)
		team2.Matches = append(team2.Matches, other)
	}

	return idx.Teams()
}

// MatchCount returns the total number of TeamMatch entries across teams
func MatchCount(teams []*Team) int {
	n := 0
	for _, team := range teams {
		n += len(team.Matches)
	}
	return n
}
