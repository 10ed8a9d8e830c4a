package scorecard

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/cricket-results/internal/apperr"
	"github.com/pfrederiksen/cricket-results/internal/logger"
	"github.com/pfrederiksen/cricket-results/internal/match"
)

// Writer renders a scorecard for every match of every team
type Writer struct {
	template *Template
	workers  int
}

// NewWriter creates a Writer. Workers below one are treated as one, which
// renders the scorecards sequentially.
func NewWriter(t *Template, workers int) *Writer {
	if workers < 1 {
		workers = 1
	}
	return &Writer{
		template: t,
		workers:  workers,
	}
}

type job struct {
	team  string
	match match.TeamMatch
	path  string
}

// WriteAll creates dataFolder with one directory per team and one PDF per
// match inside it, returning the written paths in team order, then match order.
// dataFolder must not exist yet. WriteAll returns once every file is written or
// the first failure has stopped the remaining work.
func (w *Writer) WriteAll(ctx context.Context, dataFolder string, teams []*match.Team) ([]string, error) {
	jobs, err := plan(dataFolder, teams)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return w.write(j)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.RecordTiming("stage.scorecards", time.Since(start))

	paths := make([]string, len(jobs))
	for i, j := range jobs {
		paths[i] = j.path
	}
	return paths, nil
}

// plan creates the folders and assigns every scorecard its path.
// Directory creation and naming happen sequentially so paths are deterministic.
func plan(dataFolder string, teams []*match.Team) ([]job, error) {
	if err := os.Mkdir(dataFolder, 0755); err != nil {
		return nil, &apperr.IOError{Op: "mkdir", Path: dataFolder, Err: err}
	}

	var jobs []job
	teamDirs := make(map[string]bool)

	for _, team := range teams {
		dir := filepath.Join(dataFolder, unique(FileName(team.Name), teamDirs))
		if err := os.Mkdir(dir, 0755); err != nil {
			return nil, &apperr.IOError{Op: "mkdir", Path: dir, Err: err}
		}

		files := make(map[string]bool)
		for _, tm := range team.Matches {
			name := unique(FileName(tm.Opponent), files)
			jobs = append(jobs, job{
				team:  team.Name,
				match: tm,
				path:  filepath.Join(dir, name+".pdf"),
			})
		}
	}

	return jobs, nil
}

func (w *Writer) write(j job) error {
	var buf bytes.Buffer
	if err := w.template.Render(&buf, j.team, j.match); err != nil {
		logger.Error("Rendering scorecard failed", logger.Fields{
			"team":     j.team,
			"opponent": j.match.Opponent,
		}, err)
		return &apperr.IOError{Op: "render", Path: j.path, Err: err}
	}

	if err := os.WriteFile(j.path, buf.Bytes(), 0644); err != nil {
		return &apperr.IOError{Op: "write", Path: j.path, Err: err}
	}

	logger.IncrCounter("scorecards.written")
	logger.Debug("Wrote scorecard", logger.Fields{
		"team":     j.team,
		"opponent": j.match.Opponent,
		"path":     j.path,
	})

	return nil
}

// FileName makes a team name usable as a single path element
func FileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator || r == 0 {
			return '-'
		}
		return r
	}, name)

	switch strings.TrimSpace(name) {
	case "", ".", "..":
		return "_" + name
	}
	return name
}

// unique returns name, or the first "name (n)" not yet handed out, and
// records the result in seen
func unique(name string, seen map[string]bool) string {
	candidate := name
	for n := 2; seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
	seen[candidate] = true
	return candidate
}
