package scorecard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/cricket-results/internal/apperr"
	"github.com/pfrederiksen/cricket-results/internal/match"
	"github.com/pfrederiksen/cricket-results/internal/scorecard/scorecardtest"
)

func writeTemplate(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoreCard.pdf")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func loadDefault(t *testing.T) *Template {
	t.Helper()
	tmpl, err := LoadTemplate(writeTemplate(t, scorecardtest.A4()), DefaultLayout())
	require.NoError(t, err)
	return tmpl
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r.NumPage()
}

// pageText returns the decoded content streams of page 1 together with every
// form XObject it draws, so stamped text operators can be matched directly
func pageText(t *testing.T, data []byte) string {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var b strings.Builder
	read := func(v pdf.Value) {
		rc := v.Reader()
		defer rc.Close()
		_, err := io.Copy(&b, rc)
		require.NoError(t, err)
		b.WriteByte('\n')
	}

	var forms func(res pdf.Value, depth int)
	forms = func(res pdf.Value, depth int) {
		if depth > 4 {
			return
		}
		xobjects := res.Key("XObject")
		for _, name := range xobjects.Keys() {
			x := xobjects.Key(name)
			if x.Key("Subtype").Name() != "Form" {
				continue
			}
			read(x)
			forms(x.Key("Resources"), depth+1)
		}
	}

	page := r.Page(1)
	contents := page.V.Key("Contents")
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			read(contents.Index(i))
		}
	} else {
		read(contents)
	}
	forms(page.Resources(), 0)

	return b.String()
}

func TestLoadTemplate(t *testing.T) {
	tmpl := loadDefault(t)
	assert.Equal(t, 1, tmpl.Pages())
}

func TestLoadTemplate_Errors(t *testing.T) {
	small := DefaultLayout()
	zero := DefaultLayout()
	zero.Result.Size = 0

	tests := []struct {
		name     string
		data     []byte
		layout   Layout
		missing  bool
		wantKind string
	}{
		{name: "missing file", missing: true, layout: DefaultLayout(), wantKind: "io"},
		{name: "not a PDF", data: []byte("<html></html>"), layout: DefaultLayout(), wantKind: "io"},
		{name: "overlay off the page", data: scorecardtest.BlankPDF(595, 842), layout: small, wantKind: "config"},
		{name: "zero font size", data: scorecardtest.A4(), layout: zero, wantKind: "config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scoreCard.pdf")
			if !tt.missing {
				path = writeTemplate(t, tt.data)
			}

			_, err := LoadTemplate(path, tt.layout)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.Kind(err))

			var configErr *apperr.ConfigError
			if errors.As(err, &configErr) {
				assert.True(t, strings.HasPrefix(configErr.Setting, "scorecard.layout."), configErr.Setting)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tmpl := loadDefault(t)

	var buf bytes.Buffer
	err := tmpl.Render(&buf, "India", match.TeamMatch{
		Opponent:      "Pakistan",
		SelfScore:     "336/5",
		OpponentScore: "212/6",
		Result:        "India won by 89 runs (DLS method)",
	})
	require.NoError(t, err)

	out := buf.Bytes()
	assert.Equal(t, 1, pageCount(t, out))
	assert.NotEqual(t, scorecardtest.A4(), out)

	stamped, err := api.HasWatermarks(bytes.NewReader(out), model.NewDefaultConfiguration())
	require.NoError(t, err)
	assert.True(t, stamped)
}

func TestRender_Overlays(t *testing.T) {
	tmpl := loadDefault(t)

	var buf bytes.Buffer
	err := tmpl.Render(&buf, "India", match.TeamMatch{
		Opponent:      "Pakistan",
		SelfScore:     "336/5",
		OpponentScore: "212/6",
		Result:        "India won by 89 runs",
	})
	require.NoError(t, err)

	text := pageText(t, buf.Bytes())

	for _, want := range []string{
		"(India) Tj",
		"(Pakistan) Tj",
		"(336/5) Tj",
		"(212/6) Tj",
		"(India won by 89 runs) Tj",
		"340 2330",
		"340 1730",
		"1535 2330",
		"1535 1730",
		"573 1300",
	} {
		assert.Contains(t, text, want)
	}
}

func TestRender_EmptyScores(t *testing.T) {
	tmpl := loadDefault(t)

	var buf bytes.Buffer
	err := tmpl.Render(&buf, "England", match.TeamMatch{
		Opponent: "Australia",
		Result:   "Match abandoned without a ball bowled",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pageCount(t, buf.Bytes()))

	text := pageText(t, buf.Bytes())
	assert.Contains(t, text, "(England) Tj")
	assert.Contains(t, text, "(Australia) Tj")
	assert.Contains(t, text, "(Match abandoned without a ball bowled) Tj")
	assert.NotContains(t, text, "1535 2330")
	assert.NotContains(t, text, "1535 1730")
}

func TestWriteAll(t *testing.T) {
	teams := match.Group([]match.Match{
		match.NewMatch("India", "Pakistan", "336/5", "212/6", "India won"),
		match.NewMatch("England", "India", "337/7", "306/5", "England won"),
		match.NewMatch("India", "Pakistan", "", "", "No result"),
	})

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			dataFolder := filepath.Join(t.TempDir(), "scoreData")

			paths, err := NewWriter(loadDefault(t), workers).WriteAll(context.Background(), dataFolder, teams)
			require.NoError(t, err)

			want := []string{
				filepath.Join(dataFolder, "India", "Pakistan.pdf"),
				filepath.Join(dataFolder, "India", "England.pdf"),
				filepath.Join(dataFolder, "India", "Pakistan (2).pdf"),
				filepath.Join(dataFolder, "Pakistan", "India.pdf"),
				filepath.Join(dataFolder, "Pakistan", "India (2).pdf"),
				filepath.Join(dataFolder, "England", "India.pdf"),
			}
			assert.Equal(t, want, paths)

			for _, p := range paths {
				data, err := os.ReadFile(p)
				require.NoError(t, err, p)
				assert.Equal(t, 1, pageCount(t, data), p)
			}
		})
	}
}

func TestWriteAll_SuffixCollisions(t *testing.T) {
	teams := match.Group([]match.Match{
		match.NewMatch("India", "X", "", "", "India won"),
		match.NewMatch("India", "X", "", "", "X won"),
		match.NewMatch("India", "X (2)", "", "", "No result"),
		match.NewMatch("A/B", "India", "", "", "A/B won"),
		match.NewMatch("A-B", "India", "", "", "A-B won"),
		match.NewMatch("A-B (2)", "India", "", "", "India won"),
	})
	dataFolder := filepath.Join(t.TempDir(), "scoreData")

	paths, err := NewWriter(loadDefault(t), 2).WriteAll(context.Background(), dataFolder, teams)
	require.NoError(t, err)
	require.Len(t, paths, 12)

	seen := make(map[string]bool)
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
		assert.FileExists(t, p)
	}

	assert.Equal(t, []string{
		filepath.Join(dataFolder, "India", "X.pdf"),
		filepath.Join(dataFolder, "India", "X (2).pdf"),
		filepath.Join(dataFolder, "India", "X (2) (2).pdf"),
		filepath.Join(dataFolder, "India", "A-B.pdf"),
		filepath.Join(dataFolder, "India", "A-B (2).pdf"),
		filepath.Join(dataFolder, "India", "A-B (2) (2).pdf"),
	}, paths[:6])

	for _, dir := range []string{"India", "X", "X (2)", "A-B", "A-B (2)", "A-B (2) (2)"} {
		assert.DirExists(t, filepath.Join(dataFolder, dir))
	}
}

func TestUnique(t *testing.T) {
	seen := make(map[string]bool)
	assert.Equal(t, "X", unique("X", seen))
	assert.Equal(t, "X (2)", unique("X", seen))
	assert.Equal(t, "X (2) (2)", unique("X (2)", seen))
	assert.Equal(t, "X (3)", unique("X", seen))
	assert.Len(t, seen, 4)
}

func TestWriteAll_FolderExists(t *testing.T) {
	dataFolder := t.TempDir()

	_, err := NewWriter(loadDefault(t), 1).WriteAll(context.Background(), dataFolder, nil)
	require.Error(t, err)

	var ioErr *apperr.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "mkdir", ioErr.Op)
	assert.True(t, errors.Is(err, os.ErrExist))
}

func TestWriteAll_Cancelled(t *testing.T) {
	teams := match.Group([]match.Match{
		match.NewMatch("India", "Pakistan", "336/5", "212/6", "India won"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWriter(loadDefault(t), 1).WriteAll(ctx, filepath.Join(t.TempDir(), "scoreData"), teams)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "India", FileName("India"))
	assert.Equal(t, "Papua-New Guinea", FileName("Papua/New Guinea"))
	assert.Equal(t, "_", FileName(""))
	assert.Equal(t, "_..", FileName(".."))
}
