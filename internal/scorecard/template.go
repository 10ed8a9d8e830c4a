package scorecard

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/cricket-results/internal/apperr"
	"github.com/pfrederiksen/cricket-results/internal/match"
)

// DefaultFont is used for every overlay
const DefaultFont = "Helvetica"

// Field places one overlay: X and Y are the lower-left corner in points, Size the font size
type Field struct {
	X    float64 `mapstructure:"x"`
	Y    float64 `mapstructure:"y"`
	Size int     `mapstructure:"size"`
}

// Layout positions the five overlays on the template's first page
type Layout struct {
	Team          Field `mapstructure:"team"`
	Opponent      Field `mapstructure:"opponent"`
	SelfScore     Field `mapstructure:"self_score"`
	OpponentScore Field `mapstructure:"opponent_score"`
	Result        Field `mapstructure:"result"`
}

// DefaultLayout matches the stock scoreCard.pdf template
func DefaultLayout() Layout {
	return Layout{
		Team:          Field{X: 340, Y: 2330, Size: 100},
		Opponent:      Field{X: 340, Y: 1730, Size: 100},
		SelfScore:     Field{X: 1535, Y: 2330, Size: 100},
		OpponentScore: Field{X: 1535, Y: 1730, Size: 100},
		Result:        Field{X: 573, Y: 1300, Size: 60},
	}
}

func (l Layout) fields() []namedField {
	return []namedField{
		{"team", l.Team},
		{"opponent", l.Opponent},
		{"self_score", l.SelfScore},
		{"opponent_score", l.OpponentScore},
		{"result", l.Result},
	}
}

type namedField struct {
	name string
	Field
}

// Template is a scorecard template loaded into memory. It is read-only after
// loading and safe for concurrent Render calls.
type Template struct {
	path   string
	data   []byte
	layout Layout
	pages  int
}

// LoadTemplate reads the template at path and checks it against layout
func LoadTemplate(path string, layout Layout) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperr.IOError{Op: "read template", Path: path, Err: err}
	}
	return NewTemplate(path, data, layout)
}

// NewTemplate wraps template bytes already in memory; path is used in errors only
func NewTemplate(path string, data []byte, layout Layout) (*Template, error) {
	api.DisableConfigDir()

	info, err := inspect(data)
	if err != nil {
		return nil, &apperr.IOError{Op: "read template", Path: path, Err: err}
	}
	if info.pages < 1 {
		return nil, &apperr.IOError{Op: "read template", Path: path, Err: eris.New("template has no pages")}
	}

	for _, f := range layout.fields() {
		setting := "scorecard.layout." + f.name
		if f.Size <= 0 {
			return nil, &apperr.ConfigError{Setting: setting, Err: eris.Errorf("font size %d", f.Size)}
		}
		if info.width > 0 && (f.X < 0 || f.Y < 0 || f.X >= info.width || f.Y >= info.height) {
			return nil, &apperr.ConfigError{Setting: setting, Err: eris.Errorf("overlay at (%.0f, %.0f) is outside the %.0fx%.0f page",
				f.X, f.Y, info.width, info.height)}
		}
	}

	return &Template{
		path:   path,
		data:   data,
		layout: layout,
		pages:  info.pages,
	}, nil
}

// Pages returns the template's page count
func (t *Template) Pages() int {
	return t.pages
}

type templateInfo struct {
	pages  int
	width  float64 // zero when page 1 does not carry its own MediaBox
	height float64
}

// inspect reads the page count and first page size of a PDF
func inspect(data []byte) (info templateInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return info, eris.Wrap(err, "opening PDF")
	}

	info.pages = r.NumPage()
	if info.pages == 0 {
		return info, nil
	}

	box := r.Page(1).V.Key("MediaBox")
	if box.Kind() == pdf.Array && box.Len() == 4 {
		info.width = box.Index(2).Float64() - box.Index(0).Float64()
		info.height = box.Index(3).Float64() - box.Index(1).Float64()
	}

	return info, nil
}

// Render writes the scorecard for one team's match to w
func (t *Template) Render(w io.Writer, teamName string, tm match.TeamMatch) error {
	values := map[string]string{
		"team":           teamName,
		"opponent":       tm.Opponent,
		"self_score":     tm.SelfScore,
		"opponent_score": tm.OpponentScore,
		"result":         tm.Result,
	}

	var stamps []*model.Watermark
	for _, f := range t.layout.fields() {
		text := values[f.name]
		if text == "" {
			continue
		}

		wm, err := api.TextWatermark(text, description(f.Field), true, false, types.POINTS)
		if err != nil {
			return eris.Wrapf(err, "scorecard: %s overlay", f.name)
		}
		stamps = append(stamps, wm)
	}

	if len(stamps) == 0 {
		_, err := w.Write(t.data)
		return err
	}

	// pdfcpu records the running command on the configuration, so each render gets its own
	conf := model.NewDefaultConfiguration()
	if err := api.AddWatermarksSliceMap(bytes.NewReader(t.data), w, map[int][]*model.Watermark{1: stamps}, conf); err != nil {
		return eris.Wrap(err, "scorecard: stamping template")
	}

	return nil
}

func description(f Field) string {
	return fmt.Sprintf("fontname:%s, points:%d, position:bl, offset:%.0f %.0f, scalefactor:1 abs, rotation:0, fillcolor:#000000, opacity:1",
		DefaultFont, f.Size, f.X, f.Y)
}
