package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/alfredjeanlab/alcviz/internal/model"
)

// ErrNoSamples is returned for a stats file that has a header but no rows.
var ErrNoSamples = errors.New("stats snapshot has no samples")

type seriesSpec struct {
	Column string
	Legend string
}

type paneSpec struct {
	Title  string
	YMax   float64
	Series []seriesSpec
}

// StatsPanes are the two stacked charts, top first.
var StatsPanes = []paneSpec{
	{
		Title: "compression",
		YMax:  100,
		Series: []seriesSpec{
			{model.ColStaticallyCompressed, "statically compressed"},
			{model.ColDynamicallyCompressed, "dynamically compressed"},
			{model.ColEffectivelyCompressed, "effectively compressed"},
			{model.ColCompressed, "overall"},
			{model.ColMemory, "memory"},
		},
	},
	{
		Title: "system",
		YMax:  1,
		Series: []seriesSpec{
			{model.ColLearningSensitivity, "data sensitivity"},
			{model.ColAggressiveness, "aggressiveness"},
			{model.ColTolerance, "tolerance"},
			{model.ColLossiness, "lossiness"},
			{model.ColOverwhelm, "overwhelm"},
			{model.ColCuriosity, "curiosity"},
			{model.ColCoreCount, "core count"},
			{model.ColInterconnectCount, "interconnect count"},
		},
	},
}

// palette follows the usual ten-color categorical cycle.
var palette = []drawing.Color{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
}

// StatsRenderer draws the stats dashboard.
type StatsRenderer struct {
	Width  int
	Height int
	Format Format
}

// NewStatsRenderer returns a renderer with the default frame size.
func NewStatsRenderer(format Format) *StatsRenderer {
	return &StatsRenderer{Width: DefaultWidth, Height: DefaultHeight, Format: format}
}

// Charts builds one chart per pane from the full time series.
func (sr *StatsRenderer) Charts(stats *model.StatsSnapshot) ([]*chart.Chart, error) {
	if stats.Rows == 0 {
		return nil, ErrNoSamples
	}
	xs := make([]float64, stats.Rows)
	for i := range xs {
		xs[i] = float64(i)
	}
	xMax := float64(max(1, stats.Rows-1))

	charts := make([]*chart.Chart, 0, len(StatsPanes))
	for _, pane := range StatsPanes {
		ch := &chart.Chart{
			Width:  sr.Width,
			Height: sr.Height / len(StatsPanes),
			Background: chart.Style{
				Padding: chart.Box{Top: 16, Left: 16, Right: 16, Bottom: 16},
			},
			XAxis: chart.XAxis{
				Name:  "#iter",
				Range: &chart.ContinuousRange{Min: 0, Max: xMax},
			},
			YAxis: chart.YAxis{
				Name:  pane.Title,
				Range: &chart.ContinuousRange{Min: 0, Max: pane.YMax},
			},
		}
		for i, s := range pane.Series {
			ys, ok := stats.Series(s.Column)
			if !ok || len(ys) != stats.Rows {
				return nil, &model.MalformedSnapshotError{Column: s.Column, Reason: "missing column"}
			}
			ch.Series = append(ch.Series, chart.ContinuousSeries{
				Name:    s.Legend,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: palette[i%len(palette)],
					StrokeWidth: 1.5,
				},
			})
		}
		ch.Elements = []chart.Renderable{chart.Legend(ch)}
		charts = append(charts, ch)
	}
	return charts, nil
}

// Render draws both panes and stacks them into one image.
func (sr *StatsRenderer) Render(stats *model.StatsSnapshot) ([]byte, error) {
	charts, err := sr.Charts(stats)
	if err != nil {
		return nil, err
	}
	parts := make([][]byte, 0, len(charts))
	for _, ch := range charts {
		var buf bytes.Buffer
		if err := ch.Render(sr.Format.provider(), &buf); err != nil {
			return nil, fmt.Errorf("rendering stats pane: %w", err)
		}
		parts = append(parts, buf.Bytes())
	}
	paneHeight := sr.Height / len(StatsPanes)
	if sr.Format == FormatPNG {
		return stackPNG(parts, sr.Width, paneHeight)
	}
	return stackSVG(parts, sr.Width, paneHeight), nil
}

// stackSVG nests each pane document inside one outer svg, one below the other.
func stackSVG(parts [][]byte, width, paneHeight int) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`+"\n",
		width, paneHeight*len(parts))
	for i, p := range parts {
		doc := string(p)
		if at := strings.Index(doc, "<svg"); at > 0 {
			doc = doc[at:]
		}
		doc = strings.Replace(doc, "<svg", fmt.Sprintf(`<svg x="0" y="%d"`, i*paneHeight), 1)
		b.WriteString(doc)
		b.WriteString("\n")
	}
	b.WriteString("</svg>\n")
	return b.Bytes()
}

func stackPNG(parts [][]byte, width, paneHeight int) ([]byte, error) {
	out := image.NewRGBA(image.Rect(0, 0, width, paneHeight*len(parts)))
	for i, p := range parts {
		img, err := png.Decode(bytes.NewReader(p))
		if err != nil {
			return nil, fmt.Errorf("decoding stats pane: %w", err)
		}
		at := image.Pt(0, i*paneHeight)
		draw.Draw(out, img.Bounds().Add(at), img, img.Bounds().Min, draw.Src)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encoding stats frame: %w", err)
	}
	return buf.Bytes(), nil
}
