package render

import (
	"errors"
	"fmt"

	"TradeLens/internal/annotation"
	"TradeLens/internal/chart"
	"TradeLens/internal/model"
)

const DefaultHeight = 400

var ErrNoSeries = errors.New("response has no series")

// Renderer turns chart responses into mounted candlestick charts.
type Renderer struct {
	Height int
}

// NewRenderer creates a Renderer. A non-positive height uses DefaultHeight.
func NewRenderer(height int) *Renderer {
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{Height: height}
}

// Build constructs the chart configuration for resp.
func (r *Renderer) Build(resp *model.ChartResponse) (*chart.Options, error) {
	if resp == nil || len(resp.Series) == 0 {
		return nil, ErrNoSeries
	}
	ann, err := annotation.Normalize(resp.Annotations)
	if err != nil {
		return nil, fmt.Errorf("normalize annotations: %w", err)
	}

	first := resp.Series[0]
	data := first.Data
	if data == nil {
		data = []model.DataPoint{}
	}
	height := r.Height
	if height <= 0 {
		height = DefaultHeight
	}

	return &chart.Options{
		Chart: chart.Settings{
			Type:    "candlestick",
			Height:  height,
			Toolbar: chart.Toolbar{AutoSelected: "pan", Show: true},
			Zoom:    chart.Zoom{Enabled: true},
		},
		Series:      []chart.Series{{Data: data}},
		Title:       chart.Title{Text: first.Name, Align: "left"},
		XAxis:       chart.Axis{Type: "datetime"},
		YAxis:       chart.YAxis{Tooltip: chart.Tooltip{Enabled: true}},
		Annotations: ann,
	}, nil
}

// Render builds the chart and replaces the container's content with it.
// A response that cannot be built leaves the container untouched.
// Containers implementing Replacer are swapped in one step; others are
// cleared and then mounted.
func (r *Renderer) Render(c Container, resp *model.ChartResponse) (*chart.Options, error) {
	opts, err := r.Build(resp)
	if err != nil {
		return nil, err
	}
	if rc, ok := c.(Replacer); ok {
		if err := rc.Replace(opts); err != nil {
			return nil, fmt.Errorf("replace: %w", err)
		}
		return opts, nil
	}
	if err := c.Clear(); err != nil {
		return nil, fmt.Errorf("clear: %w", err)
	}
	if err := c.Mount(opts); err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}
	return opts, nil
}
