// Package annotation converts backend trade annotations into chart overlays.
package annotation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"TradeLens/internal/chart"
	"TradeLens/internal/model"
)

// Presentation defaults applied to every point label.
const (
	MarkerRadius  = 2
	TextAnchor    = "middle"
	LabelOffsetX  = 0
	LabelOffsetY  = -10
	LabelFontSize = "12px"
	PaddingLeft   = 5
	PaddingRight  = 5
	PaddingTop    = 2
	PaddingBottom = 2
)

var ErrInvalidDate = errors.New("invalid date")

// Layouts accepted for textual dates. Values without a zone are UTC.
var layouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalize converts raw annotations. A nil or empty input yields empty,
// non-nil slices. Points without a price are dropped, as the chart would
// not draw them.
func Normalize(raw *model.Annotations) (chart.Annotations, error) {
	out := chart.Annotations{
		XAxis:  []chart.RangeAnnotation{},
		Points: []chart.PointAnnotation{},
	}
	if raw == nil {
		return out, nil
	}

	for i, p := range raw.Points {
		if p.Y == nil {
			continue
		}
		np, err := normalizePoint(p)
		if err != nil {
			return chart.Annotations{}, fmt.Errorf("point %d: %w", i, err)
		}
		out.Points = append(out.Points, np)
	}
	for i, r := range raw.XAxis {
		nr, err := normalizeRange(r)
		if err != nil {
			return chart.Annotations{}, fmt.Errorf("xaxis %d: %w", i, err)
		}
		out.XAxis = append(out.XAxis, nr)
	}
	return out, nil
}

func normalizePoint(p model.PointAnnotation) (chart.PointAnnotation, error) {
	x, err := EpochMillis(p.X)
	if err != nil {
		return chart.PointAnnotation{}, err
	}

	np := chart.PointAnnotation{
		X:      x,
		Y:      *p.Y,
		Marker: chart.Marker{Radius: MarkerRadius},
		Label: chart.PointLabel{
			TextAnchor: TextAnchor,
			OffsetX:    LabelOffsetX,
			OffsetY:    LabelOffsetY,
			Style: chart.LabelStyle{
				FontSize: LabelFontSize,
				Padding: chart.Padding{
					Left:   PaddingLeft,
					Right:  PaddingRight,
					Top:    PaddingTop,
					Bottom: PaddingBottom,
				},
			},
		},
	}
	if m := p.Marker; m != nil {
		np.Marker.Size = m.Size
		np.Marker.FillColor = m.FillColor
		np.Marker.StrokeColor = m.StrokeColor
	}
	if l := p.Label; l != nil {
		np.Label.BorderColor = l.BorderColor
		np.Label.Text = l.Text
		if s := l.Style; s != nil {
			np.Label.Style.Background = s.Background
			np.Label.Style.Color = s.Color
		}
	}
	return np, nil
}

func normalizeRange(r model.RangeAnnotation) (chart.RangeAnnotation, error) {
	x, err := EpochMillis(r.X)
	if err != nil {
		return chart.RangeAnnotation{}, fmt.Errorf("x: %w", err)
	}
	x2, err := EpochMillis(r.X2)
	if err != nil {
		return chart.RangeAnnotation{}, fmt.Errorf("x2: %w", err)
	}
	nr := chart.RangeAnnotation{X: x, X2: x2, FillColor: r.FillColor}
	if r.Label != nil {
		nr.Label.Text = r.Label.Text
	}
	return nr, nil
}

// EpochMillis converts a date-like value to milliseconds since the Unix epoch.
func EpochMillis(v model.DateValue) (int64, error) {
	if v.IsNumber {
		return v.Millis, nil
	}
	s := strings.TrimSpace(v.Text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
