// Package chart holds the ApexCharts configuration handed to the browser.
package chart

import "TradeLens/internal/model"

// Options is a candlestick chart configuration.
type Options struct {
	Chart       Settings    `json:"chart"`
	Series      []Series    `json:"series"`
	Title       Title       `json:"title"`
	XAxis       Axis        `json:"xaxis"`
	YAxis       YAxis       `json:"yaxis"`
	Annotations Annotations `json:"annotations"`
}

// Settings is the ApexCharts "chart" block.
type Settings struct {
	Type    string  `json:"type"`
	Height  int     `json:"height"`
	Toolbar Toolbar `json:"toolbar"`
	Zoom    Zoom    `json:"zoom"`
}

// Toolbar toggles the chart toolbar.
type Toolbar struct {
	AutoSelected string `json:"autoSelected"`
	Show         bool   `json:"show"`
}

// Zoom controls mouse-wheel and selection zoom.
type Zoom struct {
	Enabled bool `json:"enabled"`
}

// Series is one drawn data set. Data is passed through unchanged.
type Series struct {
	Data []model.DataPoint `json:"data"`
}

// Title is the caption above the plot.
type Title struct {
	Text  string `json:"text"`
	Align string `json:"align"`
}

// Axis is the x axis; Type is "datetime" for every chart here.
type Axis struct {
	Type string `json:"type"`
}

// YAxis enables the y-axis tooltip.
type YAxis struct {
	Tooltip Tooltip `json:"tooltip"`
}

// Tooltip is the hover box configuration.
type Tooltip struct {
	Enabled bool `json:"enabled"`
}

// Annotations are renderer-ready overlays. Both slices are always non-nil.
type Annotations struct {
	XAxis  []RangeAnnotation `json:"xaxis"`
	Points []PointAnnotation `json:"points"`
}

// PointAnnotation x and RangeAnnotation x/x2 are epoch milliseconds.
type PointAnnotation struct {
	X      int64      `json:"x"`
	Y      float64    `json:"y"`
	Marker Marker     `json:"marker"`
	Label  PointLabel `json:"label"`
}

// Marker is the dot drawn at a point annotation.
type Marker struct {
	Size        *float64 `json:"size,omitempty"`
	FillColor   string   `json:"fillColor,omitempty"`
	StrokeColor string   `json:"strokeColor,omitempty"`
	Radius      int      `json:"radius"`
}

// PointLabel is the text box next to a point annotation.
type PointLabel struct {
	BorderColor string     `json:"borderColor,omitempty"`
	Text        string     `json:"text,omitempty"`
	TextAnchor  string     `json:"textAnchor"`
	OffsetX     int        `json:"offsetX"`
	OffsetY     int        `json:"offsetY"`
	Style       LabelStyle `json:"style"`
}

// LabelStyle colors a label box.
type LabelStyle struct {
	Background string  `json:"background,omitempty"`
	Color      string  `json:"color,omitempty"`
	FontSize   string  `json:"fontSize"`
	Padding    Padding `json:"padding"`
}

// Padding is the inner spacing of a label box, in pixels.
type Padding struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// RangeAnnotation shades the x interval [X, X2].
type RangeAnnotation struct {
	X         int64      `json:"x"`
	X2        int64      `json:"x2"`
	FillColor string     `json:"fillColor,omitempty"`
	Label     RangeLabel `json:"label"`
}

// RangeLabel is the caption of a shaded interval.
type RangeLabel struct {
	Text string `json:"text,omitempty"`
}
