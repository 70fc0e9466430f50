package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MaxDateMillis is the largest magnitude a JavaScript Date accepts.
const MaxDateMillis = 8.64e15

// ChartResponse is the JSON document returned by the /data backend.
type ChartResponse struct {
	Series      []Series     `json:"series"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// Series is one named data series. The first series carries candles.
type Series struct {
	Name string      `json:"name"`
	Type string      `json:"type,omitempty"`
	Data []DataPoint `json:"data"`
}

// DataPoint is a single x/y pair. For candles Y is [open, high, low, close];
// for the volume series it is a plain number, so it is kept raw.
type DataPoint struct {
	X DateValue       `json:"x"`
	Y json.RawMessage `json:"y"`
}

// Annotations groups the trade markers drawn over a chart.
type Annotations struct {
	Points []PointAnnotation `json:"points"`
	XAxis  []RangeAnnotation `json:"xaxis"`
}

// PointAnnotation marks a single price at a date. Y is nil when the
// backend sent no price.
type PointAnnotation struct {
	X      DateValue   `json:"x"`
	Y      *float64    `json:"y"`
	Marker *Marker     `json:"marker,omitempty"`
	Label  *PointLabel `json:"label,omitempty"`
}

// Marker styles the dot drawn at a point annotation.
type Marker struct {
	Size        *float64 `json:"size,omitempty"`
	FillColor   string   `json:"fillColor,omitempty"`
	StrokeColor string   `json:"strokeColor,omitempty"`
}

// PointLabel is the text box attached to a point annotation.
type PointLabel struct {
	BorderColor string      `json:"borderColor,omitempty"`
	Text        string      `json:"text,omitempty"`
	Style       *LabelStyle `json:"style,omitempty"`
}

// LabelStyle colors a point label.
type LabelStyle struct {
	Background string `json:"background,omitempty"`
	Color      string `json:"color,omitempty"`
}

// RangeAnnotation shades the x-axis between X and X2.
type RangeAnnotation struct {
	X         DateValue   `json:"x"`
	X2        DateValue   `json:"x2"`
	FillColor string      `json:"fillColor,omitempty"`
	Label     *RangeLabel `json:"label,omitempty"`
}

// RangeLabel is the caption of a shaded x-axis range.
type RangeLabel struct {
	Text string `json:"text,omitempty"`
}

// DateValue is a date-like x value as sent by the backend: a date string
// ("2023-01-02", RFC 3339) or a number of epoch milliseconds.
type DateValue struct {
	Text     string
	Millis   int64
	IsNumber bool
}

// DateString wraps a textual date.
func DateString(s string) DateValue { return DateValue{Text: s} }

// DateMillis wraps an epoch-millisecond timestamp.
func DateMillis(ms int64) DateValue { return DateValue{Millis: ms, IsNumber: true} }

// Price returns a pointer to v, for PointAnnotation.Y.
func Price(v float64) *float64 { return &v }

func (d DateValue) IsZero() bool { return !d.IsNumber && d.Text == "" }

func (d DateValue) String() string {
	if d.IsNumber {
		return strconv.FormatInt(d.Millis, 10)
	}
	return d.Text
}

func (d DateValue) MarshalJSON() ([]byte, error) {
	if d.IsNumber {
		return []byte(strconv.FormatInt(d.Millis, 10)), nil
	}
	return json.Marshal(d.Text)
}

func (d *DateValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = DateValue{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = DateString(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("date value %s: %w", b, err)
	}
	if math.Abs(f) > MaxDateMillis {
		return fmt.Errorf("date value %s: out of range", b)
	}
	*d = DateMillis(int64(f))
	return nil
}
