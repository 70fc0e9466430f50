package annotation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeLens/internal/model"
)

func TestEpochMillis(t *testing.T) {
	tests := []struct {
		in   model.DateValue
		want int64
	}{
		{model.DateString("2023-01-02"), 1672617600000},
		{model.DateString(" 2023-01-02 "), 1672617600000},
		{model.DateString("2023-01-02T10:30:00Z"), 1672655400000},
		{model.DateString("2023-01-02T10:30:00+02:00"), 1672648200000},
		{model.DateString("2023-01-02T10:30:00"), 1672655400000},
		{model.DateString("2023-01-02 10:30:00"), 1672655400000},
		{model.DateMillis(1672617600000), 1672617600000},
	}
	for _, tt := range tests {
		got, err := EpochMillis(tt.in)
		require.NoError(t, err, tt.in.String())
		assert.Equal(t, tt.want, got, tt.in.String())
	}
}

func TestEpochMillis_Invalid(t *testing.T) {
	for _, s := range []string{"", "tomorrow", "2023-13-01", "01/02/2023"} {
		_, err := EpochMillis(model.DateString(s))
		assert.ErrorIs(t, err, ErrInvalidDate, s)
	}
}

func TestNormalize_NilAndEmpty(t *testing.T) {
	for _, raw := range []*model.Annotations{nil, {}} {
		out, err := Normalize(raw)
		require.NoError(t, err)
		assert.NotNil(t, out.Points)
		assert.NotNil(t, out.XAxis)
		assert.Empty(t, out.Points)
		assert.Empty(t, out.XAxis)
	}

	out, err := Normalize(nil)
	require.NoError(t, err)
	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"xaxis": [], "points": []}`, string(b))
}

func TestNormalize_PointDefaults(t *testing.T) {
	size := 5.0
	out, err := Normalize(&model.Annotations{
		Points: []model.PointAnnotation{{
			X:      model.DateString("2023-01-02"),
			Y:      model.Price(150),
			Marker: &model.Marker{Size: &size, FillColor: "#00f"},
			Label: &model.PointLabel{
				BorderColor: "#333",
				Text:        "Exit",
				Style:       &model.LabelStyle{Background: "#fff", Color: "#000"},
			},
		}},
	})
	require.NoError(t, err)
	require.Len(t, out.Points, 1)

	p := out.Points[0]
	assert.Equal(t, int64(1672617600000), p.X)
	assert.Equal(t, 150.0, p.Y)

	assert.Equal(t, MarkerRadius, p.Marker.Radius)
	require.NotNil(t, p.Marker.Size)
	assert.Equal(t, 5.0, *p.Marker.Size)
	assert.Equal(t, "#00f", p.Marker.FillColor)

	assert.Equal(t, "#333", p.Label.BorderColor)
	assert.Equal(t, "Exit", p.Label.Text)
	assert.Equal(t, "middle", p.Label.TextAnchor)
	assert.Equal(t, 0, p.Label.OffsetX)
	assert.Equal(t, -10, p.Label.OffsetY)
	assert.Equal(t, "#fff", p.Label.Style.Background)
	assert.Equal(t, "#000", p.Label.Style.Color)
	assert.Equal(t, "12px", p.Label.Style.FontSize)
	assert.Equal(t, 5, p.Label.Style.Padding.Left)
	assert.Equal(t, 5, p.Label.Style.Padding.Right)
	assert.Equal(t, 2, p.Label.Style.Padding.Top)
	assert.Equal(t, 2, p.Label.Style.Padding.Bottom)
}

func TestNormalize_MissingMarkerAndLabel(t *testing.T) {
	out, err := Normalize(&model.Annotations{
		Points: []model.PointAnnotation{{X: model.DateString("2023-01-02"), Y: model.Price(1)}},
	})
	require.NoError(t, err)
	p := out.Points[0]
	assert.Nil(t, p.Marker.Size)
	assert.Equal(t, MarkerRadius, p.Marker.Radius)
	assert.Empty(t, p.Label.Text)
	assert.Equal(t, LabelFontSize, p.Label.Style.FontSize)
}

func TestNormalize_RangesPassThrough(t *testing.T) {
	out, err := Normalize(&model.Annotations{
		XAxis: []model.RangeAnnotation{
			{X: model.DateString("2023-01-02"), X2: model.DateString("2023-02-01"), FillColor: "#00ff00", Label: &model.RangeLabel{Text: "Buy 150.00"}},
			{X: model.DateMillis(1675209600000), X2: model.DateString("2023-03-01")},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.XAxis, 2)

	assert.Equal(t, int64(1672617600000), out.XAxis[0].X)
	assert.Equal(t, int64(1675209600000), out.XAxis[0].X2)
	assert.Equal(t, "#00ff00", out.XAxis[0].FillColor)
	assert.Equal(t, "Buy 150.00", out.XAxis[0].Label.Text)

	assert.Equal(t, int64(1675209600000), out.XAxis[1].X)
	assert.Empty(t, out.XAxis[1].Label.Text)
}

func TestNormalize_InvalidDate(t *testing.T) {
	_, err := Normalize(&model.Annotations{
		Points: []model.PointAnnotation{{X: model.DateString("2023-01-02"), Y: model.Price(1)}},
		XAxis:  []model.RangeAnnotation{{X: model.DateString("2023-01-02"), X2: model.DateString("soon")}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Contains(t, err.Error(), "xaxis 0")
	assert.Contains(t, err.Error(), "x2")
}

func TestNormalize_FromBackendJSON(t *testing.T) {
	var raw model.Annotations
	require.NoError(t, json.Unmarshal([]byte(`{
		"points": [{"x": 1672617600000, "y": 150.5}],
		"xaxis": [{"x": "2023-01-02", "x2": "2023-01-02T00:00:00Z"}]
	}`), &raw))

	out, err := Normalize(&raw)
	require.NoError(t, err)
	assert.Equal(t, int64(1672617600000), out.Points[0].X)
	assert.Equal(t, 150.5, out.Points[0].Y)
	assert.Equal(t, out.XAxis[0].X, out.XAxis[0].X2)
}

func TestNormalize_PointWithoutPriceDropped(t *testing.T) {
	var raw model.Annotations
	require.NoError(t, json.Unmarshal([]byte(`{
		"points": [{"x": "2023-01-02"}, {"x": "2023-01-03", "y": null}, {"x": "2023-01-04", "y": 0}]
	}`), &raw))
	require.Len(t, raw.Points, 3)
	assert.Nil(t, raw.Points[0].Y)

	out, err := Normalize(&raw)
	require.NoError(t, err)
	require.Len(t, out.Points, 1)
	assert.Equal(t, int64(1672790400000), out.Points[0].X)
	assert.Equal(t, 0.0, out.Points[0].Y)
}
