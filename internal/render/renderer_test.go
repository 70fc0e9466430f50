package render

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeLens/internal/annotation"
	"TradeLens/internal/chart"
	"TradeLens/internal/model"
)

func candle(date string, o, h, l, c float64) model.DataPoint {
	y, _ := json.Marshal([]float64{o, h, l, c})
	return model.DataPoint{X: model.DateString(date), Y: y}
}

func threeCandles() *model.ChartResponse {
	return &model.ChartResponse{
		Series: []model.Series{{
			Name: "aapl",
			Data: []model.DataPoint{
				candle("2023-01-03", 130.28, 130.9, 124.17, 125.07),
				candle("2023-01-04", 126.89, 128.66, 125.08, 126.36),
				candle("2023-01-05", 127.13, 127.77, 124.76, 125.02),
			},
		}},
	}
}

func TestBuild_ThreeCandlesNoAnnotations(t *testing.T) {
	opts, err := NewRenderer(0).Build(threeCandles())
	require.NoError(t, err)

	assert.Equal(t, "candlestick", opts.Chart.Type)
	assert.Equal(t, DefaultHeight, opts.Chart.Height)
	assert.Equal(t, "pan", opts.Chart.Toolbar.AutoSelected)
	assert.True(t, opts.Chart.Toolbar.Show)
	assert.True(t, opts.Chart.Zoom.Enabled)
	assert.Equal(t, "aapl", opts.Title.Text)
	assert.Equal(t, "left", opts.Title.Align)
	assert.Equal(t, "datetime", opts.XAxis.Type)
	assert.True(t, opts.YAxis.Tooltip.Enabled)

	require.Len(t, opts.Series, 1)
	assert.Len(t, opts.Series[0].Data, 3)
	assert.NotNil(t, opts.Annotations.Points)
	assert.NotNil(t, opts.Annotations.XAxis)
	assert.Empty(t, opts.Annotations.Points)
	assert.Empty(t, opts.Annotations.XAxis)
}

func TestBuild_OnlyFirstSeriesCharted(t *testing.T) {
	resp := threeCandles()
	resp.Series = append(resp.Series, model.Series{Name: "Volume", Type: "bar", Data: []model.DataPoint{{X: model.DateString("2023-01-03"), Y: json.RawMessage("100")}}})

	opts, err := NewRenderer(600).Build(resp)
	require.NoError(t, err)
	require.Len(t, opts.Series, 1)
	assert.Len(t, opts.Series[0].Data, 3)
	assert.Equal(t, 600, opts.Chart.Height)
}

func TestBuild_JSONShape(t *testing.T) {
	opts, err := NewRenderer(0).Build(&model.ChartResponse{Series: []model.Series{{Name: "spy"}}})
	require.NoError(t, err)

	b, err := json.Marshal(opts)
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	assert.JSONEq(t, `[{"data": []}]`, string(m["series"]))
	assert.JSONEq(t, `{"xaxis": [], "points": []}`, string(m["annotations"]))
	assert.JSONEq(t, `{"type": "candlestick", "height": 400, "toolbar": {"autoSelected": "pan", "show": true}, "zoom": {"enabled": true}}`, string(m["chart"]))
}

func TestBuild_NoSeries(t *testing.T) {
	_, err := NewRenderer(0).Build(&model.ChartResponse{})
	assert.ErrorIs(t, err, ErrNoSeries)

	_, err = NewRenderer(0).Build(nil)
	assert.ErrorIs(t, err, ErrNoSeries)
}

func TestBuild_BadAnnotation(t *testing.T) {
	resp := threeCandles()
	resp.Annotations = &model.Annotations{Points: []model.PointAnnotation{{X: model.DateString("yesterday"), Y: model.Price(1)}}}
	_, err := NewRenderer(0).Build(resp)
	assert.ErrorIs(t, err, annotation.ErrInvalidDate)
}

func TestRender_IdempotentReplace(t *testing.T) {
	board := NewMemoryBoard()
	c, err := board.Container("chartDaily")
	require.NoError(t, err)

	r := NewRenderer(0)
	first, err := r.Render(c, threeCandles())
	require.NoError(t, err)
	second, err := r.Render(c, threeCandles())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	charts := board.Charts()
	require.Len(t, charts, 1)
	assert.Len(t, charts[0].Options.Series[0].Data, 3)
}

func TestRender_FailedBuildKeepsPreviousChart(t *testing.T) {
	board := NewMemoryBoard()
	c, _ := board.Container("chartDaily")
	r := NewRenderer(0)

	_, err := r.Render(c, threeCandles())
	require.NoError(t, err)
	_, err = r.Render(c, &model.ChartResponse{})
	require.ErrorIs(t, err, ErrNoSeries)

	opts, ok := board.Get("chartDaily")
	require.True(t, ok)
	assert.Len(t, opts.Series[0].Data, 3)
}

type failingContainer struct{ cleared bool }

func (f *failingContainer) ID() string { return "broken" }

func (f *failingContainer) Clear() error {
	f.cleared = true
	return nil
}

func (f *failingContainer) Mount(*chart.Options) error {
	return errors.New("detached")
}

func TestRender_MountError(t *testing.T) {
	c := &failingContainer{}
	_, err := NewRenderer(0).Render(c, threeCandles())
	require.Error(t, err)
	assert.True(t, c.cleared)
	assert.Contains(t, err.Error(), "mount")
}

type swapContainer struct {
	failingContainer
	replaced *chart.Options
}

func (s *swapContainer) Replace(opts *chart.Options) error {
	s.replaced = opts
	return nil
}

func TestRender_ReplacerSkipsClear(t *testing.T) {
	c := &swapContainer{}
	opts, err := NewRenderer(0).Render(c, threeCandles())
	require.NoError(t, err)
	assert.False(t, c.cleared)
	assert.Same(t, opts, c.replaced)
}

func TestRender_MemoryBoardNeverEmptyWhileReplacing(t *testing.T) {
	board := NewMemoryBoard()
	c, err := board.Container("chartDaily")
	require.NoError(t, err)
	r := NewRenderer(0)
	_, err = r.Render(c, threeCandles())
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		missed int
	)
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if _, ok := board.Get("chartDaily"); !ok {
				missed++
			}
		}
	}()
	for i := 0; i < 500; i++ {
		_, err := r.Render(c, threeCandles())
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()

	assert.Zero(t, missed)
}

