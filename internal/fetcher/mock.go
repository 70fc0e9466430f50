package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"TradeLens/internal/model"
)

const dateLayout = "2006-01-02"

var rangeColors = []string{"#00ff00", "#ff0000"}

// MockFetcher returns deterministic synthetic charts shaped like the /data
// backend's responses, for development and testing.
type MockFetcher struct {
	Price float64
	// Padding is the number of days charted before entry and after the last exit.
	Padding int
}

// NewMockFetcher creates a mock anchored at price.
func NewMockFetcher(price float64) *MockFetcher {
	return &MockFetcher{Price: price, Padding: 120}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchChart(ctx context.Context, query string) (*model.ChartResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{URL: "mock:/data?" + query, Err: err}
	}
	v, err := url.ParseQuery(query)
	if err != nil {
		return nil, &ParseError{URL: "mock:/data?" + query, Snippet: query, Err: err}
	}
	symbol := v.Get("symbol")
	if symbol == "" {
		return nil, &NetworkError{URL: "mock:/data?" + query, StatusCode: 400, Err: fmt.Errorf("empty symbol")}
	}

	enter, err := parseDate(v.Get("tradeEnterDate"), time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, &NetworkError{URL: "mock:/data?" + query, StatusCode: 400, Err: fmt.Errorf("invalid tradeEnterDate: %w", err)}
	}
	exits := mockExits(v, enter)
	last := enter
	for _, e := range exits {
		if e.date.After(last) {
			last = e.date
		}
	}

	daily := generateMockBars(m.Price, enter.AddDate(0, 0, -m.Padding), last.AddDate(0, 0, m.Padding))
	tf, _ := model.ParseTimeFrame(v.Get("timeFrame"))
	bars := daily
	switch tf {
	case model.Weekly:
		bars = aggregateDailyToWeekly(daily)
	case model.Monthly:
		bars = aggregateDailyToMonthly(daily)
	}

	resp := &model.ChartResponse{
		Series:      barSeries(symbol, bars),
		Annotations: &model.Annotations{},
	}
	if show, _ := strconv.ParseBool(v.Get("showTrades")); show {
		buy, _ := strconv.ParseFloat(v.Get("buyPrice"), 64)
		resp.Annotations = tradeAnnotations(enter, buy, exits)
	}
	return resp, nil
}

type mockExit struct {
	date  time.Time
	price float64
}

func mockExits(v url.Values, enter time.Time) []mockExit {
	var exits []mockExit
	for _, k := range [][2]string{{"tradeExitDate", "exitPrice"}, {"tradeExitDate2", "exitPrice2"}} {
		d, err := parseDate(v.Get(k[0]), time.Time{})
		if err != nil || d.IsZero() {
			continue
		}
		p, err := strconv.ParseFloat(v.Get(k[1]), 64)
		if err != nil {
			continue
		}
		exits = append(exits, mockExit{date: d, price: p})
	}
	return exits
}

func parseDate(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return time.Parse(dateLayout, s)
}

// generateMockBars produces one weekday bar per day in [from, to].
func generateMockBars(basePrice float64, from, to time.Time) []model.OHLCV {
	var bars []model.OHLCV
	i := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/7))
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   round2(p * 0.999),
			High:   round2(p * 1.005),
			Low:    round2(p * 0.995),
			Close:  round2(p),
			Volume: 1000000,
		})
		i++
	}
	return bars
}

func round2(f float64) float64 { return math.Floor(f*100) / 100 }

// aggregateDailyToWeekly converts daily bars into weekly bars (Mon-Fri).
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	return aggregate(daily, func(t time.Time) int {
		y, w := t.ISOWeek()
		return y*100 + w
	})
}

func aggregateDailyToMonthly(daily []model.OHLCV) []model.OHLCV {
	return aggregate(daily, func(t time.Time) int {
		return t.Year()*100 + int(t.Month())
	})
}

// aggregate folds consecutive bars sharing a period key. The folded bar is
// dated by the last bar of its period.
func aggregate(daily []model.OHLCV, key func(time.Time) int) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var out []model.OHLCV
	cur := daily[0]
	curKey := key(cur.Time)
	for _, d := range daily[1:] {
		if k := key(d.Time); k != curKey {
			out = append(out, cur)
			cur, curKey = d, k
			continue
		}
		cur.Time = d.Time
		cur.High = math.Max(cur.High, d.High)
		cur.Low = math.Min(cur.Low, d.Low)
		cur.Close = d.Close
		cur.Volume += d.Volume
	}
	return append(out, cur)
}

func barSeries(symbol string, bars []model.OHLCV) []model.Series {
	candles := make([]model.DataPoint, len(bars))
	volume := make([]model.DataPoint, len(bars))
	for i, b := range bars {
		x := model.DateString(b.Time.Format(dateLayout))
		ohlc, _ := json.Marshal([]float64{b.Open, b.High, b.Low, b.Close})
		vol, _ := json.Marshal(int64(b.Volume))
		candles[i] = model.DataPoint{X: x, Y: ohlc}
		volume[i] = model.DataPoint{X: x, Y: vol}
	}
	return []model.Series{
		{Name: symbol, Data: candles},
		{Name: "Volume", Type: "bar", Data: volume},
	}
}

func tradeAnnotations(enter time.Time, buy float64, exits []mockExit) *model.Annotations {
	size := 5.0
	ann := &model.Annotations{
		Points: []model.PointAnnotation{{
			X:      model.DateString(enter.Format(dateLayout)),
			Y:      model.Price(buy),
			Marker: &model.Marker{Size: &size},
			Label:  &model.PointLabel{Style: &model.LabelStyle{Background: "#fff"}},
		}},
	}
	for i, e := range exits {
		ann.Points = append(ann.Points, model.PointAnnotation{
			X:      model.DateString(e.date.Format(dateLayout)),
			Y:      model.Price(e.price),
			Marker: &model.Marker{Size: &size},
			Label:  &model.PointLabel{Text: "Exit", Style: &model.LabelStyle{Background: "#fff"}},
		})
		start := enter
		if i > 0 {
			start = exits[i-1].date
		}
		ann.XAxis = append(ann.XAxis, model.RangeAnnotation{
			X:         model.DateString(start.Format(dateLayout)),
			X2:        model.DateString(e.date.Format(dateLayout)),
			FillColor: rangeColors[i%len(rangeColors)],
			Label:     &model.RangeLabel{Text: fmt.Sprintf("Buy %.2f", buy)},
		})
	}
	return ann
}
