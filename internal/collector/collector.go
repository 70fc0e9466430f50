package collector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-querystring/query"

	"TradeLens/internal/model"
)

// Container keys, in render order.
const (
	ContainerDaily   = "chartDaily"
	ContainerWeekly  = "chartWeekly"
	ContainerMonthly = "chartMonthly"
	ContainerSP500   = "chartSP500"
)

// DefaultCompareSymbol is charted next to every trade.
const DefaultCompareSymbol = "spy"

var ErrMissingSymbol = errors.New("symbol is required")

// Collector turns trade inputs into the four chart requests of an update cycle.
type Collector struct {
	CompareSymbol string
}

// NewCollector creates a new Collector. An empty compare symbol falls back to spy.
func NewCollector(compareSymbol string) *Collector {
	if compareSymbol == "" {
		compareSymbol = DefaultCompareSymbol
	}
	return &Collector{CompareSymbol: compareSymbol}
}

// Collect reads the source and builds its targets.
func (c *Collector) Collect(src Source) ([]model.Target, error) {
	in, err := src.Inputs()
	if err != nil {
		return nil, fmt.Errorf("%s source: %w", src.Name(), err)
	}
	return c.Targets(in)
}

// Targets returns daily, weekly, monthly and comparison targets in that order.
func (c *Collector) Targets(in model.Inputs) ([]model.Target, error) {
	in = trimInputs(in)
	if in.Symbol == "" {
		return nil, ErrMissingSymbol
	}

	compare := in
	compare.Symbol = c.CompareSymbol

	plan := []struct {
		container string
		inputs    model.Inputs
		tf        model.TimeFrame
	}{
		{ContainerDaily, in, model.Daily},
		{ContainerWeekly, in, model.Weekly},
		{ContainerMonthly, in, model.Monthly},
		{ContainerSP500, compare, model.Daily},
	}

	targets := make([]model.Target, 0, len(plan))
	for _, p := range plan {
		req := model.ChartRequest{Inputs: p.inputs, TimeFrame: p.tf, ShowTrades: true}
		q, err := Query(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.container, err)
		}
		targets = append(targets, model.Target{Container: p.container, Request: req, Query: q})
	}
	return targets, nil
}

// Query encodes req as a canonical query string. Empty parameters are
// omitted and keys are sorted.
func Query(req model.ChartRequest) (string, error) {
	req.Inputs = trimInputs(req.Inputs)
	if req.TimeFrame == "" {
		req.TimeFrame = model.Daily
	}
	v, err := query.Values(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	return v.Encode(), nil
}

// EncodeInputs encodes only the trade fields, the form a /trade link takes.
// Empty fields are omitted.
func EncodeInputs(in model.Inputs) (string, error) {
	v, err := query.Values(trimInputs(in))
	if err != nil {
		return "", fmt.Errorf("encode inputs: %w", err)
	}
	return v.Encode(), nil
}

func trimInputs(in model.Inputs) model.Inputs {
	return model.Inputs{
		Symbol:         strings.TrimSpace(in.Symbol),
		TradeEnterDate: strings.TrimSpace(in.TradeEnterDate),
		TradeExitDate:  strings.TrimSpace(in.TradeExitDate),
		BuyPrice:       strings.TrimSpace(in.BuyPrice),
		ExitPrice:      strings.TrimSpace(in.ExitPrice),
		TradeExitDate2: strings.TrimSpace(in.TradeExitDate2),
		ExitPrice2:     strings.TrimSpace(in.ExitPrice2),
	}
}
