package fetcher

import (
	"context"

	"TradeLens/internal/model"
)

// Fetcher retrieves chart data for a fully built /data query string.
type Fetcher interface {
	FetchChart(ctx context.Context, query string) (*model.ChartResponse, error)
	Name() string
}
