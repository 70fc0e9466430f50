package model

// TimeFrame is the candle aggregation period requested from the backend.
type TimeFrame string

const (
	Daily   TimeFrame = "daily"
	Weekly  TimeFrame = "weekly"
	Monthly TimeFrame = "monthly"
)

// ParseTimeFrame maps a query value to a TimeFrame. Empty means daily.
func ParseTimeFrame(s string) (TimeFrame, bool) {
	switch TimeFrame(s) {
	case "", Daily:
		return Daily, true
	case Weekly:
		return Weekly, true
	case Monthly:
		return Monthly, true
	default:
		return Daily, false
	}
}

// Inputs are the named trade fields collected from a form or a query string.
// Dates and prices are kept as typed and forwarded to the backend verbatim.
type Inputs struct {
	Symbol         string `schema:"symbol" url:"symbol,omitempty" json:"symbol,omitempty"`
	TradeEnterDate string `schema:"tradeEnterDate" url:"tradeEnterDate,omitempty" json:"tradeEnterDate,omitempty"`
	TradeExitDate  string `schema:"tradeExitDate" url:"tradeExitDate,omitempty" json:"tradeExitDate,omitempty"`
	BuyPrice       string `schema:"buyPrice" url:"buyPrice,omitempty" json:"buyPrice,omitempty"`
	ExitPrice      string `schema:"exitPrice" url:"exitPrice,omitempty" json:"exitPrice,omitempty"`
	TradeExitDate2 string `schema:"tradeExitDate2" url:"tradeExitDate2,omitempty" json:"tradeExitDate2,omitempty"`
	ExitPrice2     string `schema:"exitPrice2" url:"exitPrice2,omitempty" json:"exitPrice2,omitempty"`
}

// ChartRequest is a single /data request.
type ChartRequest struct {
	Inputs
	TimeFrame  TimeFrame `url:"timeFrame,omitempty" json:"timeFrame"`
	ShowTrades bool      `url:"showTrades,omitempty" json:"showTrades"`
}

// Target pairs a request with the container its chart is mounted into.
type Target struct {
	Container string
	Request   ChartRequest
	Query     string
}
