// Package trades imports broker trade exports and links each trade to its
// chart page.
package trades

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"TradeLens/internal/collector"
	"TradeLens/internal/model"
)

// MaxUploadSize bounds an uploaded export.
const MaxUploadSize = 10 << 20

// TradePath is the chart page every Order links to.
const TradePath = "/trade"

// Order is one row of a trade export. Columns are read by position when the
// file has no header row. Numbers are kept as exported so a malformed cell
// never drops the row.
type Order struct {
	TradeID          string `csv:"trade_id" json:"tradeId"`
	ExitID           string `csv:"exit_id" json:"exitId"`
	EntryDateTime    string `csv:"entry_date" json:"entryDateTime"`
	ExitDateTime     string `csv:"exit_date" json:"exitDateTime"`
	Symbol           string `csv:"symbol" json:"stockSymbol"`
	EntryType        string `csv:"entry_type" json:"entryType"`
	ExitType         string `csv:"exit_type" json:"exitType"`
	EntryQuantity    string `csv:"entry_quantity" json:"entryQuantity"`
	ExitQuantity     string `csv:"exit_quantity" json:"exitQuantity"`
	EntryPrice       string `csv:"entry_price" json:"entryPrice"`
	ExitPrice        string `csv:"exit_price" json:"exitPrice"`
	Commission       string `csv:"commission" json:"commission"`
	TotalCostForExit string `csv:"total_cost_for_exit" json:"totalCostForExit"`
	TraderID         string `csv:"trader_id" json:"traderId"`
	Market           string `csv:"market" json:"market"`
	OrderStatus      string `csv:"order_status" json:"orderStatus"`
	Link             string `csv:"-" json:"tradeDetailsLink"`
}

// Inputs maps the order onto the chart inputs of its details page.
func (o *Order) Inputs() model.Inputs {
	return model.Inputs{
		Symbol:         o.Symbol,
		TradeEnterDate: o.EntryDateTime,
		BuyPrice:       o.EntryPrice,
		TradeExitDate:  o.ExitDateTime,
		ExitPrice:      o.ExitPrice,
	}
}

// Columns is the number of positional columns in a headerless export.
const Columns = 16

var headerPrefix = []byte("trade_id")

// Parse reads an export. A first line starting with trade_id is taken as a
// header; otherwise every row must have exactly Columns positional
// columns. Rows without a symbol are
// skipped. Every returned order has its Link set.
func Parse(r io.Reader) ([]*Order, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read trades: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("read trades: larger than %d bytes", MaxUploadSize)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return []*Order{}, nil
	}

	var rows []*Order
	if bytes.HasPrefix(bytes.TrimSpace(data), headerPrefix) {
		err = gocsv.UnmarshalBytes(data, &rows)
	} else {
		cr := csv.NewReader(bytes.NewReader(data))
		cr.FieldsPerRecord = Columns
		err = gocsv.UnmarshalCSVWithoutHeaders(cr, &rows)
	}
	if err != nil {
		return nil, fmt.Errorf("parse trades: %w", err)
	}

	out := make([]*Order, 0, len(rows))
	for i, o := range rows {
		if strings.TrimSpace(o.Symbol) == "" {
			continue
		}
		q, err := collector.EncodeInputs(o.Inputs())
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		o.Link = TradePath + "?" + q
		out = append(out, o)
	}
	return out, nil
}
