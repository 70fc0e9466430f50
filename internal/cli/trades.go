package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"TradeLens/internal/trades"
)

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <trades.csv>",
		Short: "List the trades of a broker export with a chart link for each",
		Example: `  tradelens import trades.csv --base http://localhost:8090
  tradelens import trades.csv --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			orders, err := trades.Parse(f)
			if err != nil {
				return err
			}
			base, _ := cmd.Flags().GetString("base")
			if base = strings.TrimRight(base, "/"); base != "" {
				for _, o := range orders {
					o.Link = base + o.Link
				}
			}
			app.Logger.Debug().Str("file", args[0]).Int("trades", len(orders)).Msg("trades imported")

			w := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(orders)
			}
			if len(orders) == 0 {
				fmt.Fprintln(w, "no trades found")
				return nil
			}
			renderTrades(w, orders)
			return nil
		},
	}
	cmd.Flags().String("base", "", "server URL prefixed to each chart link")
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	return cmd
}

func renderTrades(w io.Writer, orders []*trades.Order) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Trade", "Symbol", "Entry", "Buy", "Exit", "Sell", "Status", "Chart"})
	table.SetAutoWrapText(false)
	for _, o := range orders {
		table.Append([]string{o.TradeID, o.Symbol, o.EntryDateTime, o.EntryPrice, o.ExitDateTime, o.ExitPrice, o.OrderStatus, o.Link})
	}
	table.Render()
}
