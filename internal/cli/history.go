package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"TradeLens/internal/recorder"
)

// historyRow is one cycle as shown by the history command.
type historyRow struct {
	ID      string `csv:"id"`
	Started string `csv:"started_at"`
	Symbol  string `csv:"symbol"`
	Trigger string `csv:"trigger"`
	Source  string `csv:"source"`
	Status  string `csv:"status"`
	Charts  int    `csv:"charts"`
	Error   string `csv:"error"`
}

func historyRows(cycles []recorder.CycleRecord) []*historyRow {
	rows := make([]*historyRow, 0, len(cycles))
	for _, c := range cycles {
		rows = append(rows, &historyRow{
			ID:      c.ID,
			Started: c.StartedAt.Format("2006-01-02 15:04:05"),
			Symbol:  c.Symbol,
			Trigger: c.Trigger,
			Source:  c.Source,
			Status:  c.Status,
			Charts:  len(c.Charts),
			Error:   c.Error,
		})
	}
	return rows
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent update cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			asCSV, _ := cmd.Flags().GetBool("csv")
			rec := app.openRecorder()
			defer rec.Close()

			cycles, err := rec.RecentCycles(limit)
			if err != nil {
				return err
			}
			rows := historyRows(cycles)
			if asCSV {
				return gocsv.Marshal(&rows, cmd.OutOrStdout())
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no cycles recorded")
				return nil
			}
			renderHistory(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "number of cycles to show")
	cmd.Flags().Bool("csv", false, "print CSV instead of a table")
	return cmd
}

func renderHistory(w io.Writer, rows []*historyRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Started", "Symbol", "Trigger", "Source", "Status", "Charts", "Error"})
	table.SetAutoWrapText(false)
	for _, r := range rows {
		table.Append([]string{r.Started, r.Symbol, r.Trigger, r.Source, r.Status, strconv.Itoa(r.Charts), r.Error})
	}
	table.Render()
}
