package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"TradeLens/internal/collector"
	"TradeLens/internal/pipeline"
	"TradeLens/internal/render"
)

// inputFlags maps CLI flags onto the form field names.
var inputFlags = []struct {
	flag, field, usage string
}{
	{"symbol", "symbol", "ticker symbol"},
	{"enter-date", "tradeEnterDate", "trade entry date (YYYY-MM-DD)"},
	{"buy-price", "buyPrice", "entry price"},
	{"exit-date", "tradeExitDate", "first exit date (YYYY-MM-DD)"},
	{"exit-price", "exitPrice", "first exit price"},
	{"exit-date2", "tradeExitDate2", "second exit date (YYYY-MM-DD)"},
	{"exit-price2", "exitPrice2", "second exit price"},
}

func addInputFlags(cmd *cobra.Command) {
	for _, f := range inputFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

// sourceFromArgs uses a query-string argument when given, otherwise the
// input flags as form fields.
func sourceFromArgs(cmd *cobra.Command, args []string) (collector.Source, error) {
	if len(args) == 1 {
		return collector.ParseQuerySource(args[0])
	}
	form := url.Values{}
	for _, f := range inputFlags {
		if v, _ := cmd.Flags().GetString(f.flag); v != "" {
			form.Set(f.field, v)
		}
	}
	return &collector.FormSource{Form: form}, nil
}

func newRenderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [query]",
		Short: "Render the four trade charts into an output directory",
		Example: `  tradelens render 'symbol=aapl&tradeEnterDate=2023-01-01&buyPrice=150&exitPrice=160&tradeExitDate=2023-02-01'
  tradelens render --symbol aapl --enter-date 2023-01-01 --buy-price 150 --exit-date 2023-02-01 --exit-price 160`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := sourceFromArgs(cmd, args)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = app.Config.Output.Dir
			}
			mock, _ := cmd.Flags().GetBool("mock")

			board, err := render.NewDirBoard(out)
			if err != nil {
				return err
			}
			rec := app.openRecorder()
			defer rec.Close()
			p := app.newPipeline(app.newFetcher(mock), rec)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cycle, runErr := p.Run(ctx, src, board, "cli")
			if err := board.WriteIndex(cycle.Inputs.Symbol); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, id := range cycle.Rendered {
				fmt.Fprintf(w, "rendered %s -> %s\n", id, filepath.Join(out, id+".json"))
			}
			if runErr != nil {
				var step *pipeline.StepError
				if errors.As(runErr, &step) {
					fmt.Fprintf(w, "aborted at %s; remaining charts left as they were\n", step.Container)
				}
				return runErr
			}
			fmt.Fprintf(w, "open %s\n", filepath.Join(out, "index.html"))
			return nil
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("out", "", "output directory (default: output.dir from config)")
	cmd.Flags().Bool("mock", false, "use synthetic data instead of the /data backend")
	return cmd
}

func newQueryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [query]",
		Short: "Print the /data requests a render would issue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := sourceFromArgs(cmd, args)
			if err != nil {
				return err
			}
			targets, err := collector.NewCollector(app.Config.Charts.CompareSymbol).Collect(src)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, t := range targets {
				fmt.Fprintf(w, "%-13s /data?%s\n", t.Container, t.Query)
			}
			return nil
		},
	}
	addInputFlags(cmd)
	return cmd
}
