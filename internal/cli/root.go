// Package cli provides the command-line interface.
package cli

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"TradeLens/internal/collector"
	"TradeLens/internal/config"
	"TradeLens/internal/fetcher"
	"TradeLens/internal/logging"
	"TradeLens/internal/pipeline"
	"TradeLens/internal/recorder"
	"TradeLens/internal/render"
)

const defaultConfigPath = "configs/config.yaml"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "tradelens",
		Short: "Render daily, weekly, monthly and S&P candlestick charts for a trade",
		Long: `TradeLens fetches price series for a trade from a /data backend, overlays the
trade's entry and exit annotations and renders four candlestick charts:
daily, weekly, monthly and a comparison chart of the S&P 500 (spy).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default: $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newRenderCmd(app))
	rootCmd.AddCommand(newQueryCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newImportCmd(app))

	return rootCmd
}

func (a *App) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = defaultConfigPath
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.Config = cfg
	a.Logger = logging.NewLogger(cfg.Log)
	a.Logger.Debug().Str("config", path).Msg("config loaded")
	return nil
}

// openRecorder returns the SQLite recorder, or a no-op one if it cannot be opened.
func (a *App) openRecorder() recorder.Recorder {
	path := a.Config.Database.SQLitePath
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		a.Logger.Warn().Err(err).Msg("create database dir failed, using noop recorder")
		return recorder.NewNoopRecorder()
	}
	rec, err := recorder.NewSQLiteRecorder(path, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return rec
}

func (a *App) newFetcher(mock bool) fetcher.Fetcher {
	if mock {
		return fetcher.NewMockFetcher(150)
	}
	return fetcher.NewHTTPFetcher(a.Config.DataSource.BaseURL, a.Config.Proxy, a.Config.DataSource.Timeout)
}

func (a *App) newPipeline(f fetcher.Fetcher, rec recorder.Recorder) *pipeline.Pipeline {
	a.Logger.Info().Str("fetcher", f.Name()).Str("base_url", a.Config.DataSource.BaseURL).Msg("data source")
	return pipeline.New(
		collector.NewCollector(a.Config.Charts.CompareSymbol),
		f,
		render.NewRenderer(a.Config.Charts.Height),
		rec,
		a.Logger,
	)
}
