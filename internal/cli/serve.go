package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"TradeLens/internal/collector"
	"TradeLens/internal/notifier"
	"TradeLens/internal/render"
	"TradeLens/internal/scheduler"
	"TradeLens/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart pages, run watched trades and answer Telegram commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			logger := app.Logger
			mock, _ := cmd.Flags().GetBool("mock")

			rec := app.openRecorder()
			defer rec.Close()
			p := app.newPipeline(app.newFetcher(mock), rec)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			board := render.NewMemoryBoard(
				collector.ContainerDaily,
				collector.ContainerWeekly,
				collector.ContainerMonthly,
				collector.ContainerSP500,
			)

			var sender scheduler.Sender
			var bot *notifier.Bot
			if cfg.TelegramEnabled() {
				bot = notifier.NewBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
				sender = bot
			}

			sched := scheduler.NewScheduler(ctx, p, sender, rec, board, cfg.Output.Dir, logger)
			if err := sched.RegisterAll(cfg.Schedule.Watch); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if bot != nil {
				go bot.StartPolling(ctx, sched.HandleCommand)
				logger.Info().Msg("telegram polling started")
			}

			if name, _ := cmd.Flags().GetString("run"); name != "" {
				go sched.RunNow(name)
			}

			srv := server.New(p, board, cfg.Input.Source, logger)
			err := srv.ListenAndServe(ctx, cfg.Server.Addr)
			logger.Info().Msg("TradeLens stopped")
			return err
		},
	}
	cmd.Flags().Bool("mock", false, "use synthetic data instead of the /data backend")
	cmd.Flags().String("run", "", "render the named watch entry once at startup")
	return cmd
}
