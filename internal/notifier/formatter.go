package notifier

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"TradeLens/internal/pipeline"
	"TradeLens/internal/recorder"
)

// FormatCycle summarizes a finished update cycle.
func FormatCycle(cycle *pipeline.Cycle, err error) string {
	var b strings.Builder

	symbol := html.EscapeString(cycle.Inputs.Symbol)
	if err != nil {
		b.WriteString(fmt.Sprintf("❌ <b>Chart update failed</b> | %s\n\n", symbol))
		var step *pipeline.StepError
		if errors.As(err, &step) {
			b.WriteString(fmt.Sprintf("Failed at: %s\n", step.Container))
		}
		b.WriteString(fmt.Sprintf("Error: %s\n", html.EscapeString(err.Error())))
	} else {
		b.WriteString(fmt.Sprintf("📈 <b>Charts updated</b> | %s\n\n", symbol))
	}

	if len(cycle.Rendered) > 0 {
		b.WriteString(fmt.Sprintf("Rendered: %s\n", strings.Join(cycle.Rendered, ", ")))
	}
	b.WriteString(fmt.Sprintf("Cycle: <code>%s</code>", cycle.ID))
	return b.String()
}

// FormatHistory lists recent cycles, newest first.
func FormatHistory(cycles []recorder.CycleRecord) string {
	if len(cycles) == 0 {
		return "No chart updates recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent chart updates</b>\n\n")
	for _, c := range cycles {
		icon := "✅"
		if c.Status != recorder.StatusOK {
			icon = "❌"
		}
		b.WriteString(fmt.Sprintf("%s %s %s via %s (%d charts)\n",
			icon,
			c.StartedAt.Format("2006-01-02 15:04"),
			html.EscapeString(c.Symbol),
			c.Trigger,
			len(c.Charts)))
		if c.Error != "" {
			b.WriteString(fmt.Sprintf("   %s\n", html.EscapeString(c.Error)))
		}
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /chart symbol=aapl&amp;tradeEnterDate=2023-01-01&amp;buyPrice=150&amp;... render a trade\n" +
		"• /watch &lt;name&gt; re-render a watched trade now\n" +
		"• /history recent chart updates"
}
