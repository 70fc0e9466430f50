package notifier

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	pollTimeout = 30 * time.Second
	pollBackoff = 5 * time.Second
)

// CommandHandler answers one chat command. An empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string) string

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type getUpdatesParams struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

func (b *Bot) getUpdates(ctx context.Context, client *http.Client, offset int64) ([]update, error) {
	var updates []update
	err := b.call(ctx, client, "getUpdates", getUpdatesParams{
		Offset:         offset,
		Timeout:        int(pollTimeout / time.Second),
		AllowedUpdates: []string{"message"},
	}, &updates)
	return updates, err
}

// StartPolling long-polls for commands and answers those sent from the
// configured chat. It returns when ctx is done.
func (b *Bot) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: pollTimeout + 5*time.Second, Transport: b.HTTP.Transport}
	var offset int64
	for ctx.Err() == nil {
		updates, err := b.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			b.Logger.Warn().Err(err).Msg("telegram poll failed")
			sleep(ctx, pollBackoff)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			b.dispatch(ctx, u, handler)
		}
	}
	b.Logger.Info().Msg("telegram polling stopped")
}

func (b *Bot) dispatch(ctx context.Context, u update, handler CommandHandler) {
	if u.Message == nil {
		return
	}
	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return
	}
	if want, err := strconv.ParseInt(b.ChatID, 10, 64); err == nil && u.Message.Chat.ID != want {
		b.Logger.Warn().Int64("chat_id", u.Message.Chat.ID).Msg("command from another chat ignored")
		return
	}
	b.Logger.Info().Str("command", text).Msg("telegram command")
	reply := handler(ctx, text)
	if reply == "" {
		return
	}
	if err := b.Send(ctx, reply); err != nil {
		b.Logger.Error().Err(err).Msg("telegram reply failed")
	}
}
