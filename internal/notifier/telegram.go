package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultAPIBase   = "https://api.telegram.org"
	defaultRetryBase = time.Second
	maxErrorBody     = 512
)

// Bot sends chart updates to one Telegram chat and answers its commands.
type Bot struct {
	Token   string
	ChatID  string
	APIBase string
	HTTP    *http.Client
	// RetryBase is the first SendWithRetry delay. It doubles per attempt.
	RetryBase time.Duration
	Logger    zerolog.Logger
}

// NewBot creates a Bot. An unparsable proxy URL is logged and ignored.
func NewBot(token, chatID, proxyURL string, logger zerolog.Logger) *Bot {
	logger = logger.With().Str("component", "telegram").Logger()
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			logger.Warn().Err(err).Msg("invalid proxy url, connecting directly")
		} else {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Bot{
		Token:     token,
		ChatID:    chatID,
		APIBase:   defaultAPIBase,
		HTTP:      &http.Client{Timeout: 30 * time.Second, Transport: transport},
		RetryBase: defaultRetryBase,
		Logger:    logger,
	}
}

// APIError is a Bot API call the server rejected.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.StatusCode, e.Description)
}

// Temporary reports whether the same call may succeed later.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// envelope wraps every Bot API response.
type envelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// call posts params as JSON to method and decodes the result field into out.
func (b *Bot) call(ctx context.Context, client *http.Client, method string, params, out interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("telegram %s: encode: %w", method, err)
	}
	endpoint := b.APIBase + "/bot" + b.Token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram %s: read: %w", method, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)
	if resp.StatusCode != http.StatusOK || (decodeErr == nil && !env.OK) {
		apiErr := &APIError{Method: method, StatusCode: resp.StatusCode, Description: env.Description}
		if apiErr.Description == "" {
			apiErr.Description = truncate(strings.TrimSpace(string(data)), maxErrorBody)
		}
		if env.Parameters != nil {
			apiErr.RetryAfter = time.Duration(env.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("telegram %s: decode: %w", method, decodeErr)
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

type outgoingMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// Send posts an HTML message to the configured chat.
func (b *Bot) Send(ctx context.Context, text string) error {
	return b.call(ctx, b.HTTP, "sendMessage", outgoingMessage{
		ChatID:                b.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}, nil)
}

// SendWithRetry retries transport failures, 429 and 5xx replies up to
// maxRetries times. Other API errors are returned at once.
func (b *Bot) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	base := b.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	var err error
	for attempt := 0; ; attempt++ {
		if err = b.Send(ctx, text); err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return err
		}
		if attempt >= maxRetries {
			break
		}
		wait := base << uint(attempt)
		if apiErr != nil && apiErr.RetryAfter > 0 {
			wait = apiErr.RetryAfter
		}
		b.Logger.Warn().Err(err).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("telegram send failed")
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("telegram send gave up after %d attempts: %w", maxRetries+1, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
