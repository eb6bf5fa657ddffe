// Package telegram delivers alerts and reports to Telegram chats via
// the bot API. Alerts and reports may target different chats from the
// same bot.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier posts plain-text messages through one bot. The base URL is
// overridable for tests.
type Notifier struct {
	baseURL      string
	botToken     string
	alertChatID  string
	reportChatID string
	client       *http.Client
}

var (
	_ domain.AlertSink  = (*Notifier)(nil)
	_ domain.ReportSink = (*Notifier)(nil)
)

func NewNotifier(botToken, alertChatID, reportChatID string) *Notifier {
	return &Notifier{
		baseURL:      defaultBaseURL,
		botToken:     botToken,
		alertChatID:  alertChatID,
		reportChatID: reportChatID,
		client:       &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *Notifier) WithBaseURL(base string) *Notifier {
	n.baseURL = strings.TrimRight(base, "/")
	return n
}

// SendAlert posts the rendered defect complaint to the alert chat.
func (n *Notifier) SendAlert(ctx context.Context, ev domain.AlertEvent, rendered string) error {
	return n.send(ctx, n.alertChatID, rendered)
}

// SendReport posts the subject line followed by the report body to the
// report chat.
func (n *Notifier) SendReport(ctx context.Context, subject, body string) error {
	return n.send(ctx, n.reportChatID, subject+"\n\n"+body)
}

func (n *Notifier) send(ctx context.Context, chatID, text string) error {
	if n.botToken == "" || chatID == "" {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		observability.ObserveExternal("telegram", "sendMessage", 0, time.Since(start))
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("telegram", "sendMessage", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}
