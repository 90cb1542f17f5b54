package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fleetpay/topup-gateway/internal/models"
)

// Notifier is told about drivers seen by roster sync for the first time.
type Notifier interface {
	NewDriver(ctx context.Context, a models.Account, phone string) error
}

// Nop is used when no bot token is configured.
type Nop struct{}

func (Nop) NewDriver(context.Context, models.Account, string) error { return nil }

// Telegram posts an admin message per new driver via the Bot API.
type Telegram struct {
	token  string
	chatID string
	client *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (t *Telegram) NewDriver(ctx context.Context, a models.Account, phone string) error {
	if phone == "" {
		phone = "—"
	}
	text := fmt.Sprintf(
		"🔔 <b>New driver joined the park</b>\n\n👤 <b>Name:</b> %s\n📞 <b>Phone:</b> %s\n🆔 <b>ID:</b> <code>%s</code>\n💳 <b>Account:</b> <code>%s</code>",
		a.Name, phone, a.DriverID, a.VirtualID,
	)
	raw, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage: status %d", res.StatusCode)
	}
	return nil
}
