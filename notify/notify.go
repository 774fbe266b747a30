package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sociallink/config"
	"sociallink/utils"
	"time"

	"go.uber.org/zap"
)

const (
	EventUserRegistered = "user.registered"
	EventUserBanned     = "user.banned"
	EventMotdUpdated    = "motd.updated"
)

var httpClient = http.Client{Timeout: 10 * time.Second}

// Event is accepted as-is by Discord-compatible webhooks (they read "content")
type Event struct {
	Type    string            `json:"type"`
	Content string            `json:"content"`
	Data    map[string]string `json:"data,omitempty"`
}

func (event *Event) Send() error {
	return event.SendTo(config.WEBHOOK_URL)
}

func (event *Event) SendTo(url string) error {
	buf := bytes.Buffer{}
	if err := json.NewEncoder(&buf).Encode(*event); err != nil {
		return err
	}
	resp, err := httpClient.Post(url, "application/json", &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		buf.Reset()
		_, _ = io.Copy(&buf, io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status: %d, %s", resp.StatusCode, buf.String())
	}
	return nil
}

// Publish sends the event in the background. Failures are only logged.
func Publish(event Event) {
	if config.WEBHOOK_URL == "" {
		return
	}
	url := config.WEBHOOK_URL
	go func() {
		if err := event.SendTo(url); err != nil {
			utils.Log.Warn("webhook failed", zap.String("type", event.Type), zap.Error(err))
		}
	}()
}
