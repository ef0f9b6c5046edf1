package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookPublisher posts events to an external HTTP endpoint, for driver-app
// backends that consume pushes instead of holding a websocket open.
type WebhookPublisher struct {
	Endpoint string
	Key      string // optional bearer token
	Client   *http.Client
}

func NewWebhookPublisher(endpoint, key string) *WebhookPublisher {
	return &WebhookPublisher{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (p *WebhookPublisher) Publish(evt Event) error {
	body := map[string]any{"type": evt.Type, "target": evt.Target, "data": evt.Data}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, p.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
