package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pingwatch/internal/incident"

	"github.com/rs/zerolog/log"
)

// Webhook forwards incidents to an HTTP endpoint as JSON.
type Webhook struct {
	URL    string
	Client *http.Client
}

type webhookPayload struct {
	Module    string            `json:"module"`
	Event     string            `json:"event"`
	Severity  incident.Severity `json:"severity"`
	Message   string            `json:"message"`
	URL       string            `json:"url"`
	Check     int64             `json:"check"`
	LatencyMS int64             `json:"latency_ms"`
	Timestamp time.Time         `json:"timestamp"`
	Tags      []string          `json:"tags"`
}

func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}

	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Notify(ctx context.Context, rec incident.Record) error {
	payload := webhookPayload{
		Module:    "pingwatch",
		Event:     "probe_" + string(rec.Type),
		Severity:  rec.Type.Severity(),
		Message:   rec.Detail,
		URL:       rec.URL,
		Check:     rec.Check,
		LatencyMS: rec.Latency.Milliseconds(),
		Timestamp: rec.Timestamp,
		Tags:      []string{"uptime", "monitoring"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request for %s: %w", w.URL, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := w.Client.Do(request)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", w.URL, err)
	}
	defer response.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
	if response.StatusCode/100 != 2 {
		return fmt.Errorf("webhook returned status code %d. Body: %s", response.StatusCode, string(respBody))
	}

	log.Debug().Str("url", rec.URL).Int64("check", rec.Check).Msg("[webhook] incident forwarded")
	return nil
}
