// Package push delivers mobile push notifications for service request
// updates through Firebase Cloud Messaging.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"promise_backend/platform/config"
)

// ErrInvalidToken means the provider no longer accepts the device token.
var ErrInvalidToken = errors.New("push: invalid device token")

// Message is one push notification to one device
type Message struct {
	Token string            `json:"-"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"-"`
}

// Sender delivers a single message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// FCMSender talks to the FCM HTTP endpoint
type FCMSender struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
}

// NewFCMSender builds a sender from configuration
func NewFCMSender(cfg config.PushConfig) *FCMSender {
	return &FCMSender{
		endpoint:   cfg.GetFCMEndpoint(),
		serverKey:  cfg.GetFCMServerKey(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Send posts the message and classifies token failures
func (s *FCMSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(fcmRequest{
		To:           msg.Token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
		Priority:     "high",
	})
	if err != nil {
		return fmt.Errorf("encode fcm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fcm returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var parsed fcmResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("decode fcm response: %w", err)
	}
	if parsed.Failure == 0 {
		return nil
	}
	for _, result := range parsed.Results {
		switch result.Error {
		case "":
		case "NotRegistered", "InvalidRegistration", "MismatchSenderId":
			return fmt.Errorf("%w: %s", ErrInvalidToken, result.Error)
		default:
			return fmt.Errorf("fcm delivery failed: %s", result.Error)
		}
	}
	return fmt.Errorf("fcm delivery failed")
}

var _ Sender = (*FCMSender)(nil)
