// Package emailrelay sends templated emails through an EmailJS-compatible
// HTTP relay.
package emailrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var ErrRelayRejected = errors.New("email relay rejected the request")

type Config struct {
	Endpoint    string
	ServiceID   string
	TemplateID  string
	UserID      string
	AccessToken string
	MaxRetries  uint64
	Timeout     time.Duration
}

type Message struct {
	// TemplateID overrides the configured template when set.
	TemplateID string
	Params     map[string]string
}

type payload struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

type Client struct {
	conf       Config
	httpClient *http.Client
	newBackOff func() backoff.BackOff
}

func NewClient(conf Config) *Client {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		conf:       conf,
		httpClient: &http.Client{Timeout: timeout},
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Enabled reports whether the client has credentials. A disabled client
// drops messages.
func (c *Client) Enabled() bool {
	return c.conf.Endpoint != "" && c.conf.ServiceID != ""
}

// Send posts msg to the relay. Server errors and transport failures are
// retried with exponential backoff; 4xx responses are not.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Enabled() {
		zap.L().Info("email relay disabled, dropping message", zap.String("to", msg.Params["to_email"]))
		return nil
	}

	templateID := msg.TemplateID
	if templateID == "" {
		templateID = c.conf.TemplateID
	}

	body, err := json.Marshal(payload{
		ServiceID:      c.conf.ServiceID,
		TemplateID:     templateID,
		UserID:         c.conf.UserID,
		AccessToken:    c.conf.AccessToken,
		TemplateParams: msg.Params,
	})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	attempt := 0
	op := func() error {
		attempt++
		return c.post(ctx, body)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.conf.MaxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		zap.L().Warn("email relay send failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return fmt.Errorf("c.post -> %w", err)
	}

	return nil
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conf.Endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("%w: status %d: %s", ErrRelayRejected, resp.StatusCode, bytes.TrimSpace(text))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return backoff.Permanent(err)
	}

	return err
}
