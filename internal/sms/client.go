// Package sms is the outbound SMS gateway client.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nurture_backend/platform/apperr"
	"nurture_backend/platform/config"
	"nurture_backend/platform/logger"

	"golang.org/x/time/rate"
)

// Client talks to the SMS gateway. A nil client (gateway unconfigured)
// silently accepts sends so non-production environments work without a
// provider.
type Client struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

type sendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

// NewClient builds a gateway client, or nil when no gateway URL is
// configured. The limiter caps provider throughput across all workers.
func NewClient(cfg config.SMSConfig, log *logger.Logger) *Client {
	if !cfg.IsSMSEnabled() {
		return nil
	}
	perSecond := cfg.GetSMSRatePerSecond()
	if perSecond <= 0 {
		perSecond = 10
	}
	// Fractional rates truncate to a zero burst, which would block every
	// Wait; one token of burst keeps sub-1/s throttles functional.
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	timeout := cfg.GetSMSSendTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.GetSMSGatewayURL(), "/"),
		apiKey:  cfg.GetSMSGatewayKey(),
		from:    cfg.GetSMSFromNumber(),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		log:     log,
	}
}

// Send dispatches one text and returns the provider's message id.
// Blocks on the rate limiter until a slot is free or ctx expires.
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
	if c == nil {
		return "", nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", apperr.Transport("rate limiter wait cancelled", err)
	}

	payload, err := json.Marshal(sendRequest{To: to, From: c.from, Message: body})
	if err != nil {
		return "", fmt.Errorf("marshal sms payload: %w", err)
	}

	url := c.baseURL + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Transport("sms gateway request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return "", apperr.Transport(
			fmt.Sprintf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))),
			nil,
		)
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Some gateways return an empty 2xx body. The send still happened.
		c.log.Warn("sms gateway response not decodable", "error", err)
		return "", nil
	}

	c.log.Info("sms sent", "to", to, "providerMessageId", result.MessageID)
	return result.MessageID, nil
}
