package concierge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/saltline-charters/api/internal/platform/config"
	"github.com/saltline-charters/api/internal/platform/requestctx"
	"github.com/saltline-charters/api/internal/services"
)

// WebhookNotifier delivers concierge hand-off requests to a staff webhook.
// When no webhook is configured the notifier degrades to structured logging,
// so local environments still surface the hand-off.
type WebhookNotifier struct {
	webhookURL string
	httpClient *http.Client
}

// NotifierOption customises the notifier.
type NotifierOption func(*WebhookNotifier)

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(httpClient *http.Client) NotifierOption {
	return func(n *WebhookNotifier) {
		if httpClient != nil {
			n.httpClient = httpClient
		}
	}
}

// NewWebhookNotifier constructs the notifier from configuration.
func NewWebhookNotifier(cfg config.ConciergeConfig, opts ...NotifierOption) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	notifier := &WebhookNotifier{
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(notifier)
		}
	}
	return notifier
}

type conciergePayload struct {
	SessionID    string `json:"session_id"`
	OfferingSlug string `json:"offering_slug"`
	GuestCount   int    `json:"guest_count"`
	Reason       string `json:"reason"`
}

// NotifyConcierge posts the hand-off request to the configured webhook.
func (n *WebhookNotifier) NotifyConcierge(ctx context.Context, req services.ConciergeRequest) error {
	if n == nil {
		return errors.New("concierge notifier: not initialised")
	}

	logger := requestctx.Logger(ctx)

	if n.webhookURL == "" {
		logger.Info("concierge hand-off requested",
			zap.String("session_id", req.SessionID),
			zap.String("offering_slug", req.OfferingSlug),
			zap.Int("guest_count", req.GuestCount),
			zap.String("reason", string(req.Reason)),
		)
		return nil
	}

	payload := conciergePayload{
		SessionID:    req.SessionID,
		OfferingSlug: req.OfferingSlug,
		GuestCount:   req.GuestCount,
		Reason:       string(req.Reason),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("concierge notifier: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("concierge notifier: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("concierge notifier: deliver request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("concierge notifier: webhook returned status %d", resp.StatusCode)
	}

	logger.Info("concierge hand-off delivered",
		zap.String("session_id", req.SessionID),
		zap.String("offering_slug", req.OfferingSlug),
	)
	return nil
}

var _ services.ConciergeNotifier = (*WebhookNotifier)(nil)
