package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ops-kit/opsconsole/internal/config"
	"github.com/ops-kit/opsconsole/internal/events"
)

// NotificationService mirrors domain events to the log and, when
// configured, to an outbound webhook.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketCommented, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventLoginSucceeded, n.handleAuthEvent)
	n.dispatcher.Subscribe(events.EventTokenRefreshed, n.handleAuthEvent)
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	n.postWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleAuthEvent(_ context.Context, event events.Event) error {
	n.logger.Info("auth event",
		zap.String("event_type", string(event.Type)),
		zap.Any("payload", event.Payload),
		zap.Time("timestamp", event.Timestamp))
	return nil
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("notification webhook failed", zap.Error(err))
		return
	}
	_ = resp.Body.Close()
}
