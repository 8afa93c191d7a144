package service

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/events"
)

const webhookTimeout = 3 * time.Second

// NotificationService turns engine events into user-facing notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketDegraded, n.handleTicketDegraded)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
	n.dispatcher.Subscribe(events.EventTicketUpdateFailed, n.handleTicketUpdateFailed)
	n.dispatcher.Subscribe(events.EventPageLoadFailed, n.handlePageLoadFailed)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket submitted", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhook(ctx, event)
	return nil
}

// A degraded ticket still reaches the user, so this is a warning rather than an error.
func (n *NotificationService) handleTicketDegraded(ctx context.Context, event events.Event) error {
	n.logger.Warn("ticket saved without classification; it will be reviewed by support",
		zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket updated", zap.String("ticket_id", event.TicketID))
	n.sendWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketUpdateFailed(ctx context.Context, event events.Event) error {
	n.logger.Error("ticket update failed", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handlePageLoadFailed(ctx context.Context, event events.Event) error {
	n.logger.Error("ticket list could not be loaded", zap.Any("payload", event.Payload))
	return nil
}

// sendWebhook forwards event to the configured webhook. Delivery failures are
// logged and never surface to the publisher.
func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event) {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" || ctx.Err() != nil {
		return
	}
	agent := fiber.Post(url).JSON(event)
	agent.Timeout(webhookTimeout)
	status, _, errs := agent.Bytes()
	if len(errs) > 0 {
		n.logger.Warn("webhook delivery failed", zap.String("event_type", string(event.Type)), zap.Error(errs[0]))
		return
	}
	if status >= 300 {
		n.logger.Warn("webhook rejected event", zap.String("event_type", string(event.Type)), zap.Int("status", status))
		return
	}
	n.logger.Debug("webhook delivered", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID))
}
