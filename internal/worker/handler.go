package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
)

// NotificationHandler turns order lifecycle events into customer emails via
// the email service. Delivery is best-effort by contract: the order flow has
// already committed by the time these events are consumed.
type NotificationHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewNotificationHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

// HandleOrderCreated sends the order confirmation. Cash-on-delivery orders
// often come in without an email address; those are skipped, not failed.
func (h *NotificationHandler) HandleOrderCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID)

	if event.Email == "" {
		h.logger.Info("no email on file, skipping confirmation", "order_id", event.OrderID)
		return nil
	}

	body := map[string]string{
		"to":      event.Email,
		"subject": "Confirmation de commande " + event.OrderID,
		"body": fmt.Sprintf("Bonjour %s, votre commande %s (%d article(s), total %.2f €) a bien été enregistrée. Paiement à la livraison.",
			event.Customer, event.OrderID, len(event.Items), float64(event.Total)/100),
	}
	if err := h.sendEmail(ctx, body); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("confirmation email sent", "order_id", event.OrderID)
	return nil
}

// HandleStatusChanged sends the shipping notice when an order enters
// expediee. Other transitions carry no notification.
func (h *NotificationHandler) HandleStatusChanged(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal status changed event: %w", err)
	}

	if event.NewStatus != domain.OrderStatusShipped || event.Email == "" {
		return nil
	}

	body := map[string]string{
		"to":      event.Email,
		"subject": "Votre commande " + event.OrderID + " a été expédiée",
		"body":    fmt.Sprintf("Votre commande %s est en route. Préparez le règlement pour la livraison.", event.OrderID),
	}
	if err := h.sendEmail(ctx, body); err != nil {
		return fmt.Errorf("send shipping email: %w", err)
	}

	h.logger.Info("shipping email sent", "order_id", event.OrderID)
	return nil
}

func (h *NotificationHandler) sendEmail(ctx context.Context, body map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
