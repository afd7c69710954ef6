package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
)

type emailCapture struct {
	mu     sync.Mutex
	emails []map[string]string
}

func (e *emailCapture) handler(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.emails = append(e.emails, req)
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"status":"sent"}`)
}

func (e *emailCapture) getEmails() []map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]map[string]string, len(e.emails))
	copy(result, e.emails)
	return result
}

func newTestHandler(t *testing.T) (*NotificationHandler, *emailCapture) {
	t.Helper()
	capture := &emailCapture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" {
			t.Errorf("expected /send, got %s", r.URL.Path)
		}
		capture.handler(w, r)
	}))
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNotificationHandler(server.URL, server.Client(), logger), capture
}

func TestHandleOrderCreated_SendsConfirmation(t *testing.T) {
	handler, capture := newTestHandler(t)

	event := domain.OrderCreatedEvent{
		OrderID:   "order-1",
		Customer:  "Amine Kaci",
		Email:     "amine@example.com",
		Items:     []domain.LineItem{{ProductID: "PRD-1", Quantity: 2}},
		Total:     259800,
		Timestamp: time.Now().UTC(),
	}
	payload, _ := json.Marshal(event)

	if err := handler.HandleOrderCreated(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	emails := capture.getEmails()
	if len(emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(emails))
	}
	if emails[0]["to"] != "amine@example.com" {
		t.Errorf("unexpected recipient: %s", emails[0]["to"])
	}
	if !strings.Contains(emails[0]["subject"], "order-1") {
		t.Errorf("subject must name the order, got: %s", emails[0]["subject"])
	}
}

func TestHandleOrderCreated_SkipsWithoutEmail(t *testing.T) {
	handler, capture := newTestHandler(t)

	payload, _ := json.Marshal(domain.OrderCreatedEvent{OrderID: "order-2", Customer: "Sonia B"})

	if err := handler.HandleOrderCreated(context.Background(), payload); err != nil {
		t.Fatalf("missing email must not be an error: %v", err)
	}
	if len(capture.getEmails()) != 0 {
		t.Error("no email should be sent without a recipient")
	}
}

func TestHandleOrderCreated_MalformedPayload(t *testing.T) {
	handler, _ := newTestHandler(t)
	if err := handler.HandleOrderCreated(context.Background(), []byte(`{not json`)); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestHandleStatusChanged(t *testing.T) {
	t.Run("shipped with email notifies", func(t *testing.T) {
		handler, capture := newTestHandler(t)
		payload, _ := json.Marshal(domain.OrderStatusChangedEvent{
			OrderID:   "order-3",
			Email:     "lina@example.com",
			OldStatus: domain.OrderStatusPending,
			NewStatus: domain.OrderStatusShipped,
		})

		if err := handler.HandleStatusChanged(context.Background(), payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		emails := capture.getEmails()
		if len(emails) != 1 {
			t.Fatalf("expected 1 email, got %d", len(emails))
		}
		if !strings.Contains(emails[0]["subject"], "expédiée") {
			t.Errorf("expected shipping subject, got: %s", emails[0]["subject"])
		}
	})

	t.Run("non-shipped transition is silent", func(t *testing.T) {
		handler, capture := newTestHandler(t)
		payload, _ := json.Marshal(domain.OrderStatusChangedEvent{
			OrderID:   "order-4",
			Email:     "lina@example.com",
			OldStatus: domain.OrderStatusShipped,
			NewStatus: domain.OrderStatusDelivered,
		})

		if err := handler.HandleStatusChanged(context.Background(), payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(capture.getEmails()) != 0 {
			t.Error("delivered transition must not email")
		}
	})
}

func TestSendEmail_FailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewNotificationHandler(server.URL, server.Client(), logger)

	payload, _ := json.Marshal(domain.OrderCreatedEvent{OrderID: "order-5", Email: "x@example.com"})
	if err := handler.HandleOrderCreated(context.Background(), payload); err == nil {
		t.Fatal("expected error when the email service fails")
	}
}
