package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
	"github.com/selim-rachidi/boutiqa-backend/internal/stock"
)

type updateStatusRequest struct {
	NewStatus domain.OrderStatus `json:"nouveau_statut"`
}

// HandleUpdateStatus applies an admin status transition. The repository
// update is conditional on the status we read, so the stock side effects
// below fire exactly once per old→new edge:
//
//   - entering annulee restores every line item's counter,
//   - leaving annulee re-deducts them,
//   - entering expediee notifies the customer when an email is on file.
//
// Any status may move to any other; only the side effects differ.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "identifiant de commande manquant")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "requête invalide")
		return
	}
	if !domain.ValidStatus(req.NewStatus) {
		h.writeError(w, http.StatusBadRequest, "statut invalide: "+string(req.NewStatus))
		return
	}

	order, err := h.orders.GetByID(ctx, id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "commande introuvable")
		return
	}

	oldStatus := order.Status
	if oldStatus == req.NewStatus {
		h.writeJSON(w, http.StatusOK, order)
		return
	}

	ok, err := h.orders.UpdateStatus(ctx, id, oldStatus, req.NewStatus)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}
	if !ok {
		h.writeError(w, http.StatusConflict, "la commande a été modifiée entre-temps")
		return
	}
	order.Status = req.NewStatus

	switch {
	case req.NewStatus == domain.OrderStatusCancelled:
		h.restoreStock(ctx, order)
	case oldStatus == domain.OrderStatusCancelled:
		h.redeductStock(ctx, order)
	}

	if req.NewStatus == domain.OrderStatusShipped && order.Email != "" && h.publisher != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:   order.ID,
			Email:     order.Email,
			OldStatus: oldStatus,
			NewStatus: req.NewStatus,
			Timestamp: time.Now().UTC(),
		}
		if err := h.publisher.Publish(ctx, order.ID, event); err != nil {
			h.logger.Error("failed to publish status changed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order status updated", "order_id", order.ID, "from", oldStatus, "to", req.NewStatus)
	h.writeJSON(w, http.StatusOK, order)
}

// restoreStock returns each line item's quantity to the counter recorded in
// the snapshot. One item's failure never blocks the others or the status
// change itself.
func (h *Handler) restoreStock(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		if err := h.stocks.Increment(ctx, counterKey(item), item.Quantity); err != nil {
			h.logger.Error("failed to restore stock", "error", err,
				"order_id", order.ID, "product_id", item.ProductID, "color", item.Color, "size", item.Size)
		}
	}
}

// redeductStock re-claims the line items of an order leaving annulee. Stock
// may have been sold in the meantime; a failed conditional decrement is
// logged but does not block the transition, so the order can come back
// without guaranteed backing stock. That is the storefront's long-standing
// contract, ambiguous as it is.
func (h *Handler) redeductStock(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		ok, err := h.stocks.Decrement(ctx, counterKey(item), item.Quantity)
		if err != nil {
			h.logger.Error("failed to re-deduct stock", "error", err,
				"order_id", order.ID, "product_id", item.ProductID, "color", item.Color, "size", item.Size)
			continue
		}
		if !ok {
			h.logger.Warn("insufficient stock while re-deducting after un-cancel",
				"order_id", order.ID, "product_id", item.ProductID,
				"color", item.Color, "size", item.Size, "quantity", item.Quantity)
		}
	}
}

// counterKey rebuilds the decrement key from the snapshot. A line with a
// size but SizeSpecific=false was sold through the legacy size list and
// must hit the shared parent counter, not a size row.
func counterKey(item domain.LineItem) stock.CounterKey {
	key := stock.CounterKey{ProductID: item.ProductID, Color: item.Color}
	if item.SizeSpecific {
		key.Size = item.Size
		key.SizeKeyed = true
	}
	return key
}

// AdminOnly guards the admin endpoints with the console's shared token.
// Session verification proper lives outside this service.
func AdminOnly(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token == "" || r.Header.Get("X-Admin-Token") != token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentification administrateur requise"}`))
			return
		}
		next(w, r)
	}
}
