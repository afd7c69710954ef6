package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
	"github.com/selim-rachidi/boutiqa-backend/internal/ratelimit"
	"github.com/selim-rachidi/boutiqa-backend/internal/stock"
	"github.com/selim-rachidi/boutiqa-backend/internal/telemetry"
	"github.com/selim-rachidi/boutiqa-backend/internal/variant"
)

// ProductStore reads the authoritative product row; nil means unknown id.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// StockStore is the atomic decrement protocol. Every stock write in the
// system goes through it; nothing else may touch a counter.
type StockStore interface {
	Decrement(ctx context.Context, key stock.CounterKey, qty int) (bool, error)
	Increment(ctx context.Context, key stock.CounterKey, qty int) error
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
	List(ctx context.Context) ([]domain.Order, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Handler struct {
	products  ProductStore
	stocks    StockStore
	orders    OrderStore
	publisher EventPublisher
	limiter   *ratelimit.SlidingWindow
	metrics   *telemetry.IntakeMetrics
	logger    *slog.Logger
}

func NewHandler(products ProductStore, stocks StockStore, orders OrderStore, limiter *ratelimit.SlidingWindow, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		stocks:   stocks,
		orders:   orders,
		limiter:  limiter,
		logger:   logger,
	}
}

// WithPublisher attaches the Kafka producer. Publishing stays best-effort;
// a nil publisher just skips the events.
func (h *Handler) WithPublisher(p EventPublisher) *Handler {
	h.publisher = p
	return h
}

func (h *Handler) WithMetrics(m *telemetry.IntakeMetrics) *Handler {
	h.metrics = m
	return h
}

type intakeItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantite"`
	Color    string `json:"couleur"`
	Size     string `json:"taille"`
	// Price is what the client claims to have seen. It is decoded so stale
	// carts do not fail schema validation, and then ignored: the total only
	// ever comes from server-fetched prices.
	Price int64 `json:"prix"`
}

type createOrderRequest struct {
	Name    string       `json:"nom"`
	Phone   string       `json:"telephone"`
	Address string       `json:"adresse"`
	City    string       `json:"ville"`
	Email   string       `json:"email"`
	Items   []intakeItem `json:"produits"`
}

func (req *createOrderRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("le nom est requis")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return errors.New("le téléphone est requis")
	}
	if strings.TrimSpace(req.Address) == "" {
		return errors.New("l'adresse est requise")
	}
	if strings.TrimSpace(req.City) == "" {
		return errors.New("la ville est requise")
	}
	if len(req.Items) == 0 {
		return errors.New("la commande ne contient aucun produit")
	}
	for i, item := range req.Items {
		if item.ID == "" {
			return fmt.Errorf("produit %d: identifiant manquant", i+1)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("produit %d: quantité invalide", i+1)
		}
	}
	return nil
}

// HandleCreate is the single order intake entry point. Phase A validates
// everything and persists the order; phase B decrements stock and notifies,
// best-effort, after the order already exists. The two phases are
// deliberately not one transaction: a decrement lost to a race is logged,
// never used to roll back a placed order.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if ok, retryAfter := h.limiter.Allow(clientKey(r)); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
		h.writeError(w, http.StatusTooManyRequests, "trop de requêtes, veuillez réessayer plus tard")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "requête invalide")
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Phase A: re-resolve and re-check every line against live stock, price
	// it from the server row, then persist the snapshot. Nothing is mutated
	// until all lines pass.
	items := make([]domain.LineItem, 0, len(req.Items))
	keys := make([]stock.CounterKey, 0, len(req.Items))
	var total int64

	for _, line := range req.Items {
		product, err := h.products.GetProduct(ctx, line.ID)
		if err != nil {
			h.logger.Error("failed to fetch product", "error", err, "product_id", line.ID)
			h.writeError(w, http.StatusInternalServerError, "erreur interne")
			return
		}
		if product == nil {
			h.writeError(w, http.StatusBadRequest, "produit introuvable: "+line.ID)
			return
		}

		res, err := variant.Resolve(product, variant.Selection{Color: line.Color, Size: line.Size})
		if err != nil {
			h.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("variante indisponible pour %s%s", product.Name, variantLabel(line.Color, line.Size)))
			return
		}

		if res.Available < line.Quantity {
			h.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("stock insuffisant pour %s%s: %d disponible(s)",
					product.Name, variantLabel(line.Color, line.Size), res.Available))
			return
		}

		total += product.Price * int64(line.Quantity)
		items = append(items, domain.LineItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     line.Quantity,
			UnitPrice:    product.Price,
			Color:        line.Color,
			Size:         line.Size,
			SizeSpecific: res.SizeSpecific,
			ImageURL:     imageFor(product, line.Color),
		})
		keys = append(keys, res.Key)
	}

	order := &domain.Order{
		CustomerName: req.Name,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		Email:        req.Email,
		Items:        items,
		Total:        total,
		Status:       domain.OrderStatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.orders.Create(ctx, order); err != nil {
		h.logger.Error("failed to create order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	if h.metrics != nil {
		h.metrics.OrdersCreated.Add(ctx, 1)
	}

	// Phase B: the order exists; decrement each line's counter. A failed
	// conditional decrement means another checkout won the race since phase
	// A re-checked. Log it and move on.
	for i, item := range order.Items {
		ok, err := h.stocks.Decrement(ctx, keys[i], item.Quantity)
		if err != nil {
			h.logger.Error("stock decrement failed", "error", err,
				"order_id", order.ID, "product_id", item.ProductID, "color", item.Color, "size", item.Size)
			continue
		}
		if !ok {
			h.logger.Warn("decrement race: stock claimed between validation and decrement",
				"order_id", order.ID, "product_id", item.ProductID,
				"color", item.Color, "size", item.Size, "quantity", item.Quantity)
			if h.metrics != nil {
				h.metrics.DecrementRaces.Add(ctx, 1)
			}
		}
	}

	if h.publisher != nil {
		event := domain.OrderCreatedEvent{
			OrderID:   order.ID,
			Customer:  order.CustomerName,
			Email:     order.Email,
			Items:     order.Items,
			Total:     order.Total,
			Timestamp: order.CreatedAt,
		}
		if err := h.publisher.Publish(ctx, order.ID, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order created", "order_id", order.ID, "total", order.Total, "items", len(order.Items))
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "identifiant de commande manquant")
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "commande introuvable")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func variantLabel(color, size string) string {
	switch {
	case color != "" && size != "":
		return fmt.Sprintf(" (couleur %s, taille %s)", color, size)
	case color != "":
		return fmt.Sprintf(" (couleur %s)", color)
	case size != "":
		return fmt.Sprintf(" (taille %s)", size)
	}
	return ""
}

// imageFor snapshots the color-specific image when the color carries one.
func imageFor(p *domain.Product, colorName string) string {
	if colorName != "" {
		if color := p.ColorByName(colorName); color != nil && color.ImageURL != "" {
			return color.ImageURL
		}
	}
	return p.ImageURL
}

// retryAfterSeconds rounds the limiter's wait up to whole seconds for the
// Retry-After header, never below one. Rounding up (instead of truncate
// plus one) keeps a full-window wait at the window itself.
func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// clientKey identifies the originating client for rate limiting: the first
// X-Forwarded-For hop when the gateway fronts us, else the peer address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
