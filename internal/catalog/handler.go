package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
)

// ProductStore is the read model the handler serves from.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type Handler struct {
	products ProductStore
	logger   *slog.Logger
}

func NewHandler(products ProductStore, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		logger:   logger,
	}
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "identifiant produit manquant")
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "produit introuvable")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

// stockView is the trimmed shape the cart guard polls before every local
// cart mutation: counters only, no pricing or presentation fields.
type stockView struct {
	Stock       *int               `json:"stock,omitempty"`
	LegacySizes string             `json:"taille,omitempty"`
	SizeStocks  []domain.SizeStock `json:"tailles,omitempty"`
	Colors      []domain.Color     `json:"couleurs,omitempty"`
}

func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "identifiant produit manquant")
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product stock", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "produit introuvable")
		return
	}

	h.writeJSON(w, http.StatusOK, stockView{
		Stock:       product.Stock,
		LegacySizes: product.LegacySizes,
		SizeStocks:  product.SizeStocks,
		Colors:      product.Colors,
	})
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
