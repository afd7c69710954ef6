package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "en_attente"
	OrderStatusShipped   OrderStatus = "expediee"
	OrderStatusDelivered OrderStatus = "livree"
	OrderStatusCancelled OrderStatus = "annulee"
)

// ValidStatus reports whether s is one of the four order statuses.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// LineItem is the frozen snapshot of one purchased product: name, unit price
// and image are copied at order time and never re-read from the catalog.
type LineItem struct {
	ID          string `json:"id"`
	ProductID   string `json:"produit_id"`
	ProductName string `json:"nom"`
	Quantity    int    `json:"quantite"`
	UnitPrice   int64  `json:"prix_unitaire"`
	Color       string `json:"couleur,omitempty"`
	Size        string `json:"taille,omitempty"`
	// SizeSpecific records whether the size-keyed counter was debited for
	// this line. Cancellation must restore the same counter.
	SizeSpecific bool   `json:"taille_comptee"`
	ImageURL     string `json:"image_url,omitempty"`
}

type Order struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"nom"`
	Phone        string      `json:"telephone"`
	Address      string      `json:"adresse"`
	City         string      `json:"ville"`
	Email        string      `json:"email,omitempty"`
	Items        []LineItem  `json:"produits"`
	Total        int64       `json:"total"`
	Status       OrderStatus `json:"statut"`
	CreatedAt    time.Time   `json:"created_at"`
}
