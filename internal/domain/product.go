package domain

// SizeStock is one entry of a size-keyed counter: the stock held for a
// single size, either directly under a product or under one of its colors.
type SizeStock struct {
	Name  string `json:"nom"`
	Stock int    `json:"stock"`
}

// Color is a product variant identified by name. Stock is carried by exactly
// one of: the flat Stock counter, the SizeStocks entries, or (legacy shape)
// a comma-separated LegacySizes list sharing the flat counter.
type Color struct {
	Name        string      `json:"nom"`
	Stock       *int        `json:"stock,omitempty"`
	LegacySizes string      `json:"taille,omitempty"`
	SizeStocks  []SizeStock `json:"tailles,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
}

type Product struct {
	ID        string `json:"id"`
	Name      string `json:"nom"`
	Price     int64  `json:"prix"`
	ImageURL  string `json:"image_url,omitempty"`
	HasColors bool   `json:"a_couleurs"`
	Stock     *int   `json:"stock,omitempty"`
	// LegacySizes is the pre-migration comma-separated size list. When set
	// and SizeStocks is empty, every listed size shares the flat counter.
	LegacySizes string      `json:"taille,omitempty"`
	SizeStocks  []SizeStock `json:"tailles,omitempty"`
	Colors      []Color     `json:"couleurs,omitempty"`
}

// ColorByName returns the color with the given name, matched
// case-sensitively, or nil.
func (p *Product) ColorByName(name string) *Color {
	for i := range p.Colors {
		if p.Colors[i].Name == name {
			return &p.Colors[i]
		}
	}
	return nil
}
