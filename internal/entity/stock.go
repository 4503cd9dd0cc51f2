package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// StockCategory names one of the toggleable menu collections.
type StockCategory string

const (
	CategoryFlavors  StockCategory = "sabores"
	CategoryFillings StockCategory = "recheios"
	CategoryAddons   StockCategory = "adicionais"
)

// StockCategories lists the menu collections in display order.
var StockCategories = []StockCategory{CategoryFlavors, CategoryFillings, CategoryAddons}

// Valid reports whether c is a known menu collection.
func (c StockCategory) Valid() bool {
	switch c {
	case CategoryFlavors, CategoryFillings, CategoryAddons:
		return true
	default:
		return false
	}
}

// StockItem is a toggleable menu entry. ID is the store key, or the
// stringified array index when the collection is stored as an array.
type StockItem struct {
	ID        string
	Category  StockCategory
	Name      string
	Available *bool
	Price     *decimal.Decimal
}

// IsAvailable treats an absent availability flag as available.
func (s StockItem) IsAvailable() bool {
	return s.Available == nil || *s.Available
}

// UnmarshalJSON decodes the stored item fields; the id comes from the key.
func (s *StockItem) UnmarshalJSON(data []byte) error {
	var rec struct {
		Name      json.RawMessage `json:"nome"`
		Available json.RawMessage `json:"disponivel"`
		Price     json.RawMessage `json:"preco"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	s.Name = looseString(rec.Name)
	s.Available = nil
	var available bool
	if !isNull(rec.Available) && json.Unmarshal(rec.Available, &available) == nil {
		s.Available = &available
	}
	s.Price = nil
	if !isNull(rec.Price) {
		price := ParseAmount(rec.Price)
		s.Price = &price
	}
	return nil
}
