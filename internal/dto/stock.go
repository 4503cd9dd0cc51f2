package dto

import (
	"github.com/drxagencia/dashboards/internal/entity"
	stockrepo "github.com/drxagencia/dashboards/internal/repository/stock"
)

// StockItemResponse is one menu item with its availability.
type StockItemResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Available bool    `json:"available"`
	Price     *string `json:"price,omitempty"`
}

// StockCategoryResponse groups the items of one collection.
type StockCategoryResponse struct {
	Category string              `json:"category"`
	Items    []StockItemResponse `json:"items"`
}

// ToggleResponse reports the availability that was written.
type ToggleResponse struct {
	Category  string `json:"category"`
	ID        string `json:"id"`
	Available bool   `json:"available"`
}

// NewMenuResponse lists the collections in display order.
func NewMenuResponse(menu stockrepo.Menu) []StockCategoryResponse {
	out := make([]StockCategoryResponse, 0, len(entity.StockCategories))
	for _, category := range entity.StockCategories {
		items := menu[category]
		group := StockCategoryResponse{Category: string(category), Items: make([]StockItemResponse, 0, len(items))}
		for _, item := range items {
			group.Items = append(group.Items, newStockItem(item))
		}
		out = append(out, group)
	}
	return out
}

func newStockItem(item entity.StockItem) StockItemResponse {
	resp := StockItemResponse{ID: item.ID, Name: item.Name, Available: item.IsAvailable()}
	if item.Price != nil {
		price := item.Price.StringFixed(2)
		resp.Price = &price
	}
	return resp
}
