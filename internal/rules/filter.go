package rules

import "github.com/drxagencia/dashboards/internal/entity"

// FilterByDate keeps the orders placed on target, preserving input order.
// Orders without a parseable date never match.
func FilterByDate(orders []entity.Order, target entity.CivilDate) []entity.Order {
	out := make([]entity.Order, 0, len(orders))
	if !target.Valid() {
		return out
	}
	for _, order := range orders {
		if order.Date.Valid() && order.Date == target {
			out = append(out, order)
		}
	}
	return out
}
