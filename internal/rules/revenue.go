package rules

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/drxagencia/dashboards/internal/entity"
)

// ProfitMargin is the fixed share of revenue reported as estimated profit.
var ProfitMargin = decimal.RequireFromString("0.40")

// DailyAmount is the completed revenue of one day of the month.
type DailyAmount struct {
	Day    int
	Amount decimal.Decimal
}

// Summary is the monthly finance view.
type Summary struct {
	Month           entity.YearMonth
	TotalRevenue    decimal.Decimal
	EstimatedProfit decimal.Decimal
	CompletedCount  int
	Daily           []DailyAmount
}

// IsCompleted reports whether an order counts as revenue. entregue is an
// alternate completion label kept alongside finalizado.
func IsCompleted(status entity.Status) bool {
	return status == entity.StatusFinished || status == entity.StatusDelivered
}

// AggregateMonth sums the completed orders placed in ym.
func AggregateMonth(orders []entity.Order, ym entity.YearMonth) Summary {
	summary := Summary{
		Month:        ym,
		TotalRevenue: decimal.Zero,
		Daily:        []DailyAmount{},
	}

	byDay := make(map[int]decimal.Decimal)
	for _, order := range orders {
		if !IsCompleted(order.Status) || !order.Date.Valid() || order.Date.YearMonth() != ym {
			continue
		}
		summary.TotalRevenue = summary.TotalRevenue.Add(order.Total)
		summary.CompletedCount++
		byDay[order.Date.Day] = byDay[order.Date.Day].Add(order.Total)
	}

	for day, amount := range byDay {
		summary.Daily = append(summary.Daily, DailyAmount{Day: day, Amount: amount})
	}
	sort.Slice(summary.Daily, func(i, j int) bool {
		return summary.Daily[i].Day < summary.Daily[j].Day
	})

	summary.EstimatedProfit = summary.TotalRevenue.Mul(ProfitMargin)
	return summary
}
