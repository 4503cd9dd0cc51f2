package dto

import "github.com/drxagencia/dashboards/internal/rules"

// FinanceResponse is the monthly revenue summary.
type FinanceResponse struct {
	Month           string          `json:"month"`
	TotalRevenue    string          `json:"total_revenue"`
	EstimatedProfit string          `json:"estimated_profit"`
	ProfitMargin    string          `json:"profit_margin"`
	CompletedCount  int             `json:"completed_count"`
	Daily           []DailyResponse `json:"daily"`
}

// DailyResponse is one bar of the per-day chart.
type DailyResponse struct {
	Day    int    `json:"day"`
	Amount string `json:"amount"`
}

// NewFinanceResponse maps a summary, amounts fixed to two places.
func NewFinanceResponse(s rules.Summary) FinanceResponse {
	resp := FinanceResponse{
		Month:           s.Month.String(),
		TotalRevenue:    s.TotalRevenue.StringFixed(2),
		EstimatedProfit: s.EstimatedProfit.StringFixed(2),
		ProfitMargin:    rules.ProfitMargin.String(),
		CompletedCount:  s.CompletedCount,
		Daily:           make([]DailyResponse, 0, len(s.Daily)),
	}
	for _, d := range s.Daily {
		resp.Daily = append(resp.Daily, DailyResponse{Day: d.Day, Amount: d.Amount.StringFixed(2)})
	}
	return resp
}
