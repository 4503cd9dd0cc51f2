package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drxagencia/dashboards/internal/entity"
	stockrepo "github.com/drxagencia/dashboards/internal/repository/stock"
	"github.com/drxagencia/dashboards/internal/rules"
)

func TestDisplayID(t *testing.T) {
	assert.Equal(t, "#A1B2", DisplayID(entity.Order{ID: "-NxyzA1B2"}))
	assert.Equal(t, "#ab", DisplayID(entity.Order{ID: "ab"}))
	assert.Equal(t, "042", DisplayID(entity.Order{ID: "-NxyzA1B2", DisplayID: "042"}))
}

func TestFormatAddress(t *testing.T) {
	cases := []struct {
		name string
		addr entity.Address
		want AddressResponse
	}{
		{"absent", entity.Address{}, AddressResponse{Line: "Retirada", Pickup: true}},
		{"text", entity.Address{Text: "Rua A, 10", Present: true}, AddressResponse{Line: "Rua A, 10"}},
		{
			"structured",
			entity.Address{Street: "Rua B", District: "Centro", Number: "12", Reference: "portão azul", Structured: true, Present: true},
			AddressResponse{Line: "Rua B, Centro - 12", Reference: "portão azul"},
		},
		{
			"no number",
			entity.Address{Street: "Rua B", District: "Centro", Structured: true, Present: true},
			AddressResponse{Line: "Rua B, Centro"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatAddress(tc.addr))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+5511991234567", NormalizePhone("(11) 99123-4567"))
	assert.Equal(t, "+5511991234567", NormalizePhone("+55 11 99123-4567"))
	assert.Empty(t, NormalizePhone("123"))
	assert.Empty(t, NormalizePhone(""))
}

func TestNewOrderResponse(t *testing.T) {
	var order entity.Order
	require.NoError(t, json.Unmarshal([]byte(`{
		"status": "pendente",
		"data_hora": "05/03/2024 19:42",
		"total_pedido": "57.5",
		"cliente": {"nome": "", "whatsapp": "11 99123-4567"},
		"endereco": {"rua": "Rua das Flores", "bairro": "Jardim", "numero": "99"},
		"pagamento": {"metodo": "pix"},
		"itens": [{"produto": "Pizza", "quantidade": 2, "adicionais": [{"nome": "Borda"}]}]
	}`), &order))
	order.ID = "-Nabc1234"

	resp := NewOrderResponse(order)
	assert.Equal(t, "#1234", resp.DisplayID)
	assert.Equal(t, "57.50", resp.Total)
	assert.Equal(t, "R$ 57.5", resp.TotalLabel)
	assert.Equal(t, "2024-03-05", resp.Date)
	assert.Equal(t, StyleResponse{Tone: "yellow", Icon: "clock"}, resp.Style)
	assert.Equal(t, []ActionResponse{
		{Status: "cancelado", Label: "Recusar"},
		{Status: "preparo", Label: "Aceitar"},
	}, resp.Actions)
	assert.Equal(t, "Cliente não identificado", resp.Customer.Name)
	assert.Equal(t, "+5511991234567", resp.Customer.Phone)
	assert.Equal(t, "Rua das Flores, Jardim - 99", resp.Address.Line)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, []string{"Borda"}, resp.Items[0].Addons)
}

func TestTerminalOrderHasNoActions(t *testing.T) {
	resp := NewOrderResponse(entity.Order{ID: "x", Status: entity.StatusFinished})
	assert.NotNil(t, resp.Actions)
	assert.Empty(t, resp.Actions)
	assert.Equal(t, "0.00", resp.Total)
	assert.Equal(t, "R$ 0.00", resp.TotalLabel)
}

func TestTotalLabelKeepsStoredText(t *testing.T) {
	cases := map[string]string{
		`{"total_pedido": 25.5}`:    "R$ 25.5",
		`{"total_pedido": "42,90"}`: "R$ 42,90",
		`{"total_pedido": " 10 "}`:  "R$ 10",
		`{"total_pedido": null}`:    "R$ 0.00",
	}
	for in, want := range cases {
		var order entity.Order
		require.NoError(t, json.Unmarshal([]byte(in), &order), in)
		assert.Equal(t, want, TotalLabel(order), in)
	}
}

func TestNewMenuResponse(t *testing.T) {
	off := false
	price := decimal.RequireFromString("3")
	menu := stockrepo.Menu{
		entity.CategoryAddons: {{ID: "bacon", Name: "Bacon", Available: &off, Price: &price}},
	}

	resp := NewMenuResponse(menu)
	require.Len(t, resp, 3)
	assert.Equal(t, "sabores", resp[0].Category)
	assert.Empty(t, resp[0].Items)
	require.Len(t, resp[2].Items, 1)
	assert.False(t, resp[2].Items[0].Available)
	require.NotNil(t, resp[2].Items[0].Price)
	assert.Equal(t, "3.00", *resp[2].Items[0].Price)
}

func TestNewFinanceResponse(t *testing.T) {
	resp := NewFinanceResponse(rules.Summary{
		Month:           entity.YearMonth{Year: 2024, Month: 5},
		TotalRevenue:    decimal.RequireFromString("150.5"),
		EstimatedProfit: decimal.RequireFromString("60.2"),
		CompletedCount:  2,
		Daily:           []rules.DailyAmount{{Day: 3, Amount: decimal.RequireFromString("150.5")}},
	})
	assert.Equal(t, "2024-05", resp.Month)
	assert.Equal(t, "150.50", resp.TotalRevenue)
	assert.Equal(t, "60.20", resp.EstimatedProfit)
	assert.Equal(t, "0.4", resp.ProfitMargin)
	assert.Equal(t, []DailyResponse{{Day: 3, Amount: "150.50"}}, resp.Daily)
}
