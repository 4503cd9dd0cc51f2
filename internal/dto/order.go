package dto

import (
	"strings"

	"github.com/ttacon/libphonenumber"

	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/rules"
)

const (
	unknownCustomer = "Cliente não identificado"
	pickup          = "Retirada"
	phoneRegion     = "BR"
	currencyPrefix  = "R$ "
)

// OrderResponse represents an order card on the owner's board.
type OrderResponse struct {
	ID         string              `json:"id"`
	DisplayID  string              `json:"display_id"`
	Status     string              `json:"status"`
	Style      StyleResponse       `json:"style"`
	Actions    []ActionResponse    `json:"actions"`
	DataHora   string              `json:"data_hora,omitempty"`
	Date       string              `json:"date,omitempty"`
	Total      string              `json:"total"`
	// TotalLabel is total_pedido as the customer saw it, prefixed with R$.
	TotalLabel string              `json:"total_label"`
	Customer   CustomerResponse    `json:"customer"`
	Address    AddressResponse     `json:"address"`
	Payment    PaymentResponse     `json:"payment"`
	Items      []OrderItemResponse `json:"items"`
}

// StyleResponse is the colour tone and icon of a status badge.
type StyleResponse struct {
	Tone string `json:"tone"`
	Icon string `json:"icon"`
}

// ActionResponse is one transition the owner may trigger.
type ActionResponse struct {
	Status string `json:"status"`
	Label  string `json:"label"`
}

// CustomerResponse carries the customer's name and contact.
type CustomerResponse struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp,omitempty"`
	// Phone is the E.164 form of WhatsApp, empty when it does not parse.
	Phone string `json:"phone,omitempty"`
}

// AddressResponse is the display line of the delivery address.
type AddressResponse struct {
	Line      string `json:"line"`
	Reference string `json:"reference,omitempty"`
	Pickup    bool   `json:"pickup"`
}

// PaymentResponse describes the payment method.
type PaymentResponse struct {
	Method string `json:"method,omitempty"`
	Change string `json:"change,omitempty"`
}

// OrderItemResponse is one line of the order.
type OrderItemResponse struct {
	Product  string   `json:"product"`
	Quantity int      `json:"quantity"`
	Flavors  []string `json:"flavors,omitempty"`
	Fillings []string `json:"fillings,omitempty"`
	Addons   []string `json:"addons,omitempty"`
}

// NewOrderResponse maps an order onto its board card.
func NewOrderResponse(order entity.Order) OrderResponse {
	style := rules.StyleFor(order.Status)
	resp := OrderResponse{
		ID:         order.ID,
		DisplayID:  DisplayID(order),
		Status:     string(order.Status),
		Style:      StyleResponse{Tone: style.Tone, Icon: style.Icon},
		Actions:    []ActionResponse{},
		DataHora:   order.DataHora,
		Total:      order.Total.StringFixed(2),
		TotalLabel: TotalLabel(order),
		Customer:   newCustomer(order.Customer),
		Address:    FormatAddress(order.Address),
		Payment:    PaymentResponse{Method: order.Payment.Method, Change: order.Payment.Change},
		Items:      make([]OrderItemResponse, 0, len(order.Items)),
	}
	if order.Date.Valid() {
		resp.Date = order.Date.String()
	}
	for _, action := range rules.Actions(order.Status) {
		resp.Actions = append(resp.Actions, ActionResponse{Status: string(action.Target), Label: action.Label})
	}
	for _, item := range order.Items {
		line := OrderItemResponse{
			Product:  item.Product,
			Quantity: item.Quantity,
			Flavors:  item.Flavors,
			Fillings: item.Fillings,
		}
		for _, addon := range item.Addons {
			line.Addons = append(line.Addons, addon.Name)
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

// NewOrderList maps a filtered board.
func NewOrderList(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, NewOrderResponse(order))
	}
	return out
}

// DisplayID prefers the stored display_id, else "#" and the last four
// characters of the id.
func DisplayID(order entity.Order) string {
	if id := strings.TrimSpace(order.DisplayID); id != "" {
		return id
	}
	runes := []rune(order.ID)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	return "#" + string(runes)
}

// TotalLabel renders the stored total_pedido text after "R$ ". Orders
// without one fall back to the parsed amount.
func TotalLabel(order entity.Order) string {
	raw := strings.TrimSpace(order.TotalRaw)
	if raw == "" {
		raw = order.Total.StringFixed(2)
	}
	return currencyPrefix + raw
}

// FormatAddress renders the address line. A structured address reads
// "{rua}, {bairro}" followed by " - {numero}" when a number is present.
func FormatAddress(addr entity.Address) AddressResponse {
	switch {
	case !addr.Present:
		return AddressResponse{Line: pickup, Pickup: true}
	case !addr.Structured:
		return AddressResponse{Line: addr.Text}
	}
	line := addr.Street + ", " + addr.District
	if addr.Number != "" {
		line += " - " + addr.Number
	}
	return AddressResponse{Line: line, Reference: addr.Reference}
}

func newCustomer(c entity.Customer) CustomerResponse {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = unknownCustomer
	}
	return CustomerResponse{Name: name, WhatsApp: c.WhatsApp, Phone: NormalizePhone(c.WhatsApp)}
}

// NormalizePhone returns raw in E.164 form, reading it as a Brazilian
// number when it carries no country code. Invalid numbers yield "".
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, phoneRegion)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return ""
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}
