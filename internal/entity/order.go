package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state stored in an order's status field.
type Status string

const (
	StatusPending   Status = "pendente"
	StatusPreparing Status = "preparo"
	StatusDelivery  Status = "entrega"
	StatusFinished  Status = "finalizado"
	StatusCanceled  Status = "cancelado"

	// Legacy labels still found in older companies' data.
	StatusInTransit Status = "em_transporte"
	StatusDelivered Status = "entregue"
)

// Normalize maps an absent status onto pendente.
func (s Status) Normalize() Status {
	if s == "" {
		return StatusPending
	}
	return s
}

// Order is one customer purchase as stored under empresas/{company}/pedidos/{id}.
type Order struct {
	ID        string
	DisplayID string
	Status    Status
	// DataHora is the raw display string; Date is parsed from it once at decode time.
	DataHora string
	Date     CivilDate
	Total    decimal.Decimal
	TotalRaw string
	Customer Customer
	Address  Address
	Payment  Payment
	Items    []OrderItem
}

// OrderItem is a single line of an order.
type OrderItem struct {
	Product  string   `json:"produto"`
	Quantity int      `json:"quantidade"`
	Flavors  []string `json:"sabores,omitempty"`
	Fillings []string `json:"recheios,omitempty"`
	Addons   []Addon  `json:"adicionais,omitempty"`
}

// Addon is an optional extra attached to an order item.
type Addon struct {
	Name  string           `json:"nome"`
	Value *decimal.Decimal `json:"valor,omitempty"`
}

// Customer identifies who placed the order.
type Customer struct {
	Name     string `json:"nome"`
	WhatsApp string `json:"whatsapp"`
}

// Payment describes how the customer intends to pay.
type Payment struct {
	Method string `json:"metodo"`
	Change string `json:"troco,omitempty"`
}

// Address is either a free-form string or a structured record.
type Address struct {
	Text       string
	Street     string
	District   string
	Number     string
	Reference  string
	Structured bool
	Present    bool
}

type orderRecord struct {
	DisplayID json.RawMessage `json:"display_id"`
	Status    json.RawMessage `json:"status"`
	DataHora  json.RawMessage `json:"data_hora"`
	Total     json.RawMessage `json:"total_pedido"`
	Customer  json.RawMessage `json:"cliente"`
	Address   json.RawMessage `json:"endereco"`
	Payment   json.RawMessage `json:"pagamento"`
	Items     json.RawMessage `json:"itens"`
}

// UnmarshalJSON decodes an order record leniently: fields of an unexpected
// type are treated as absent instead of failing the whole record.
func (o *Order) UnmarshalJSON(data []byte) error {
	var rec orderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	o.DisplayID = looseString(rec.DisplayID)
	o.Status = Status(looseString(rec.Status)).Normalize()
	o.DataHora = looseString(rec.DataHora)
	o.Date = ParseOrderDate(o.DataHora)
	o.Total = ParseAmount(rec.Total)
	o.TotalRaw = looseString(rec.Total)

	var customer struct {
		Name     json.RawMessage `json:"nome"`
		WhatsApp json.RawMessage `json:"whatsapp"`
	}
	if json.Unmarshal(rec.Customer, &customer) == nil {
		o.Customer = Customer{Name: looseString(customer.Name), WhatsApp: looseString(customer.WhatsApp)}
	}

	var payment struct {
		Method json.RawMessage `json:"metodo"`
		Change json.RawMessage `json:"troco"`
	}
	if json.Unmarshal(rec.Payment, &payment) == nil {
		o.Payment = Payment{Method: looseString(payment.Method), Change: looseString(payment.Change)}
	}

	o.Address = decodeAddress(rec.Address)

	o.Items = nil
	for _, raw := range orderedValues(rec.Items) {
		var item OrderItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		o.Items = append(o.Items, item)
	}
	return nil
}

func decodeAddress(raw json.RawMessage) Address {
	if isNull(raw) {
		return Address{}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return Address{Text: text, Present: true}
	}
	var rec struct {
		Street    json.RawMessage `json:"rua"`
		District  json.RawMessage `json:"bairro"`
		Number    json.RawMessage `json:"numero"`
		Reference json.RawMessage `json:"ref"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Address{}
	}
	return Address{
		Street:     looseString(rec.Street),
		District:   looseString(rec.District),
		Number:     looseString(rec.Number),
		Reference:  looseString(rec.Reference),
		Structured: true,
		Present:    true,
	}
}
