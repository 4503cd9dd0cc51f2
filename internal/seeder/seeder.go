package seeder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/auth"
	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/store"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// DemoCompany is the id of the seeded company.
const DemoCompany = "pizzaria_demo"

// Seeder writes a demo company for local setups.
type Seeder struct {
	store    store.Store
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// New constructs a Seeder over the configured store.
func New(s store.Store, cfg config.Config, logger *zap.Logger) *Seeder {
	loc := cfg.App.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Seeder{store: s, location: loc, logger: logger, now: time.Now}
}

// Company seeds the demo company owned by ownerEmail: its config, a
// handful of orders placed today and earlier this month, and a menu with
// one array-shaped and two keyed collections. Existing fields are
// overwritten; sibling data is left alone.
func (s *Seeder) Company(ctx context.Context, ownerEmail string) error {
	ownerEmail = auth.NormalizeEmail(ownerEmail)
	if ownerEmail == "" {
		return fmt.Errorf("owner email is required")
	}

	if err := s.store.Update(ctx, store.ConfigPath(DemoCompany), map[string]any{
		"email_dono":    ownerEmail,
		"nome_fantasia": "Pizzaria Demo",
	}); err != nil {
		return fmt.Errorf("seed config: %w", err)
	}

	orders := s.orders()
	if err := s.store.Update(ctx, store.OrdersPath(DemoCompany), orders); err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}

	if err := s.store.Update(ctx, store.MenuPath(DemoCompany), menu()); err != nil {
		return fmt.Errorf("seed menu: %w", err)
	}

	s.logger.Info("seeded demo company",
		zap.String("company", DemoCompany),
		zap.String("owner", ownerEmail),
		zap.Int("orders", len(orders)),
	)
	return nil
}

func (s *Seeder) orders() map[string]any {
	today := s.now().In(s.location)
	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 19, 30, 0, 0, s.location)
	stamp := func(t time.Time) string { return t.Format("02/01/2006 15:04") }

	return map[string]any{
		"-DEMO0001": map[string]any{
			"display_id":   "#001",
			"status":       "finalizado",
			"data_hora":    stamp(firstOfMonth),
			"total_pedido": "64.90",
			"cliente":      map[string]any{"nome": "Ana", "whatsapp": "(11) 99123-4567"},
			"endereco":     map[string]any{"rua": "Rua das Flores", "bairro": "Centro", "numero": "120"},
			"pagamento":    map[string]any{"metodo": "pix"},
			"itens": []any{
				map[string]any{"produto": "Pizza grande", "quantidade": 1, "sabores": []any{"Calabresa", "Mussarela"}},
			},
		},
		"-DEMO0002": map[string]any{
			"status":       "pendente",
			"data_hora":    stamp(today),
			"total_pedido": 42.5,
			"cliente":      map[string]any{"nome": "Bruno", "whatsapp": "11991234568"},
			"endereco":     "Av. Paulista, 1000 - ap 12",
			"pagamento":    map[string]any{"metodo": "dinheiro", "troco": "50"},
			"itens": []any{
				map[string]any{
					"produto":    "Pizza média",
					"quantidade": 1,
					"sabores":    []any{"Portuguesa"},
					"adicionais": []any{map[string]any{"nome": "Borda recheada", "valor": 8}},
				},
			},
		},
		"-DEMO0003": map[string]any{
			"status":       "preparo",
			"data_hora":    stamp(today),
			"total_pedido": "31",
			"pagamento":    map[string]any{"metodo": "cartao"},
			"itens": []any{
				map[string]any{"produto": "Esfiha", "quantidade": 6, "recheios": []any{"Carne"}},
			},
		},
	}
}

func menu() map[string]any {
	return map[string]any{
		"sabores": []any{
			map[string]any{"nome": "Calabresa", "disponivel": true},
			map[string]any{"nome": "Mussarela"},
			map[string]any{"nome": "Portuguesa", "disponivel": false},
		},
		"recheios": map[string]any{
			"carne":  map[string]any{"nome": "Carne", "disponivel": true},
			"queijo": map[string]any{"nome": "Queijo", "disponivel": true},
		},
		"adicionais": map[string]any{
			"borda": map[string]any{"nome": "Borda recheada", "preco": "8.00"},
			"bacon": map[string]any{"nome": "Bacon", "preco": 4.5, "disponivel": false},
		},
	}
}
