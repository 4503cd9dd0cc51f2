package stock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drxagencia/dashboards/internal/entity"
	stockrepo "github.com/drxagencia/dashboards/internal/repository/stock"
	"github.com/drxagencia/dashboards/internal/rules"
	"github.com/drxagencia/dashboards/internal/store"
)

func TestListArrayAndKeyedCollections(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Update(ctx, store.MenuPath("acme"), map[string]any{
		"sabores": []any{
			map[string]any{"nome": "Morango"},
			map[string]any{"nome": "Uva", "disponivel": false},
		},
		"recheios": map[string]any{
			"0": map[string]any{"nome": "Morango"},
			"1": map[string]any{"nome": "Uva", "disponivel": false},
		},
		"adicionais": map[string]any{
			"-Nq1": map[string]any{"nome": "Leite Ninho", "preco": "3.50", "disponivel": true},
		},
	}))

	menu, err := stockrepo.NewRepository(mem).List(ctx, "acme")
	require.NoError(t, err)

	flavors := menu[entity.CategoryFlavors]
	fillings := menu[entity.CategoryFillings]
	require.Len(t, flavors, 2)
	require.Len(t, fillings, 2)
	for i := range flavors {
		assert.Equal(t, flavors[i].ID, fillings[i].ID)
		assert.Equal(t, flavors[i].Name, fillings[i].Name)
		assert.Equal(t, rules.NextAvailability(flavors[i].Available), rules.NextAvailability(fillings[i].Available))
	}
	assert.True(t, rules.NextAvailability(flavors[1].Available))
	assert.False(t, rules.NextAvailability(flavors[0].Available))

	addons := menu[entity.CategoryAddons]
	require.Len(t, addons, 1)
	assert.Equal(t, "-Nq1", addons[0].ID)
	require.NotNil(t, addons[0].Price)
	assert.Equal(t, "3.5", addons[0].Price.String())
	assert.Equal(t, entity.CategoryAddons, addons[0].Category)
}

func TestListEmptyMenu(t *testing.T) {
	menu, err := stockrepo.NewRepository(store.NewMemory()).List(context.Background(), "acme")
	require.NoError(t, err)
	for _, category := range entity.StockCategories {
		assert.NotNil(t, menu[category])
		assert.Empty(t, menu[category])
	}
}

func TestGetByIndex(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Update(ctx, store.MenuPath("acme"), map[string]any{
		"sabores": []any{map[string]any{"nome": "Morango"}, map[string]any{"nome": "Uva"}},
	}))
	repo := stockrepo.NewRepository(mem)

	item, err := repo.Get(ctx, "acme", entity.CategoryFlavors, "1")
	require.NoError(t, err)
	assert.Equal(t, "Uva", item.Name)
	assert.Nil(t, item.Available)
	assert.True(t, item.IsAvailable())

	_, err = repo.Get(ctx, "acme", entity.CategoryFlavors, "9")
	assert.ErrorIs(t, err, stockrepo.ErrNotFound)
}
