package company_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	companyrepo "github.com/drxagencia/dashboards/internal/repository/company"
	"github.com/drxagencia/dashboards/internal/store"
)

func TestFindByOwnerEmail(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Update(ctx, store.CompaniesPath(), map[string]any{
		"acai_do_ze": map[string]any{"config": map[string]any{"email_dono": "ze@acai.com"}},
		"pizzaria":   map[string]any{"config": map[string]any{"email_dono": "Dona@Pizza.com", "nome_fantasia": "Pizzaria da Dona"}},
		"sem_config": map[string]any{"pedidos": map[string]any{"p1": map[string]any{"status": "pendente"}}},
		"quebrada":   map[string]any{"config": map[string]any{"email_dono": 42}},
	}))
	repo := companyrepo.NewRepository(mem)

	company, err := repo.FindByOwnerEmail(ctx, "ze@acai.com")
	require.NoError(t, err)
	assert.Equal(t, "acai_do_ze", company.ID)
	assert.Equal(t, "ACAI DO ZE", company.DisplayName())

	company, err = repo.FindByOwnerEmail(ctx, "dona@pizza.com")
	require.NoError(t, err)
	assert.Equal(t, "pizzaria", company.ID)
	assert.Equal(t, "Pizzaria da Dona", company.DisplayName())

	_, err = repo.FindByOwnerEmail(ctx, "ninguem@x.com")
	assert.ErrorIs(t, err, companyrepo.ErrNotFound)
	_, err = repo.FindByOwnerEmail(ctx, "")
	assert.ErrorIs(t, err, companyrepo.ErrNotFound)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Update(ctx, store.ConfigPath("acme"), map[string]any{"email_dono": "a@acme.com"}))
	repo := companyrepo.NewRepository(mem)

	company, err := repo.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "a@acme.com", company.Config.OwnerEmail)

	_, err = repo.Get(ctx, "other")
	assert.ErrorIs(t, err, companyrepo.ErrNotFound)
}
