package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drxagencia/dashboards/internal/store"
)

type failingStore struct {
	store.Store

	mu    sync.Mutex
	calls int
}

func (f *failingStore) Update(context.Context, string, map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("boom")
}

func TestWriterAppliesQueuedWritesOnStop(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	w := store.NewAsyncWriter(mem, store.WriterOptions{Buffer: 8})
	w.Start()

	assert.True(t, w.Submit("order.status", "empresas/acme/pedidos/p1", map[string]any{"status": "preparo"}))
	assert.True(t, w.Submit("order.status", "empresas/acme/pedidos/p1", map[string]any{"status": "entrega"}))

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))

	snap, err := mem.Read(ctx, "empresas/acme/pedidos/p1/status")
	require.NoError(t, err)
	assert.JSONEq(t, `"entrega"`, string(snap.Value))

	assert.False(t, w.Submit("order.status", "empresas/acme/pedidos/p1", map[string]any{"status": "finalizado"}))
}

func TestWriterSameWriteTwiceIsStable(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	w := store.NewAsyncWriter(mem, store.WriterOptions{Buffer: 4})
	w.Start()

	w.Submit("order.status", "p", map[string]any{"status": "preparo"})
	w.Submit("order.status", "p", map[string]any{"status": "preparo"})
	require.NoError(t, w.Stop(ctx))

	snap, err := mem.Read(ctx, "p")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"preparo"}`, string(snap.Value))
}

func TestWriterSwallowsStoreErrors(t *testing.T) {
	fs := &failingStore{}
	w := store.NewAsyncWriter(fs, store.WriterOptions{Buffer: 2})
	w.Start()

	assert.True(t, w.Submit("stock.toggle", "x", map[string]any{"disponivel": true}))
	require.NoError(t, w.Stop(context.Background()))

	fs.mu.Lock()
	defer fs.mu.Unlock()
	assert.Equal(t, 1, fs.calls)
}

func TestWriterStopWithoutStartDrains(t *testing.T) {
	mem := store.NewMemory()
	w := store.NewAsyncWriter(mem, store.WriterOptions{Buffer: 2})
	w.Submit("x", "a", map[string]any{"b": 1})

	require.NoError(t, w.Stop(context.Background()))
	snap, err := mem.Read(context.Background(), "a/b")
	require.NoError(t, err)
	assert.JSONEq(t, `1`, string(snap.Value))
}

func TestWriterRunsThenAfterApply(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	w := store.NewAsyncWriter(mem, store.WriterOptions{Buffer: 4})
	w.Start()

	var seen string
	w.SubmitThen("order.status", "empresas/acme/pedidos/p1", map[string]any{"status": "finalizado"}, func() {
		snap, err := mem.Read(ctx, "empresas/acme/pedidos/p1/status")
		if err == nil {
			seen = string(snap.Value)
		}
	})
	require.NoError(t, w.Stop(ctx))

	assert.JSONEq(t, `"finalizado"`, seen)
}

func TestWriterSkipsThenOnFailure(t *testing.T) {
	fs := &failingStore{}
	w := store.NewAsyncWriter(fs, store.WriterOptions{Buffer: 4})
	w.Start()

	called := false
	w.SubmitThen("order.status", "p", map[string]any{"status": "preparo"}, func() { called = true })
	require.NoError(t, w.Stop(context.Background()))

	assert.False(t, called)
}
