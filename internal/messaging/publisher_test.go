package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingClient struct {
	release chan struct{}

	mu        sync.Mutex
	published []string
}

func (b *blockingClient) Publish(ctx context.Context, key []byte, _ []byte) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, string(key))
	return nil
}

func (b *blockingClient) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingClient) Topic() string { return "painel.events" }

func (b *blockingClient) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.published...)
}

func envelopeFor(t *testing.T, company string) Envelope {
	t.Helper()
	env, err := NewEnvelope(EventOrderStatusChanged, "test", company, OrderStatusChangedPayload{OrderID: "p1", ToStatus: "preparo"})
	require.NoError(t, err)
	return env
}

func TestEnqueueDoesNotWaitForBroker(t *testing.T) {
	client := &blockingClient{release: make(chan struct{})}
	p := NewAsyncPublisher(client, PublisherOptions{Buffer: 4, Timeout: time.Minute})
	p.Start()

	start := time.Now()
	assert.True(t, p.Enqueue(context.Background(), envelopeFor(t, "acme")))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(client.release)
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, []string{"acme"}, client.keys())
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	client := &blockingClient{release: make(chan struct{})}
	p := NewAsyncPublisher(client, PublisherOptions{Buffer: 1, Timeout: time.Minute})

	assert.True(t, p.Enqueue(context.Background(), envelopeFor(t, "a")))
	assert.False(t, p.Enqueue(context.Background(), envelopeFor(t, "b")))

	close(client.release)
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, []string{"a"}, client.keys())
}

func TestPublishTimesOut(t *testing.T) {
	client := &blockingClient{release: make(chan struct{})}
	p := NewAsyncPublisher(client, PublisherOptions{Buffer: 1, Timeout: 20 * time.Millisecond})
	p.Start()

	assert.True(t, p.Enqueue(context.Background(), envelopeFor(t, "acme")))
	require.NoError(t, p.Stop(context.Background()))
	assert.Empty(t, client.keys())
}

func TestEnqueueAfterStop(t *testing.T) {
	p := NewAsyncPublisher(noopClient{}, PublisherOptions{})
	require.NoError(t, p.Stop(context.Background()))
	assert.False(t, p.Enqueue(context.Background(), envelopeFor(t, "acme")))
}
