package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	noopClient
	keys   [][]byte
	values [][]byte
}

func (r *recordingClient) Publish(_ context.Context, key, value []byte) error {
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
	return nil
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(EventOrderStatusChanged, "painel-api", "acme", OrderStatusChangedPayload{
		OrderID:  "p1",
		ToStatus: "preparo",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)

	client := &recordingClient{}
	require.NoError(t, PublishEnvelope(context.Background(), client, env))
	require.Len(t, client.values, 1)
	assert.Equal(t, []byte("acme"), client.keys[0])

	decoded, err := DecodeEnvelope(Message{Value: client.values[0]})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)
	assert.Equal(t, "acme", decoded.CompanyID)

	payload, err := DecodePayload[OrderStatusChangedPayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, "p1", payload.OrderID)
	assert.Equal(t, "preparo", payload.ToStatus)
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope(Message{Value: []byte("not json")})
	assert.Error(t, err)
}
