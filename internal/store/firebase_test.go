package store_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drxagencia/dashboards/internal/store"
)

func newFirebase(url string) *store.Firebase {
	return store.NewFirebase(store.FirebaseOptions{
		DatabaseURL:    url + "/",
		AuthToken:      "secret",
		RequestTimeout: time.Second,
		ReconnectMin:   10 * time.Millisecond,
		ReconnectMax:   20 * time.Millisecond,
	})
}

func TestFirebaseRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/empresas/acme/config.json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("auth"))
		_, _ = io.WriteString(w, `{"email_dono":"dono@acme.com"}`)
	}))
	defer srv.Close()

	snap, err := newFirebase(srv.URL).Read(context.Background(), "empresas/acme/config")
	require.NoError(t, err)
	assert.Equal(t, "empresas/acme/config", snap.Path)
	assert.JSONEq(t, `{"email_dono":"dono@acme.com"}`, string(snap.Value))
}

func TestFirebaseReadPermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Permission denied"}`)
	}))
	defer srv.Close()

	_, err := newFirebase(srv.URL).Read(context.Background(), "empresas")
	require.ErrorIs(t, err, store.ErrPermissionDenied)
}

func TestFirebaseUpdate(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/empresas/acme/pedidos/p1.json", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(raw)
		mu.Unlock()
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	err := newFirebase(srv.URL).Update(context.Background(), "empresas/acme/pedidos/p1", map[string]any{"status": "preparo"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.JSONEq(t, `{"status":"preparo"}`, body)
}

func TestFirebaseUpdateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newFirebase(srv.URL).Update(context.Background(), "x", map[string]any{"a": 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrPermissionDenied)
}

func writeEvent(w io.Writer, event, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	w.(http.Flusher).Flush()
}

func TestFirebaseSubscribe(t *testing.T) {
	next := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "/empresas/acme/pedidos.json", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")

		writeEvent(w, "put", `{"path":"/","data":{"p1":{"status":"pendente","total_pedido":"10"}}}`)
		<-next
		writeEvent(w, "keep-alive", "null")
		writeEvent(w, "patch", `{"path":"/p1","data":{"status":"preparo"}}`)
		<-next
		writeEvent(w, "put", `{"path":"/p2","data":{"status":"pendente"}}`)
		<-r.Context().Done()
	}))
	defer srv.Close()

	fb := newFirebase(srv.URL)
	sub, err := fb.Subscribe(context.Background(), "empresas/acme/pedidos")
	require.NoError(t, err)
	defer sub.Close()

	snap := receive(t, sub)
	assert.Equal(t, "empresas/acme/pedidos", snap.Path)
	assert.JSONEq(t, `{"p1":{"status":"pendente","total_pedido":"10"}}`, string(snap.Value))

	next <- struct{}{}
	snap = receive(t, sub)
	assert.JSONEq(t, `{"p1":{"status":"preparo","total_pedido":"10"}}`, string(snap.Value))

	next <- struct{}{}
	snap = receive(t, sub)
	assert.JSONEq(t, `{"p1":{"status":"preparo","total_pedido":"10"},"p2":{"status":"pendente"}}`, string(snap.Value))
}

func TestFirebaseSubscribeCancelEndsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(w, "put", `{"path":"/","data":null}`)
		writeEvent(w, "cancel", "null")
	}))
	defer srv.Close()

	sub, err := newFirebase(srv.URL).Subscribe(context.Background(), "empresas")
	require.NoError(t, err)

	snap := receive(t, sub)
	assert.False(t, snap.Exists())

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Updates():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, sub.Err(), store.ErrPermissionDenied)
}

func TestFirebaseSubscribeReconnects(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		if n == 1 {
			writeEvent(w, "put", `{"path":"/","data":{"v":1}}`)
			return
		}
		writeEvent(w, "put", `{"path":"/","data":{"v":2}}`)
		<-r.Context().Done()
	}))
	defer srv.Close()

	fb := newFirebase(srv.URL)
	defer fb.Close()
	sub, err := fb.Subscribe(context.Background(), "x")
	require.NoError(t, err)
	defer sub.Close()

	require.Eventually(t, func() bool {
		select {
		case snap := <-sub.Updates():
			return string(snap.Value) == `{"v":2}`
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFirebaseCloseEndsSubscriptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(w, "put", `{"path":"/","data":1}`)
		<-r.Context().Done()
	}))
	defer srv.Close()

	fb := newFirebase(srv.URL)
	sub, err := fb.Subscribe(context.Background(), "x")
	require.NoError(t, err)
	receive(t, sub)

	fb.Close()
	_, ok := <-sub.Updates()
	assert.False(t, ok)
	assert.ErrorIs(t, sub.Err(), store.ErrClosed)

	_, err = fb.Subscribe(context.Background(), "x")
	assert.ErrorIs(t, err, store.ErrClosed)
}
