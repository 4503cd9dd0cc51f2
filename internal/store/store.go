// Package store is the realtime document store the dashboard reads from and
// writes to. Data is addressed by slash-separated paths.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/database"
)

// Store is a path-addressed document store with change notification.
type Store interface {
	// Read returns the value at path once.
	Read(ctx context.Context, path string) (Snapshot, error)
	// Update merges the named fields into the node at path, leaving
	// siblings untouched. A nil field value deletes that child.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Subscribe delivers the value at path now and after every change
	// below it, until the subscription is closed or ctx ends.
	Subscribe(ctx context.Context, path string) (*Subscription, error)
}

var (
	// ErrPermissionDenied is returned when the store rejects the credentials.
	ErrPermissionDenied = errors.New("store: permission denied")
	// ErrClosed is returned by operations on a stopped store.
	ErrClosed = errors.New("store: closed")
)

// Module provides the configured store and its asynchronous writer.
var Module = fx.Options(
	fx.Provide(NewStore),
	fx.Provide(NewWriter),
)

// Params lists the dependencies of NewStore.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Logger    *zap.Logger
	DB        *database.Connections `optional:"true"`
}

// NewStore initialises the configured store driver (firebase, sql or memory).
func NewStore(p Params) (Store, error) {
	cfg := p.Config.Store
	switch cfg.Driver {
	case "memory":
		p.Logger.Info("using in-memory store")
		return NewMemory(), nil
	case "firebase":
		fb := NewFirebase(FirebaseOptions{
			DatabaseURL:    cfg.Firebase.DatabaseURL,
			AuthToken:      cfg.Firebase.AuthToken,
			RequestTimeout: cfg.RequestTimeout,
			ReconnectMin:   cfg.Firebase.ReconnectMin,
			ReconnectMax:   cfg.Firebase.ReconnectMax,
			HTTPClient:     http.DefaultClient,
			Logger:         p.Logger,
		})
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				fb.Close()
				return nil
			},
		})
		p.Logger.Info("using firebase store", zap.String("url", cfg.Firebase.DatabaseURL))
		return fb, nil
	case "sql":
		if p.DB == nil {
			return nil, fmt.Errorf("sql store requires a database connection")
		}
		s := NewSQL(p.DB.Writer, p.DB.Reader, cfg.PollInterval, p.Logger)
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				s.Close()
				return nil
			},
		})
		p.Logger.Info("using sql store", zap.Duration("poll_interval", cfg.PollInterval))
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// Subscription is a handle on a stream of snapshots. Only the latest
// undelivered snapshot is kept; a slow reader skips intermediate states.
type Subscription struct {
	path    string
	updates chan Snapshot
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
	err    error
}

func newSubscription(path string, cancel context.CancelFunc) *Subscription {
	return &Subscription{
		path:    path,
		updates: make(chan Snapshot, 1),
		cancel:  cancel,
	}
}

// Path is the subscribed path.
func (s *Subscription) Path() string {
	return s.path
}

// Updates yields snapshots until the subscription ends, then is closed.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Err reports why the stream ended, if it ended on its own.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	s.finish(nil)
}

func (s *Subscription) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.updates)
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Subscription) push(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
	return true
}
