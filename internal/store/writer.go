package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/config"
)

// Writer applies partial updates in the background. Callers hand a write
// over and move on; failures are logged and never reported back.
type Writer struct {
	store   Store
	inbox   chan writeRequest
	timeout time.Duration
	logger  *zap.Logger

	startOnce sync.Once
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

type writeRequest struct {
	op     string
	path   string
	fields map[string]any
	then   func()
}

// WriterOptions tunes a Writer.
type WriterOptions struct {
	Buffer  int
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewAsyncWriter builds a writer over s. Call Start before submitting.
func NewAsyncWriter(s Store, opts WriterOptions) *Writer {
	if opts.Buffer <= 0 {
		opts.Buffer = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Writer{
		store:   s,
		inbox:   make(chan writeRequest, opts.Buffer),
		timeout: opts.Timeout,
		logger:  opts.Logger,
		done:    make(chan struct{}),
	}
}

// NewWriter provides the writer to Fx and ties it to the app lifecycle.
func NewWriter(lc fx.Lifecycle, s Store, cfg config.Config, logger *zap.Logger) *Writer {
	w := NewAsyncWriter(s, WriterOptions{
		Buffer:  cfg.Store.WriteBuffer,
		Timeout: cfg.Store.WriteTimeout,
		Logger:  logger,
	})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.Start()
			return nil
		},
		OnStop: w.Stop,
	})
	return w
}

// Start launches the drain loop. Extra calls are no-ops.
func (w *Writer) Start() {
	w.startOnce.Do(func() {
		go w.loop()
	})
}

// Submit queues a merge of fields at path. It reports false when the
// writer has already been stopped.
func (w *Writer) Submit(op, path string, fields map[string]any) bool {
	return w.SubmitThen(op, path, fields, nil)
}

// SubmitThen queues a merge like Submit and runs then on the writer
// goroutine once the merge has been applied. then is skipped when the
// write fails and must not block.
func (w *Writer) SubmitThen(op, path string, fields map[string]any, then func()) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.logger.Warn("store writer stopped; dropping write", zap.String("op", op), zap.String("path", path))
		return false
	}
	w.inbox <- writeRequest{op: op, path: path, fields: fields, then: then}
	return true
}

// Stop refuses new writes and waits for queued ones to be applied.
func (w *Writer) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.inbox)
	}
	w.mu.Unlock()

	w.Start()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) loop() {
	defer close(w.done)
	for req := range w.inbox {
		w.apply(req)
	}
}

func (w *Writer) apply(req writeRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.store.Update(ctx, req.path, req.fields); err != nil {
		w.logger.Error("store write failed",
			zap.String("op", req.op),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return
	}
	w.logger.Debug("store write applied", zap.String("op", req.op), zap.String("path", req.path))
	if req.then != nil {
		req.then()
	}
}
