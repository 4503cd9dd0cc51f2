package messaging

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/config"
)

// Publisher hands envelopes to the bus from its own goroutine, so request
// handlers never wait on the broker. A full queue drops the event.
type Publisher struct {
	client  Client
	queue   chan outbound
	timeout time.Duration
	logger  *zap.Logger

	startOnce sync.Once
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

type outbound struct {
	span trace.SpanContext
	env  Envelope
}

// PublisherOptions tunes a Publisher.
type PublisherOptions struct {
	Buffer  int
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewAsyncPublisher builds a publisher over client. Call Start before
// enqueueing.
func NewAsyncPublisher(client Client, opts PublisherOptions) *Publisher {
	if opts.Buffer <= 0 {
		opts.Buffer = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Publisher{
		client:  client,
		queue:   make(chan outbound, opts.Buffer),
		timeout: opts.Timeout,
		logger:  opts.Logger,
		done:    make(chan struct{}),
	}
}

// NewPublisher provides the publisher to Fx and ties it to the app lifecycle.
func NewPublisher(lc fx.Lifecycle, client Client, cfg config.Config, logger *zap.Logger) *Publisher {
	p := NewAsyncPublisher(client, PublisherOptions{
		Buffer:  cfg.Messaging.PublishBuffer,
		Timeout: cfg.Messaging.PublishTimeout,
		Logger:  logger,
	})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Start()
			return nil
		},
		OnStop: p.Stop,
	})
	return p
}

// Start launches the publish loop. Extra calls are no-ops.
func (p *Publisher) Start() {
	p.startOnce.Do(func() {
		go p.loop()
	})
}

// Enqueue queues env without blocking. Only the span context of ctx is
// kept, so the event is still published after ctx is cancelled. It reports
// false when the event was dropped.
func (p *Publisher) Enqueue(ctx context.Context, env Envelope) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("publisher stopped; dropping event", zap.String("event_type", env.EventType))
		return false
	}
	select {
	case p.queue <- outbound{span: trace.SpanContextFromContext(ctx), env: env}:
		return true
	default:
		p.logger.Warn("publish queue full; dropping event",
			zap.String("event_type", env.EventType),
			zap.String("company", env.CompanyID),
		)
		return false
	}
}

// Stop refuses new events and waits for queued ones to be published.
func (p *Publisher) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	p.Start()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) loop() {
	defer close(p.done)
	for out := range p.queue {
		p.publish(out)
	}
}

func (p *Publisher) publish(out outbound) {
	ctx := trace.ContextWithSpanContext(context.Background(), out.span)
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := PublishEnvelope(ctx, p.client, out.env); err != nil {
		p.logger.Error("publish event failed",
			zap.String("event_type", out.env.EventType),
			zap.String("company", out.env.CompanyID),
			zap.Error(err),
		)
	}
}
