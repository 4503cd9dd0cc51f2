package finance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/cache"
	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/observability"
	orderrepo "github.com/drxagencia/dashboards/internal/repository/order"
	"github.com/drxagencia/dashboards/internal/rules"
	orderservice "github.com/drxagencia/dashboards/internal/service/order"
	"github.com/drxagencia/dashboards/internal/store"
)

var serviceTracer = otel.Tracer("github.com/drxagencia/dashboards/service/finance")

// Service computes monthly revenue summaries.
type Service struct {
	orders   *orderrepo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
	location *time.Location
	now      func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders  *orderrepo.Repository
	Cache   cache.Store
	Config  config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	loc := p.Config.App.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:   p.Orders,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   logger,
		metrics:  p.Metrics,
		location: loc,
		now:      time.Now,
	}
}

// CurrentMonth is the month of today in the dashboard's time zone.
func (s *Service) CurrentMonth() entity.YearMonth {
	return entity.DateOf(s.now().In(s.location)).YearMonth()
}

// Summary reads the company's orders and aggregates the completed ones of
// ym. The store is always read; only the aggregation of identical content
// is served from cache.
func (s *Service) Summary(ctx context.Context, companyID string, ym entity.YearMonth) (rules.Summary, error) {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.Summary", trace.WithAttributes(
		attribute.String("company.id", companyID),
		attribute.String("finance.month", ym.String()),
	))
	defer span.End()

	snap, err := s.orders.Snapshot(ctx, companyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return rules.Summary{}, orderservice.StoreError("failed to load orders", err)
	}
	return s.summarize(ctx, companyID, snap, ym), nil
}

// Stream opens a subscription on the company's orders. The caller closes it.
func (s *Service) Stream(ctx context.Context, companyID string) (*store.Subscription, error) {
	sub, err := s.orders.Subscribe(ctx, companyID)
	if err != nil {
		return nil, orderservice.StoreError("failed to open finance stream", err)
	}
	return sub, nil
}

// View aggregates one pushed orders snapshot.
func (s *Service) View(ctx context.Context, companyID string, snap store.Snapshot, ym entity.YearMonth) rules.Summary {
	s.metrics.Snapshot(ctx, "finance")
	return s.summarize(ctx, companyID, snap, ym)
}

// Refresh computes the current month's summary from the store, leaving it
// cached for the next reader.
func (s *Service) Refresh(ctx context.Context, companyID string) error {
	_, err := s.Summary(ctx, companyID, s.CurrentMonth())
	return err
}

func (s *Service) summarize(ctx context.Context, companyID string, snap store.Snapshot, ym entity.YearMonth) rules.Summary {
	key := summaryKey(companyID, ym, snap)
	span := trace.SpanFromContext(ctx)
	if summary, err := s.getFromCache(ctx, key); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return summary
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("finance cache read failed", zap.String("key", key), zap.Error(err))
	}

	summary := rules.AggregateMonth(orderrepo.DecodeOrders(snap), ym)
	if err := s.storeInCache(ctx, key, summary); err != nil {
		s.logger.Warn("finance cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary
}

// summaryKey names a summary by the content it was computed from, so any
// change to the orders, from this service or elsewhere, misses the cache.
func summaryKey(companyID string, ym entity.YearMonth, snap store.Snapshot) string {
	digest := sha256.Sum256(snap.Value)
	return fmt.Sprintf("finance:%s:%s:%s", companyID, ym, hex.EncodeToString(digest[:12]))
}

func (s *Service) getFromCache(ctx context.Context, key string) (rules.Summary, error) {
	if s.cache == nil {
		return rules.Summary{}, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, key)
	if err != nil {
		return rules.Summary{}, err
	}
	var summary rules.Summary
	if err := json.Unmarshal(bytes, &summary); err != nil {
		return rules.Summary{}, err
	}
	return summary, nil
}

func (s *Service) storeInCache(ctx context.Context, key string, summary rules.Summary) error {
	if s.cache == nil {
		return nil
	}
	bytes, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, bytes, s.cacheTTL)
}
