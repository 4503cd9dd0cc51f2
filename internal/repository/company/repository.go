package company

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/store"
)

var repoTracer = otel.Tracer("github.com/drxagencia/dashboards/repository/company")

// ErrNotFound is returned when no company matches.
var ErrNotFound = errors.New("company not found")

// Repository resolves companies from the top-level collection.
type Repository struct {
	store store.Store
}

// NewRepository wires a repository over the configured store.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

type companyRecord struct {
	Config entity.CompanyConfig `json:"config"`
}

// FindByOwnerEmail scans every company for a config.email_dono equal to
// email. The store has no indexed queries, so cost grows with the number
// of companies.
func (r *Repository) FindByOwnerEmail(ctx context.Context, email string) (entity.Company, error) {
	ctx, span := repoTracer.Start(ctx, "CompanyRepository.FindByOwnerEmail")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" {
		return entity.Company{}, ErrNotFound
	}

	snap, err := r.store.Read(ctx, store.CompaniesPath())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return entity.Company{}, err
	}

	children := snap.Children()
	span.SetAttributes(attribute.Int("companies.scanned", len(children)))
	for _, child := range children {
		var rec companyRecord
		if err := json.Unmarshal(child.Value, &rec); err != nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rec.Config.OwnerEmail), email) {
			span.SetAttributes(attribute.String("company.id", child.Key))
			return entity.Company{ID: child.Key, Config: rec.Config}, nil
		}
	}
	return entity.Company{}, ErrNotFound
}

// Get loads one company's config.
func (r *Repository) Get(ctx context.Context, id string) (entity.Company, error) {
	ctx, span := repoTracer.Start(ctx, "CompanyRepository.Get", trace.WithAttributes(attribute.String("company.id", id)))
	defer span.End()

	snap, err := r.store.Read(ctx, store.ConfigPath(id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return entity.Company{}, err
	}
	if !snap.Exists() {
		return entity.Company{}, ErrNotFound
	}
	var cfg entity.CompanyConfig
	if err := snap.Decode(&cfg); err != nil {
		return entity.Company{}, ErrNotFound
	}
	return entity.Company{ID: id, Config: cfg}, nil
}
