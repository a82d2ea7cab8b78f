package manufacturer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository persists manufacturers. It runs against either the connection
// pool or an open transaction, whichever Querier it was built with.
type Repository struct {
	q      database.Querier
	logger ectologger.Logger
}

// NewRepository creates a new manufacturer repository
func NewRepository(q database.Querier, logger ectologger.Logger) *Repository {
	return &Repository{
		q:      q,
		logger: logger,
	}
}

const tableName = "manufacturers"

var columns = []string{"id", "tenant_id", "name", "slug", "description", "aliases", "metadata", "created_at", "updated_at", "deleted_at"}

// Create inserts a manufacturer. An empty ID is replaced with the
// deterministic ID for the manufacturer's name before insert.
func (r *Repository) Create(ctx context.Context, tenantID string, m *models.Manufacturer) error {
	ctx, span := tracing.StartSpan(ctx, "ManufacturerRepository.Create")
	defer span.End()

	m.EnsureID()
	m.TenantID = tenantID

	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	if m.Aliases == nil {
		m.Aliases = pq.StringArray{}
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "tenant_id", "name", "slug", "description", "aliases", "metadata", "created_at", "updated_at")
	sb.Values(m.ID, m.TenantID, m.Name, m.Slug, m.Description, m.Aliases, nilIfEmptyJSON(m.Metadata), m.CreatedAt, m.UpdatedAt)

	query, args := sb.Build()

	_, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
			"name":      m.Name,
		}).Error("failed to create manufacturer")
		return fmt.Errorf("failed to create manufacturer: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":        m.ID,
		"tenant_id": tenantID,
		"name":      m.Name,
	}).Info("created manufacturer")

	return nil
}

// GetByID gets a manufacturer by ID. Returns nil when the row is absent.
func (r *Repository) GetByID(ctx context.Context, tenantID string, id string) (*models.Manufacturer, error) {
	ctx, span := tracing.StartSpan(ctx, "ManufacturerRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var m models.Manufacturer
	err := r.q.GetContext(ctx, &m, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get manufacturer by ID")
		return nil, fmt.Errorf("failed to get manufacturer: %w", err)
	}

	return &m, nil
}

// List lists manufacturers matching the query. Name and slug filters are
// exact matches; results are oldest first so "first match" is stable across
// calls.
func (r *Repository) List(ctx context.Context, tenantID string, q models.ManufacturerQuery) ([]models.Manufacturer, error) {
	ctx, span := tracing.StartSpan(ctx, "ManufacturerRepository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	if q.Name != nil {
		sb.Where(sb.Equal("name", *q.Name))
	}
	if q.Slug != nil {
		sb.Where(sb.Equal("slug", *q.Slug))
	}

	sb.OrderBy("created_at ASC")

	query, args := sb.Build()

	items := []models.Manufacturer{}
	err := r.q.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list manufacturers")
		return nil, fmt.Errorf("failed to list manufacturers: %w", err)
	}

	return items, nil
}

// Update applies a partial update. Returns nil when the row is absent.
func (r *Repository) Update(ctx context.Context, tenantID string, id string, patch models.UpdateManufacturerRequest) (*models.Manufacturer, error) {
	ctx, span := tracing.StartSpan(ctx, "ManufacturerRepository.Update")
	defer span.End()

	existing, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if patch.IsZero() {
		return existing, nil
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("updated_at", time.Now()))

	if patch.Name != nil {
		sb.Set(sb.Assign("name", *patch.Name))
	}
	if patch.Slug != nil {
		sb.Set(sb.Assign("slug", *patch.Slug))
	}
	if patch.Description != nil {
		sb.Set(sb.Assign("description", *patch.Description))
	}
	if patch.Aliases != nil {
		sb.Set(sb.Assign("aliases", pq.StringArray(patch.Aliases)))
	}
	if patch.Metadata != nil {
		sb.Set(sb.Assign("metadata", []byte(patch.Metadata)))
	}

	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update manufacturer")
		return nil, fmt.Errorf("failed to update manufacturer: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("updated manufacturer")

	return r.GetByID(ctx, tenantID, id)
}

// Delete soft deletes a manufacturer
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "ManufacturerRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("deleted_at", time.Now()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete manufacturer")
		return fmt.Errorf("failed to delete manufacturer: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("deleted manufacturer")

	return nil
}

func nilIfEmptyJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
