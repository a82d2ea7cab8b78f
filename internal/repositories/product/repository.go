package product

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository persists products.
type Repository struct {
	q      database.Querier
	logger ectologger.Logger
}

// NewRepository creates a new product repository
func NewRepository(q database.Querier, logger ectologger.Logger) *Repository {
	return &Repository{
		q:      q,
		logger: logger,
	}
}

const tableName = "products"

var columns = []string{"id", "tenant_id", "title", "slug", "manufacturer_id", "description", "tags", "metadata", "released_at", "created_at", "updated_at", "deleted_at"}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, tenantID string, p *models.Product) error {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.Create")
	defer span.End()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.TenantID = tenantID

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if p.Tags == nil {
		p.Tags = pq.StringArray{}
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "tenant_id", "title", "slug", "manufacturer_id", "description", "tags", "metadata", "released_at", "created_at", "updated_at")
	sb.Values(p.ID, p.TenantID, p.Title, p.Slug, p.ManufacturerID, p.Description, p.Tags, nilIfEmptyJSON(p.Metadata), p.ReleasedAt, p.CreatedAt, p.UpdatedAt)

	query, args := sb.Build()

	_, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
			"title":     p.Title,
		}).Error("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":        p.ID,
		"tenant_id": tenantID,
		"title":     p.Title,
	}).Info("created product")

	return nil
}

// GetByID gets a product by ID. Returns nil when the row is absent.
func (r *Repository) GetByID(ctx context.Context, tenantID string, id string) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.GetByID")
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

	var p models.Product
	err := r.q.GetContext(ctx, &p, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

// List lists products matching the query, oldest first.
func (r *Repository) List(ctx context.Context, tenantID string, q models.ProductQuery) ([]models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	if q.ManufacturerID != nil {
		sb.Where(sb.Equal("manufacturer_id", *q.ManufacturerID))
	}
	if q.Slug != nil {
		sb.Where(sb.Equal("slug", *q.Slug))
	}

	sb.OrderBy("created_at ASC")

	query, args := sb.Build()

	items := []models.Product{}
	err := r.q.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return items, nil
}

// Update applies a partial update. Returns nil when the row is absent.
func (r *Repository) Update(ctx context.Context, tenantID string, id string, patch models.UpdateProductRequest) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.Update")
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

	if patch.Title != nil {
		sb.Set(sb.Assign("title", *patch.Title))
	}
	if patch.Slug != nil {
		sb.Set(sb.Assign("slug", *patch.Slug))
	}
	if patch.ManufacturerID != nil {
		sb.Set(sb.Assign("manufacturer_id", *patch.ManufacturerID))
	}
	if patch.Description != nil {
		sb.Set(sb.Assign("description", *patch.Description))
	}
	if patch.Tags != nil {
		sb.Set(sb.Assign("tags", pq.StringArray(patch.Tags)))
	}
	if patch.Metadata != nil {
		sb.Set(sb.Assign("metadata", []byte(patch.Metadata)))
	}
	if patch.ReleasedAt != nil {
		sb.Set(sb.Assign("released_at", *patch.ReleasedAt))
	}

	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("updated product")

	return r.GetByID(ctx, tenantID, id)
}

// Delete soft deletes a product
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.Delete")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("deleted product")

	return nil
}

func nilIfEmptyJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
