package asset

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

// Repository persists assets, including their embedded requirement and link
// collections.
type Repository struct {
	q      database.Querier
	logger ectologger.Logger
}

// NewRepository creates a new asset repository
func NewRepository(q database.Querier, logger ectologger.Logger) *Repository {
	return &Repository{
		q:      q,
		logger: logger,
	}
}

const tableName = "assets"

var columns = []string{
	"id", "tenant_id", "name", "asset_type", "manufacturer_id", "product_id",
	"location", "serial_number", "acquired_at", "tags", "metadata",
	"relationship_requirements", "linked_assets", "created_at", "updated_at", "deleted_at",
}

// Create inserts an asset. Assets get random IDs; only catalog entities that
// are resolved by name carry deterministic ones.
func (r *Repository) Create(ctx context.Context, tenantID string, a *models.Asset) error {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.Create")
	defer span.End()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.TenantID = tenantID

	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	if a.Tags == nil {
		a.Tags = pq.StringArray{}
	}
	if a.Requirements == nil {
		a.Requirements = models.RequirementList{}
	}
	if a.LinkedAssets == nil {
		a.LinkedAssets = models.LinkedAssetList{}
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols(
		"id", "tenant_id", "name", "asset_type", "manufacturer_id", "product_id",
		"location", "serial_number", "acquired_at", "tags", "metadata",
		"relationship_requirements", "linked_assets", "created_at", "updated_at",
	)
	sb.Values(
		a.ID, a.TenantID, a.Name, a.AssetType, a.ManufacturerID, a.ProductID,
		a.Location, a.SerialNumber, a.AcquiredAt, a.Tags, nilIfEmptyJSON(a.Metadata),
		a.Requirements, a.LinkedAssets, a.CreatedAt, a.UpdatedAt,
	)

	query, args := sb.Build()

	_, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
			"name":      a.Name,
		}).Error("failed to create asset")
		return fmt.Errorf("failed to create asset: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":        a.ID,
		"tenant_id": tenantID,
		"name":      a.Name,
	}).Info("created asset")

	return nil
}

// GetByID gets an asset by ID. Returns nil when the row is absent.
func (r *Repository) GetByID(ctx context.Context, tenantID string, id string) (*models.Asset, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.GetByID")
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

	var a models.Asset
	err := r.q.GetContext(ctx, &a, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get asset by ID")
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return &a, nil
}

// List lists assets matching the query, oldest first.
func (r *Repository) List(ctx context.Context, tenantID string, q models.AssetQuery) ([]models.Asset, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	if len(q.IDs) > 0 {
		ids := make([]any, 0, len(q.IDs))
		for _, id := range q.IDs {
			ids = append(ids, id)
		}
		sb.Where(sb.In("id", ids...))
	}
	if q.ManufacturerID != nil {
		sb.Where(sb.Equal("manufacturer_id", *q.ManufacturerID))
	}
	if q.AssetType != nil {
		sb.Where(sb.Equal("asset_type", *q.AssetType))
	}

	sb.OrderBy("created_at ASC")

	query, args := sb.Build()

	items := []models.Asset{}
	err := r.q.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list assets")
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	return items, nil
}

// Update applies a partial update. Returns nil when the row is absent.
func (r *Repository) Update(ctx context.Context, tenantID string, id string, patch models.UpdateAssetRequest) (*models.Asset, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.Update")
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
	if patch.AssetType != nil {
		sb.Set(sb.Assign("asset_type", *patch.AssetType))
	}
	if patch.ManufacturerID != nil {
		sb.Set(sb.Assign("manufacturer_id", *patch.ManufacturerID))
	}
	if patch.ProductID != nil {
		sb.Set(sb.Assign("product_id", *patch.ProductID))
	}
	if patch.Location != nil {
		sb.Set(sb.Assign("location", *patch.Location))
	}
	if patch.SerialNumber != nil {
		sb.Set(sb.Assign("serial_number", *patch.SerialNumber))
	}
	if patch.AcquiredAt != nil {
		sb.Set(sb.Assign("acquired_at", *patch.AcquiredAt))
	}
	if patch.Tags != nil {
		sb.Set(sb.Assign("tags", pq.StringArray(patch.Tags)))
	}
	if patch.Metadata != nil {
		sb.Set(sb.Assign("metadata", []byte(patch.Metadata)))
	}
	if patch.Requirements != nil {
		sb.Set(sb.Assign("relationship_requirements", patch.Requirements))
	}

	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update asset")
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("updated asset")

	return r.GetByID(ctx, tenantID, id)
}

// SaveLinks replaces the asset's linked_assets collection. The link list is
// the only column touched, so concurrent field updates are not clobbered.
func (r *Repository) SaveLinks(ctx context.Context, tenantID string, id string, links models.LinkedAssetList) error {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.SaveLinks")
	defer span.End()

	if links == nil {
		links = models.LinkedAssetList{}
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("linked_assets", links),
		sb.Assign("updated_at", time.Now()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to save asset links")
		return fmt.Errorf("failed to save asset links: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.NewAssetNotFound(id)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         id,
		"tenant_id":  tenantID,
		"link_count": len(links),
	}).Info("saved asset links")

	return nil
}

// Delete soft deletes an asset
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.Delete")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete asset")
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("deleted asset")

	return nil
}

func nilIfEmptyJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
