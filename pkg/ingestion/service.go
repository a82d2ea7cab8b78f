// Package ingestion turns import records into stored entities. Each import
// resolves or creates the named manufacturer and creates the asset or
// product inside a single transaction, so a failure leaves nothing behind.
package ingestion

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ImportEmitter publishes entity lifecycle events after a successful import.
type ImportEmitter interface {
	EmitManufacturerCreated(ctx context.Context, tenantID string, m *models.Manufacturer) error
	EmitAssetCreated(ctx context.Context, tenantID string, a *models.Asset) error
	EmitProductCreated(ctx context.Context, tenantID string, p *models.Product) error
}

// Service ingests import records.
type Service struct {
	store    store.Store
	logger   ectologger.Logger
	validate *validator.Validate
	emitter  ImportEmitter
}

// NewService creates an ingestion service. emitter may be nil.
func NewService(st store.Store, logger ectologger.Logger, emitter ImportEmitter) *Service {
	return &Service{
		store:    st,
		logger:   logger,
		validate: validator.New(),
		emitter:  emitter,
	}
}

// IngestAsset imports one asset record. The manufacturer reference is
// resolved by exact name; creation of manufacturer and asset is atomic.
func (s *Service) IngestAsset(ctx context.Context, tenantID string, rec models.AssetImportRecord) (*models.ImportResult, error) {
	ctx, span := tracing.StartSpan(ctx, "ingestion.Service.IngestAsset")
	defer span.End()

	start := time.Now()

	if err := s.validate.Struct(rec); err != nil {
		metrics.RecordImport(tenantID, "asset", "invalid", time.Since(start).Seconds())
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid asset import record: %v", err)
	}

	metadata, err := marshalMetadata(rec.Metadata)
	if err != nil {
		metrics.RecordImport(tenantID, "asset", "invalid", time.Since(start).Seconds())
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid metadata: %v", err)
	}

	result := &models.ImportResult{}
	err = s.store.Transaction(ctx, func(ctx context.Context, tx store.EntityStore) error {
		man, created, err := s.resolveManufacturer(ctx, tx, tenantID, rec.ManufacturerName)
		if err != nil {
			return err
		}

		asset := &models.Asset{
			Name:           rec.Name,
			AssetType:      rec.AssetType,
			ManufacturerID: &man.ID,
			Location:       rec.Location,
			SerialNumber:   rec.SerialNumber,
			AcquiredAt:     rec.AcquiredAt,
			Tags:           pq.StringArray(rec.Tags),
			Metadata:       metadata,
			Requirements:   rec.Requirements,
		}
		if err := tx.CreateAsset(ctx, tenantID, asset); err != nil {
			return err
		}

		result.Asset = asset
		result.Manufacturer = man
		result.ManufacturerCreated = created
		return nil
	})
	if err != nil {
		metrics.RecordImport(tenantID, "asset", "failed", time.Since(start).Seconds())
		return nil, err
	}

	metrics.RecordImport(tenantID, "asset", "success", time.Since(start).Seconds())
	s.afterImport(ctx, tenantID, result)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":            tenantID,
		"asset_id":             result.Asset.ID,
		"manufacturer_id":      result.Manufacturer.ID,
		"manufacturer_created": result.ManufacturerCreated,
	}).Info("ingested asset")

	return result, nil
}

// IngestProduct imports one product record.
func (s *Service) IngestProduct(ctx context.Context, tenantID string, rec models.ProductImportRecord) (*models.ImportResult, error) {
	ctx, span := tracing.StartSpan(ctx, "ingestion.Service.IngestProduct")
	defer span.End()

	start := time.Now()

	if err := s.validate.Struct(rec); err != nil {
		metrics.RecordImport(tenantID, "product", "invalid", time.Since(start).Seconds())
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid product import record: %v", err)
	}

	metadata, err := marshalMetadata(rec.Metadata)
	if err != nil {
		metrics.RecordImport(tenantID, "product", "invalid", time.Since(start).Seconds())
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid metadata: %v", err)
	}

	result := &models.ImportResult{}
	err = s.store.Transaction(ctx, func(ctx context.Context, tx store.EntityStore) error {
		man, created, err := s.resolveManufacturer(ctx, tx, tenantID, rec.ManufacturerName)
		if err != nil {
			return err
		}

		product := &models.Product{
			Title:          rec.Title,
			ManufacturerID: &man.ID,
			Description:    rec.Description,
			Tags:           pq.StringArray(rec.Tags),
			Metadata:       metadata,
			ReleasedAt:     rec.ReleasedAt,
		}
		if err := tx.CreateProduct(ctx, tenantID, product); err != nil {
			return err
		}

		result.Product = product
		result.Manufacturer = man
		result.ManufacturerCreated = created
		return nil
	})
	if err != nil {
		metrics.RecordImport(tenantID, "product", "failed", time.Since(start).Seconds())
		return nil, err
	}

	metrics.RecordImport(tenantID, "product", "success", time.Since(start).Seconds())
	s.afterImport(ctx, tenantID, result)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":            tenantID,
		"product_id":           result.Product.ID,
		"manufacturer_id":      result.Manufacturer.ID,
		"manufacturer_created": result.ManufacturerCreated,
	}).Info("ingested product")

	return result, nil
}

// resolveManufacturer reuses an existing manufacturer with exactly the given
// name or creates one. The lookup is byte-exact; "Commodore" and "commodore"
// are different manufacturers. When several rows share the name, the oldest
// wins. Two imports racing on the same new name can still both create one;
// the deterministic ID keeps the duplicates at least identical in identity.
func (s *Service) resolveManufacturer(ctx context.Context, tx store.EntityStore, tenantID, name string) (*models.Manufacturer, bool, error) {
	existing, err := tx.FetchManufacturers(ctx, tenantID, models.ManufacturerQuery{Name: &name})
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return &existing[0], false, nil
	}

	m := &models.Manufacturer{Name: name}
	if err := tx.CreateManufacturer(ctx, tenantID, m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (s *Service) afterImport(ctx context.Context, tenantID string, result *models.ImportResult) {
	if result.ManufacturerCreated {
		metrics.RecordManufacturerCreated(tenantID)
	}

	if s.emitter == nil {
		return
	}

	if result.ManufacturerCreated {
		if err := s.emitter.EmitManufacturerCreated(ctx, tenantID, result.Manufacturer); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("failed to emit manufacturer created event")
		}
	}
	if result.Asset != nil {
		if err := s.emitter.EmitAssetCreated(ctx, tenantID, result.Asset); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("failed to emit asset created event")
		}
	}
	if result.Product != nil {
		if err := s.emitter.EmitProductCreated(ctx, tenantID, result.Product); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("failed to emit product created event")
		}
	}
}

func marshalMetadata(m map[string]any) (json.RawMessage, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}
