// Package store defines the entity persistence boundary. Services depend on
// these interfaces so the Postgres implementation and the in-memory
// implementation are interchangeable.
package store

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
)

// EntityStore is the operation surface available both on the live store and
// inside a transaction. Create calls assign IDs and timestamps on the passed
// model; retrieve calls return nil for absent entities rather than an error.
type EntityStore interface {
	CreateManufacturer(ctx context.Context, tenantID string, m *models.Manufacturer) error
	UpdateManufacturer(ctx context.Context, tenantID, id string, req models.UpdateManufacturerRequest) (*models.Manufacturer, error)
	RetrieveManufacturer(ctx context.Context, tenantID, id string) (*models.Manufacturer, error)
	FetchManufacturers(ctx context.Context, tenantID string, query models.ManufacturerQuery) ([]models.Manufacturer, error)

	CreateAsset(ctx context.Context, tenantID string, a *models.Asset) error
	UpdateAsset(ctx context.Context, tenantID, id string, req models.UpdateAssetRequest) (*models.Asset, error)
	SaveAssetLinks(ctx context.Context, tenantID, id string, links models.LinkedAssetList) error
	RetrieveAsset(ctx context.Context, tenantID, id string) (*models.Asset, error)
	FetchAssets(ctx context.Context, tenantID string, query models.AssetQuery) ([]models.Asset, error)

	CreateProduct(ctx context.Context, tenantID string, p *models.Product) error
	UpdateProduct(ctx context.Context, tenantID, id string, req models.UpdateProductRequest) (*models.Product, error)
	RetrieveProduct(ctx context.Context, tenantID, id string) (*models.Product, error)
	FetchProducts(ctx context.Context, tenantID string, query models.ProductQuery) ([]models.Product, error)
}

// Store adds the transactional unit of work. The callback runs against a
// tx-scoped EntityStore; returning an error rolls every write back, so a
// partially applied import is never visible to readers.
type Store interface {
	EntityStore
	Transaction(ctx context.Context, fn func(ctx context.Context, tx EntityStore) error) error
}
