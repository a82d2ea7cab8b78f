package store

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/asset"
	"github.com/Ramsey-B/fern/internal/repositories/manufacturer"
	"github.com/Ramsey-B/fern/internal/repositories/product"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// pgEntityStore is the EntityStore surface over a Querier. The same type
// serves the pool-backed store and tx-scoped stores; only the Querier the
// repositories are bound to differs.
type pgEntityStore struct {
	manufacturers *manufacturer.Repository
	assets        *asset.Repository
	products      *product.Repository
}

func newPgEntityStore(q database.Querier, logger ectologger.Logger) *pgEntityStore {
	return &pgEntityStore{
		manufacturers: manufacturer.NewRepository(q, logger),
		assets:        asset.NewRepository(q, logger),
		products:      product.NewRepository(q, logger),
	}
}

func (s *pgEntityStore) CreateManufacturer(ctx context.Context, tenantID string, m *models.Manufacturer) error {
	if m.Slug == "" {
		m.Slug = normalizers.Slugify(m.Name)
	}
	return s.manufacturers.Create(ctx, tenantID, m)
}

func (s *pgEntityStore) UpdateManufacturer(ctx context.Context, tenantID, id string, req models.UpdateManufacturerRequest) (*models.Manufacturer, error) {
	return s.manufacturers.Update(ctx, tenantID, id, req)
}

func (s *pgEntityStore) RetrieveManufacturer(ctx context.Context, tenantID, id string) (*models.Manufacturer, error) {
	return s.manufacturers.GetByID(ctx, tenantID, id)
}

func (s *pgEntityStore) FetchManufacturers(ctx context.Context, tenantID string, query models.ManufacturerQuery) ([]models.Manufacturer, error) {
	return s.manufacturers.List(ctx, tenantID, query)
}

func (s *pgEntityStore) CreateAsset(ctx context.Context, tenantID string, a *models.Asset) error {
	return s.assets.Create(ctx, tenantID, a)
}

func (s *pgEntityStore) UpdateAsset(ctx context.Context, tenantID, id string, req models.UpdateAssetRequest) (*models.Asset, error) {
	return s.assets.Update(ctx, tenantID, id, req)
}

func (s *pgEntityStore) SaveAssetLinks(ctx context.Context, tenantID, id string, links models.LinkedAssetList) error {
	return s.assets.SaveLinks(ctx, tenantID, id, links)
}

func (s *pgEntityStore) RetrieveAsset(ctx context.Context, tenantID, id string) (*models.Asset, error) {
	return s.assets.GetByID(ctx, tenantID, id)
}

func (s *pgEntityStore) FetchAssets(ctx context.Context, tenantID string, query models.AssetQuery) ([]models.Asset, error) {
	return s.assets.List(ctx, tenantID, query)
}

func (s *pgEntityStore) CreateProduct(ctx context.Context, tenantID string, p *models.Product) error {
	if p.Slug == "" {
		p.Slug = normalizers.Slugify(p.Title)
	}
	return s.products.Create(ctx, tenantID, p)
}

func (s *pgEntityStore) UpdateProduct(ctx context.Context, tenantID, id string, req models.UpdateProductRequest) (*models.Product, error) {
	return s.products.Update(ctx, tenantID, id, req)
}

func (s *pgEntityStore) RetrieveProduct(ctx context.Context, tenantID, id string) (*models.Product, error) {
	return s.products.GetByID(ctx, tenantID, id)
}

func (s *pgEntityStore) FetchProducts(ctx context.Context, tenantID string, query models.ProductQuery) ([]models.Product, error) {
	return s.products.List(ctx, tenantID, query)
}

// Postgres is the production Store backed by sqlx repositories.
type Postgres struct {
	*pgEntityStore
	db     database.DB
	logger ectologger.Logger
}

// NewPostgres creates the store over the given connection pool.
func NewPostgres(db database.DB, logger ectologger.Logger) *Postgres {
	return &Postgres{
		pgEntityStore: newPgEntityStore(db, logger),
		db:            db,
		logger:        logger,
	}
}

// Transaction runs fn against a tx-scoped EntityStore. The transaction is
// committed when fn returns nil and rolled back otherwise, including on
// panic.
func (s *Postgres) Transaction(ctx context.Context, fn func(ctx context.Context, tx EntityStore) error) error {
	ctx, span := tracing.StartSpan(ctx, "store.Postgres.Transaction")
	defer span.End()

	sqlxTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("failed to begin transaction")
		return err
	}

	tx := database.NewTx(sqlxTx, s.logger)
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, newPgEntityStore(tx, s.logger)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.WithContext(ctx).WithError(rbErr).Error("failed to roll back transaction")
		}
		return err
	}

	return tx.Commit(ctx)
}

var _ Store = (*Postgres)(nil)
