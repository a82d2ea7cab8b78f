package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Memory is an in-memory Store used by tests and local development. It keeps
// insertion order so "first match" behaves like the Postgres store, and its
// transactions run against a deep copy of the state: nothing is visible until
// commit, and an error discards the copy.
type Memory struct {
	mu    sync.Mutex
	state *memoryState
}

func NewMemory() *Memory {
	return &Memory{state: newMemoryState()}
}

type memoryState struct {
	manufacturers map[string][]models.Manufacturer
	assets        map[string][]models.Asset
	products      map[string][]models.Product
}

func newMemoryState() *memoryState {
	return &memoryState{
		manufacturers: map[string][]models.Manufacturer{},
		assets:        map[string][]models.Asset{},
		products:      map[string][]models.Product{},
	}
}

func (s *memoryState) clone() *memoryState {
	out := newMemoryState()
	for tenant, items := range s.manufacturers {
		cp := make([]models.Manufacturer, len(items))
		for i, m := range items {
			cp[i] = copyManufacturer(m)
		}
		out.manufacturers[tenant] = cp
	}
	for tenant, items := range s.assets {
		cp := make([]models.Asset, len(items))
		for i, a := range items {
			cp[i] = copyAsset(a)
		}
		out.assets[tenant] = cp
	}
	for tenant, items := range s.products {
		cp := make([]models.Product, len(items))
		for i, p := range items {
			cp[i] = copyProduct(p)
		}
		out.products[tenant] = cp
	}
	return out
}

func copyManufacturer(m models.Manufacturer) models.Manufacturer {
	m.Aliases = append(m.Aliases[:0:0], m.Aliases...)
	m.Metadata = append(m.Metadata[:0:0], m.Metadata...)
	return m
}

func copyAsset(a models.Asset) models.Asset {
	a.Tags = append(a.Tags[:0:0], a.Tags...)
	a.Metadata = append(a.Metadata[:0:0], a.Metadata...)

	reqs := make(models.RequirementList, len(a.Requirements))
	for i, req := range a.Requirements {
		req.CompatibleAssetIDs = append(req.CompatibleAssetIDs[:0:0], req.CompatibleAssetIDs...)
		req.RequiredTags = append(req.RequiredTags[:0:0], req.RequiredTags...)
		reqs[i] = req
	}
	a.Requirements = reqs
	a.LinkedAssets = append(a.LinkedAssets[:0:0], a.LinkedAssets...)
	return a
}

func copyProduct(p models.Product) models.Product {
	p.Tags = append(p.Tags[:0:0], p.Tags...)
	p.Metadata = append(p.Metadata[:0:0], p.Metadata...)
	return p
}

// state mutations

func (s *memoryState) createManufacturer(tenantID string, m *models.Manufacturer) error {
	m.EnsureID()
	m.TenantID = tenantID
	if m.Slug == "" {
		m.Slug = normalizers.Slugify(m.Name)
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	s.manufacturers[tenantID] = append(s.manufacturers[tenantID], copyManufacturer(*m))
	return nil
}

func (s *memoryState) updateManufacturer(tenantID, id string, req models.UpdateManufacturerRequest) (*models.Manufacturer, error) {
	items := s.manufacturers[tenantID]
	for i := range items {
		if items[i].ID != id {
			continue
		}
		m := &items[i]
		if req.Name != nil {
			m.Name = *req.Name
		}
		if req.Slug != nil {
			m.Slug = *req.Slug
		}
		if req.Description != nil {
			m.Description = req.Description
		}
		if req.Aliases != nil {
			m.Aliases = append(m.Aliases[:0:0], req.Aliases...)
		}
		if req.Metadata != nil {
			m.Metadata = append(m.Metadata[:0:0], req.Metadata...)
		}
		m.UpdatedAt = time.Now()
		out := copyManufacturer(*m)
		return &out, nil
	}
	return nil, nil
}

func (s *memoryState) retrieveManufacturer(tenantID, id string) (*models.Manufacturer, error) {
	for _, m := range s.manufacturers[tenantID] {
		if m.ID == id {
			out := copyManufacturer(m)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memoryState) fetchManufacturers(tenantID string, query models.ManufacturerQuery) ([]models.Manufacturer, error) {
	out := []models.Manufacturer{}
	for _, m := range s.manufacturers[tenantID] {
		if query.Name != nil && m.Name != *query.Name {
			continue
		}
		if query.Slug != nil && m.Slug != *query.Slug {
			continue
		}
		out = append(out, copyManufacturer(m))
	}
	return out, nil
}

func (s *memoryState) createAsset(tenantID string, a *models.Asset) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.TenantID = tenantID
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.assets[tenantID] = append(s.assets[tenantID], copyAsset(*a))
	return nil
}

func (s *memoryState) updateAsset(tenantID, id string, req models.UpdateAssetRequest) (*models.Asset, error) {
	items := s.assets[tenantID]
	for i := range items {
		if items[i].ID != id {
			continue
		}
		a := &items[i]
		if req.Name != nil {
			a.Name = *req.Name
		}
		if req.AssetType != nil {
			a.AssetType = req.AssetType
		}
		if req.ManufacturerID != nil {
			a.ManufacturerID = req.ManufacturerID
		}
		if req.ProductID != nil {
			a.ProductID = req.ProductID
		}
		if req.Location != nil {
			a.Location = req.Location
		}
		if req.SerialNumber != nil {
			a.SerialNumber = req.SerialNumber
		}
		if req.AcquiredAt != nil {
			a.AcquiredAt = req.AcquiredAt
		}
		if req.Tags != nil {
			a.Tags = append(a.Tags[:0:0], req.Tags...)
		}
		if req.Metadata != nil {
			a.Metadata = append(a.Metadata[:0:0], req.Metadata...)
		}
		if req.Requirements != nil {
			a.Requirements = req.Requirements
		}
		a.UpdatedAt = time.Now()
		out := copyAsset(*a)
		return &out, nil
	}
	return nil, nil
}

func (s *memoryState) saveAssetLinks(tenantID, id string, links models.LinkedAssetList) error {
	items := s.assets[tenantID]
	for i := range items {
		if items[i].ID != id {
			continue
		}
		items[i].LinkedAssets = append(links[:0:0], links...)
		items[i].UpdatedAt = time.Now()
		return nil
	}
	return models.NewAssetNotFound(id)
}

func (s *memoryState) retrieveAsset(tenantID, id string) (*models.Asset, error) {
	for _, a := range s.assets[tenantID] {
		if a.ID == id {
			out := copyAsset(a)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memoryState) fetchAssets(tenantID string, query models.AssetQuery) ([]models.Asset, error) {
	idSet := map[string]bool{}
	for _, id := range query.IDs {
		idSet[id] = true
	}

	out := []models.Asset{}
	for _, a := range s.assets[tenantID] {
		if len(idSet) > 0 && !idSet[a.ID] {
			continue
		}
		if query.ManufacturerID != nil && (a.ManufacturerID == nil || *a.ManufacturerID != *query.ManufacturerID) {
			continue
		}
		if query.AssetType != nil && (a.AssetType == nil || *a.AssetType != *query.AssetType) {
			continue
		}
		out = append(out, copyAsset(a))
	}
	return out, nil
}

func (s *memoryState) createProduct(tenantID string, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.TenantID = tenantID
	if p.Slug == "" {
		p.Slug = normalizers.Slugify(p.Title)
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[tenantID] = append(s.products[tenantID], copyProduct(*p))
	return nil
}

func (s *memoryState) updateProduct(tenantID, id string, req models.UpdateProductRequest) (*models.Product, error) {
	items := s.products[tenantID]
	for i := range items {
		if items[i].ID != id {
			continue
		}
		p := &items[i]
		if req.Title != nil {
			p.Title = *req.Title
		}
		if req.Slug != nil {
			p.Slug = *req.Slug
		}
		if req.ManufacturerID != nil {
			p.ManufacturerID = req.ManufacturerID
		}
		if req.Description != nil {
			p.Description = req.Description
		}
		if req.Tags != nil {
			p.Tags = append(p.Tags[:0:0], req.Tags...)
		}
		if req.Metadata != nil {
			p.Metadata = append(p.Metadata[:0:0], req.Metadata...)
		}
		if req.ReleasedAt != nil {
			p.ReleasedAt = req.ReleasedAt
		}
		p.UpdatedAt = time.Now()
		out := copyProduct(*p)
		return &out, nil
	}
	return nil, nil
}

func (s *memoryState) retrieveProduct(tenantID, id string) (*models.Product, error) {
	for _, p := range s.products[tenantID] {
		if p.ID == id {
			out := copyProduct(p)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memoryState) fetchProducts(tenantID string, query models.ProductQuery) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range s.products[tenantID] {
		if query.ManufacturerID != nil && (p.ManufacturerID == nil || *p.ManufacturerID != *query.ManufacturerID) {
			continue
		}
		if query.Slug != nil && p.Slug != *query.Slug {
			continue
		}
		out = append(out, copyProduct(p))
	}
	return out, nil
}

// Memory methods lock and delegate to the live state.

func (m *Memory) CreateManufacturer(ctx context.Context, tenantID string, mf *models.Manufacturer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.createManufacturer(tenantID, mf)
}

func (m *Memory) UpdateManufacturer(ctx context.Context, tenantID, id string, req models.UpdateManufacturerRequest) (*models.Manufacturer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateManufacturer(tenantID, id, req)
}

func (m *Memory) RetrieveManufacturer(ctx context.Context, tenantID, id string) (*models.Manufacturer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.retrieveManufacturer(tenantID, id)
}

func (m *Memory) FetchManufacturers(ctx context.Context, tenantID string, query models.ManufacturerQuery) ([]models.Manufacturer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.fetchManufacturers(tenantID, query)
}

func (m *Memory) CreateAsset(ctx context.Context, tenantID string, a *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.createAsset(tenantID, a)
}

func (m *Memory) UpdateAsset(ctx context.Context, tenantID, id string, req models.UpdateAssetRequest) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateAsset(tenantID, id, req)
}

func (m *Memory) SaveAssetLinks(ctx context.Context, tenantID, id string, links models.LinkedAssetList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.saveAssetLinks(tenantID, id, links)
}

func (m *Memory) RetrieveAsset(ctx context.Context, tenantID, id string) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.retrieveAsset(tenantID, id)
}

func (m *Memory) FetchAssets(ctx context.Context, tenantID string, query models.AssetQuery) ([]models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.fetchAssets(tenantID, query)
}

func (m *Memory) CreateProduct(ctx context.Context, tenantID string, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.createProduct(tenantID, p)
}

func (m *Memory) UpdateProduct(ctx context.Context, tenantID, id string, req models.UpdateProductRequest) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateProduct(tenantID, id, req)
}

func (m *Memory) RetrieveProduct(ctx context.Context, tenantID, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.retrieveProduct(tenantID, id)
}

func (m *Memory) FetchProducts(ctx context.Context, tenantID string, query models.ProductQuery) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.fetchProducts(tenantID, query)
}

// Transaction clones the state, runs fn against the clone, and swaps it in
// on success. The store lock is held throughout, so transactions serialize.
func (m *Memory) Transaction(ctx context.Context, fn func(ctx context.Context, tx EntityStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.state.clone()
	if err := fn(ctx, &memoryTx{state: working}); err != nil {
		return err
	}

	m.state = working
	return nil
}

// memoryTx is the tx-scoped view over the cloned state. It takes no locks;
// the owning Transaction call already holds the store lock.
type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) CreateManufacturer(ctx context.Context, tenantID string, m *models.Manufacturer) error {
	return t.state.createManufacturer(tenantID, m)
}

func (t *memoryTx) UpdateManufacturer(ctx context.Context, tenantID, id string, req models.UpdateManufacturerRequest) (*models.Manufacturer, error) {
	return t.state.updateManufacturer(tenantID, id, req)
}

func (t *memoryTx) RetrieveManufacturer(ctx context.Context, tenantID, id string) (*models.Manufacturer, error) {
	return t.state.retrieveManufacturer(tenantID, id)
}

func (t *memoryTx) FetchManufacturers(ctx context.Context, tenantID string, query models.ManufacturerQuery) ([]models.Manufacturer, error) {
	return t.state.fetchManufacturers(tenantID, query)
}

func (t *memoryTx) CreateAsset(ctx context.Context, tenantID string, a *models.Asset) error {
	return t.state.createAsset(tenantID, a)
}

func (t *memoryTx) UpdateAsset(ctx context.Context, tenantID, id string, req models.UpdateAssetRequest) (*models.Asset, error) {
	return t.state.updateAsset(tenantID, id, req)
}

func (t *memoryTx) SaveAssetLinks(ctx context.Context, tenantID, id string, links models.LinkedAssetList) error {
	return t.state.saveAssetLinks(tenantID, id, links)
}

func (t *memoryTx) RetrieveAsset(ctx context.Context, tenantID, id string) (*models.Asset, error) {
	return t.state.retrieveAsset(tenantID, id)
}

func (t *memoryTx) FetchAssets(ctx context.Context, tenantID string, query models.AssetQuery) ([]models.Asset, error) {
	return t.state.fetchAssets(tenantID, query)
}

func (t *memoryTx) CreateProduct(ctx context.Context, tenantID string, p *models.Product) error {
	return t.state.createProduct(tenantID, p)
}

func (t *memoryTx) UpdateProduct(ctx context.Context, tenantID, id string, req models.UpdateProductRequest) (*models.Product, error) {
	return t.state.updateProduct(tenantID, id, req)
}

func (t *memoryTx) RetrieveProduct(ctx context.Context, tenantID, id string) (*models.Product, error) {
	return t.state.retrieveProduct(tenantID, id)
}

func (t *memoryTx) FetchProducts(ctx context.Context, tenantID string, query models.ProductQuery) ([]models.Product, error) {
	return t.state.fetchProducts(tenantID, query)
}

var (
	_ Store       = (*Memory)(nil)
	_ EntityStore = (*memoryTx)(nil)
)
