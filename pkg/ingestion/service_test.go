package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
)

const testTenant = "tenant-1"

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewService(mem, testLogger(), nil), mem
}

func TestIngestAssetCreatesManufacturer(t *testing.T) {
	svc, mem := newTestService(t)

	result, err := svc.IngestAsset(context.Background(), testTenant, models.AssetImportRecord{
		Name:             "Amiga 500",
		ManufacturerName: "Commodore",
		Tags:             []string{"computer", "retro"},
	})
	require.NoError(t, err)

	assert.True(t, result.ManufacturerCreated)
	assert.Equal(t, "Commodore", result.Manufacturer.Name)
	assert.Equal(t, "commodore", result.Manufacturer.Slug)
	require.NotNil(t, result.Asset.ManufacturerID)
	assert.Equal(t, result.Manufacturer.ID, *result.Asset.ManufacturerID)

	stored, err := mem.RetrieveAsset(context.Background(), testTenant, result.Asset.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []string{"computer", "retro"}, []string(stored.Tags))
}

func TestIngestAssetDeterministicManufacturerID(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.IngestAsset(context.Background(), testTenant, models.AssetImportRecord{
		Name:             "Amiga 500",
		ManufacturerName: "Commodore",
	})
	require.NoError(t, err)

	want := identity.Generate(identity.NamespaceManufacturer, "Commodore").String()
	assert.Equal(t, want, result.Manufacturer.ID)
}

func TestIngestAssetReusesExactNameMatch(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.IngestAsset(context.Background(), testTenant, models.AssetImportRecord{
		Name:             "Amiga 500",
		ManufacturerName: "Commodore",
	})
	require.NoError(t, err)
	require.True(t, first.ManufacturerCreated)

	second, err := svc.IngestAsset(context.Background(), testTenant, models.AssetImportRecord{
		Name:             "Amiga 1200",
		ManufacturerName: "Commodore",
	})
	require.NoError(t, err)

	assert.False(t, second.ManufacturerCreated)
	assert.Equal(t, first.Manufacturer.ID, second.Manufacturer.ID)
}

func TestIngestAssetNameMatchingIsByteExact(t *testing.T) {
	svc, mem := newTestService(t)

	_, err := svc.IngestAsset(context.Background(), testTenant, models.AssetImportRecord{
		Name:             "Amiga 500",
		ManufacturerName: "Commodore",
	})
	require.NoError(t, err)

	result, err := svc.IngestAsset(context.Background(), testTenant, models.AssetImportRecord{
		Name:             "Amiga 600",
		ManufacturerName: "commodore",
	})
	require.NoError(t, err)

	// Different bytes, different manufacturer.
	assert.True(t, result.ManufacturerCreated)

	all, err := mem.FetchManufacturers(context.Background(), testTenant, models.ManufacturerQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIngestAssetValidation(t *testing.T) {
	svc, mem := newTestService(t)

	_, err := svc.IngestAsset(context.Background(), testTenant, models.AssetImportRecord{
		Name: "Amiga 500",
	})
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, 400, httperror.GetStatusCode(err))

	// Nothing may be created on a rejected record.
	all, err := mem.FetchManufacturers(context.Background(), testTenant, models.ManufacturerQuery{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestIngestAssetInvalidMetadataCountsAsInvalid(t *testing.T) {
	svc, mem := newTestService(t)

	tenant := "tenant-bad-metadata"
	before := testutil.ToFloat64(metrics.ImportsTotal.WithLabelValues(tenant, "asset", "invalid"))

	_, err := svc.IngestAsset(context.Background(), tenant, models.AssetImportRecord{
		Name:             "Amiga 500",
		ManufacturerName: "Commodore",
		Metadata:         map[string]any{"bad": make(chan int)},
	})
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, 400, httperror.GetStatusCode(err))

	after := testutil.ToFloat64(metrics.ImportsTotal.WithLabelValues(tenant, "asset", "invalid"))
	assert.Equal(t, before+1, after)

	all, err := mem.FetchManufacturers(context.Background(), tenant, models.ManufacturerQuery{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

// failingStore wraps a Store and fails asset creation, to prove the
// manufacturer created in the same transaction is rolled back with it.
type failingStore struct {
	*store.Memory
}

type failingTx struct {
	store.EntityStore
}

func (s *failingStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx store.EntityStore) error) error {
	return s.Memory.Transaction(ctx, func(ctx context.Context, tx store.EntityStore) error {
		return fn(ctx, &failingTx{EntityStore: tx})
	})
}

func (t *failingTx) CreateAsset(ctx context.Context, tenantID string, a *models.Asset) error {
	return errors.New("asset insert failed")
}

func TestIngestAssetRollsBackManufacturer(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(&failingStore{Memory: mem}, testLogger(), nil)

	_, err := svc.IngestAsset(context.Background(), testTenant, models.AssetImportRecord{
		Name:             "Amiga 500",
		ManufacturerName: "Commodore",
	})
	require.Error(t, err)

	all, err := mem.FetchManufacturers(context.Background(), testTenant, models.ManufacturerQuery{})
	require.NoError(t, err)
	assert.Empty(t, all, "manufacturer must not survive a failed import")
}

func TestIngestProduct(t *testing.T) {
	svc, mem := newTestService(t)

	result, err := svc.IngestProduct(context.Background(), testTenant, models.ProductImportRecord{
		Title:            "Amiga 500",
		ManufacturerName: "Commodore",
		Tags:             []string{"computer"},
	})
	require.NoError(t, err)

	assert.True(t, result.ManufacturerCreated)
	assert.Equal(t, "amiga-500", result.Product.Slug)
	require.NotNil(t, result.Product.ManufacturerID)
	assert.Equal(t, result.Manufacturer.ID, *result.Product.ManufacturerID)

	stored, err := mem.RetrieveProduct(context.Background(), testTenant, result.Product.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestIngestProductReusesOldestManufacturer(t *testing.T) {
	svc, mem := newTestService(t)

	// Seed two manufacturers with the same name; the oldest must win.
	first := &models.Manufacturer{ID: "manual-1", Name: "Commodore"}
	require.NoError(t, mem.CreateManufacturer(context.Background(), testTenant, first))
	second := &models.Manufacturer{ID: "manual-2", Name: "Commodore"}
	require.NoError(t, mem.CreateManufacturer(context.Background(), testTenant, second))

	result, err := svc.IngestProduct(context.Background(), testTenant, models.ProductImportRecord{
		Title:            "Amiga 500",
		ManufacturerName: "Commodore",
	})
	require.NoError(t, err)

	assert.False(t, result.ManufacturerCreated)
	assert.Equal(t, "manual-1", result.Manufacturer.ID)
}
