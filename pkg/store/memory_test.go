package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

const testTenant = "tenant-1"

func TestMemoryCreateManufacturerDefaults(t *testing.T) {
	mem := NewMemory()

	m := &models.Manufacturer{Name: "Amiga Inc"}
	require.NoError(t, mem.CreateManufacturer(context.Background(), testTenant, m))

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "amiga-inc", m.Slug)
	assert.False(t, m.CreatedAt.IsZero())

	stored, err := mem.RetrieveManufacturer(context.Background(), testTenant, m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Amiga Inc", stored.Name)
}

func TestMemoryRetrieveAbsentIsNil(t *testing.T) {
	mem := NewMemory()

	m, err := mem.RetrieveManufacturer(context.Background(), testTenant, "missing")
	require.NoError(t, err)
	assert.Nil(t, m)

	a, err := mem.RetrieveAsset(context.Background(), testTenant, "missing")
	require.NoError(t, err)
	assert.Nil(t, a)

	p, err := mem.RetrieveProduct(context.Background(), testTenant, "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestMemoryTenantIsolation(t *testing.T) {
	mem := NewMemory()

	m := &models.Manufacturer{Name: "Commodore"}
	require.NoError(t, mem.CreateManufacturer(context.Background(), testTenant, m))

	other, err := mem.RetrieveManufacturer(context.Background(), "tenant-2", m.ID)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMemoryTransactionCommit(t *testing.T) {
	mem := NewMemory()

	var assetID string
	err := mem.Transaction(context.Background(), func(ctx context.Context, tx EntityStore) error {
		a := &models.Asset{Name: "Amiga 500"}
		if err := tx.CreateAsset(ctx, testTenant, a); err != nil {
			return err
		}
		assetID = a.ID
		return nil
	})
	require.NoError(t, err)

	stored, err := mem.RetrieveAsset(context.Background(), testTenant, assetID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestMemoryTransactionRollback(t *testing.T) {
	mem := NewMemory()

	boom := errors.New("boom")
	err := mem.Transaction(context.Background(), func(ctx context.Context, tx EntityStore) error {
		if err := tx.CreateManufacturer(ctx, testTenant, &models.Manufacturer{Name: "Commodore"}); err != nil {
			return err
		}
		if err := tx.CreateAsset(ctx, testTenant, &models.Asset{Name: "Amiga 500"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	manufacturers, err := mem.FetchManufacturers(context.Background(), testTenant, models.ManufacturerQuery{})
	require.NoError(t, err)
	assert.Empty(t, manufacturers)

	assets, err := mem.FetchAssets(context.Background(), testTenant, models.AssetQuery{})
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestMemoryTransactionReadsOwnWrites(t *testing.T) {
	mem := NewMemory()

	err := mem.Transaction(context.Background(), func(ctx context.Context, tx EntityStore) error {
		m := &models.Manufacturer{Name: "Commodore"}
		if err := tx.CreateManufacturer(ctx, testTenant, m); err != nil {
			return err
		}

		found, err := tx.FetchManufacturers(ctx, testTenant, models.ManufacturerQuery{Name: strPtr("Commodore")})
		if err != nil {
			return err
		}
		assert.Len(t, found, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestMemorySaveAssetLinksUnknownAsset(t *testing.T) {
	mem := NewMemory()

	err := mem.SaveAssetLinks(context.Background(), testTenant, "missing", models.LinkedAssetList{})
	require.Error(t, err)

	var notFound *models.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestMemoryUpdateAssetNilFieldsUnchanged(t *testing.T) {
	mem := NewMemory()

	location := "office"
	a := &models.Asset{Name: "Amiga 500", Location: &location}
	require.NoError(t, mem.CreateAsset(context.Background(), testTenant, a))

	name := "Amiga 500 (recapped)"
	updated, err := mem.UpdateAsset(context.Background(), testTenant, a.ID, models.UpdateAssetRequest{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "Amiga 500 (recapped)", updated.Name)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "office", *updated.Location)
}

func TestMemoryUpdateAbsentIsNil(t *testing.T) {
	mem := NewMemory()

	name := "whatever"
	updated, err := mem.UpdateAsset(context.Background(), testTenant, "missing", models.UpdateAssetRequest{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestMemoryFetchManufacturersPreservesInsertionOrder(t *testing.T) {
	mem := NewMemory()

	first := &models.Manufacturer{ID: "id-1", Name: "Commodore"}
	require.NoError(t, mem.CreateManufacturer(context.Background(), testTenant, first))
	second := &models.Manufacturer{ID: "id-2", Name: "Commodore"}
	require.NoError(t, mem.CreateManufacturer(context.Background(), testTenant, second))

	found, err := mem.FetchManufacturers(context.Background(), testTenant, models.ManufacturerQuery{Name: strPtr("Commodore")})
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Equal(t, "id-1", found[0].ID)
}

func TestMemoryConcurrentTransactions(t *testing.T) {
	mem := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mem.Transaction(context.Background(), func(ctx context.Context, tx EntityStore) error {
				return tx.CreateAsset(ctx, testTenant, &models.Asset{Name: "Amiga 500"})
			})
		}()
	}
	wg.Wait()

	assets, err := mem.FetchAssets(context.Background(), testTenant, models.AssetQuery{})
	require.NoError(t, err)
	assert.Len(t, assets, 20)
}

func strPtr(s string) *string {
	return &s
}
