package processor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/ingestion"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestProcessor(t *testing.T) (*Processor, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := ingestion.NewService(mem, testLogger(), nil)
	return NewProcessor(testLogger(), svc), mem
}

func incomingImport(t *testing.T, msg kafka.ImportMessage) *kafka.IncomingMessage {
	t.Helper()
	value, err := json.Marshal(msg)
	require.NoError(t, err)

	incoming := &kafka.IncomingMessage{Value: value, Headers: map[string]string{}}
	require.NoError(t, incoming.ParseImportMessage())
	return incoming
}

func TestProcessAssetMessage(t *testing.T) {
	proc, mem := newTestProcessor(t)

	msg := incomingImport(t, kafka.ImportMessage{
		TenantID: "tenant-1",
		Kind:     kafka.ImportKindAsset,
		Asset: &models.AssetImportRecord{
			Name:             "Amiga 500",
			ManufacturerName: "Commodore",
		},
	})

	require.NoError(t, proc.ProcessMessage(context.Background(), msg))

	assets, err := mem.FetchAssets(context.Background(), "tenant-1", models.AssetQuery{})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Amiga 500", assets[0].Name)
}

func TestProcessProductMessage(t *testing.T) {
	proc, mem := newTestProcessor(t)

	msg := incomingImport(t, kafka.ImportMessage{
		TenantID: "tenant-1",
		Kind:     kafka.ImportKindProduct,
		Product: &models.ProductImportRecord{
			Title:            "Amiga 500",
			ManufacturerName: "Commodore",
		},
	})

	require.NoError(t, proc.ProcessMessage(context.Background(), msg))

	products, err := mem.FetchProducts(context.Background(), "tenant-1", models.ProductQuery{})
	require.NoError(t, err)
	require.Len(t, products, 1)
}

func TestProcessInvalidRecordReturnsError(t *testing.T) {
	proc, mem := newTestProcessor(t)

	msg := incomingImport(t, kafka.ImportMessage{
		TenantID: "tenant-1",
		Kind:     kafka.ImportKindAsset,
		Asset:    &models.AssetImportRecord{Name: "Amiga 500"},
	})

	require.Error(t, proc.ProcessMessage(context.Background(), msg))

	assets, err := mem.FetchAssets(context.Background(), "tenant-1", models.AssetQuery{})
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestProcessMessageWithoutEnvelope(t *testing.T) {
	proc, _ := newTestProcessor(t)

	err := proc.ProcessMessage(context.Background(), &kafka.IncomingMessage{})
	require.Error(t, err)
}
