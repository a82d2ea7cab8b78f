// Package processor handles incoming import messages from Kafka and hands
// them to the ingestion service.
package processor

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/ingestion"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Processor dispatches parsed import messages to the ingestion service
type Processor struct {
	logger    ectologger.Logger
	ingestion *ingestion.Service
}

// NewProcessor creates a new import message processor
func NewProcessor(logger ectologger.Logger, svc *ingestion.Service) *Processor {
	return &Processor{
		logger:    logger,
		ingestion: svc,
	}
}

// ProcessMessage processes one parsed import message. The returned error
// controls the consumer's commit behavior: nil commits, non-nil retries.
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.ProcessMessage")
	defer span.End()

	if msg.Import == nil {
		return fmt.Errorf("message has no parsed import envelope")
	}

	tenantID := msg.GetTenantID()
	ctx = fernctx.SetTenantID(ctx, tenantID)

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"kind":      msg.Import.Kind,
		"source":    msg.GetSource(),
	})

	switch msg.Import.Kind {
	case kafka.ImportKindAsset:
		result, err := p.ingestion.IngestAsset(ctx, tenantID, *msg.Import.Asset)
		if err != nil {
			log.WithError(err).Error("Failed to ingest asset message")
			return err
		}
		log.WithFields(map[string]any{
			"asset_id":             result.Asset.ID,
			"manufacturer_created": result.ManufacturerCreated,
		}).Info("Processed asset import message")
		return nil
	case kafka.ImportKindProduct:
		result, err := p.ingestion.IngestProduct(ctx, tenantID, *msg.Import.Product)
		if err != nil {
			log.WithError(err).Error("Failed to ingest product message")
			return err
		}
		log.WithFields(map[string]any{
			"product_id":           result.Product.ID,
			"manufacturer_created": result.ManufacturerCreated,
		}).Info("Processed product import message")
		return nil
	default:
		return fmt.Errorf("unknown import kind %q", msg.Import.Kind)
	}
}
