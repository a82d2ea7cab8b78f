// Package events handles event emission for entity lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Emitter publishes Fern lifecycle events to the events topic
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitManufacturerCreated emits a manufacturer.created event
func (e *Emitter) EmitManufacturerCreated(ctx context.Context, tenantID string, m *models.Manufacturer) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitManufacturerCreated")
	defer span.End()

	return e.publishEntity(ctx, "manufacturer.created", tenantID, m.ID, "manufacturer", m)
}

// EmitAssetCreated emits an asset.created event
func (e *Emitter) EmitAssetCreated(ctx context.Context, tenantID string, a *models.Asset) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAssetCreated")
	defer span.End()

	return e.publishEntity(ctx, "asset.created", tenantID, a.ID, "asset", a)
}

// EmitProductCreated emits a product.created event
func (e *Emitter) EmitProductCreated(ctx context.Context, tenantID string, p *models.Product) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitProductCreated")
	defer span.End()

	return e.publishEntity(ctx, "product.created", tenantID, p.ID, "product", p)
}

// EmitAssetLinked emits an asset.linked event
func (e *Emitter) EmitAssetLinked(ctx context.Context, tenantID, assetID string, link models.LinkedAsset) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAssetLinked")
	defer span.End()

	event := &kafka.LinkEvent{
		EventType:       "asset.linked",
		TenantID:        tenantID,
		AssetID:         assetID,
		TargetAssetID:   link.AssetID,
		RequirementType: link.TypeID,
	}

	if err := e.producer.PublishLinkEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit asset.linked event")
		return err
	}
	return nil
}

// EmitAssetUnlinked emits an asset.unlinked event. Unlinking severs every
// link to the target, so the event carries no requirement type.
func (e *Emitter) EmitAssetUnlinked(ctx context.Context, tenantID, assetID, targetID string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAssetUnlinked")
	defer span.End()

	event := &kafka.LinkEvent{
		EventType:     "asset.unlinked",
		TenantID:      tenantID,
		AssetID:       assetID,
		TargetAssetID: targetID,
	}

	if err := e.producer.PublishLinkEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit asset.unlinked event")
		return err
	}
	return nil
}

func (e *Emitter) publishEntity(ctx context.Context, eventType, tenantID, entityID, entityType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &kafka.EntityEvent{
		EventType:  eventType,
		TenantID:   tenantID,
		EntityID:   entityID,
		EntityType: entityType,
		Data:       data,
	}

	if err := e.producer.PublishEntityEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
			"entity_id":  entityID,
		}).Error("Failed to emit entity event")
		return err
	}
	return nil
}
