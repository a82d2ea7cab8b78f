package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// LinkService mirrors asset link changes into the graph database. The graph
// is a read-optimized projection; Postgres stays the source of truth.
type LinkService struct {
	client *Client
	logger ectologger.Logger
}

// NewLinkService creates a new link service
func NewLinkService(client *Client, logger ectologger.Logger) *LinkService {
	return &LinkService{
		client: client,
		logger: logger,
	}
}

// LinkedNode is one neighbor of an asset in the graph projection
type LinkedNode struct {
	AssetID string `json:"asset_id"`
	Name    string `json:"name"`
	TypeID  string `json:"type_id"`
	Note    string `json:"note,omitempty"`
}

// SyncLink upserts both asset nodes and the LINKED_TO edge between them
func (s *LinkService) SyncLink(ctx context.Context, tenantID string, source *models.Asset, link models.LinkedAsset) error {
	ctx, span := tracing.StartSpan(ctx, "graph.LinkService.SyncLink")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"asset_id":  source.ID,
		"target_id": link.AssetID,
		"type_id":   link.TypeID,
	})

	cypher := `
		MERGE (from:Asset {id: $from_id, tenant_id: $tenant_id})
		SET from.name = $from_name
		MERGE (to:Asset {id: $to_id, tenant_id: $tenant_id})
		MERGE (from)-[r:LINKED_TO {type_id: $type_id, tenant_id: $tenant_id}]->(to)
		SET r.note = $note
		RETURN r
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"from_id":   source.ID,
			"from_name": source.Name,
			"to_id":     link.AssetID,
			"type_id":   link.TypeID,
			"tenant_id": tenantID,
			"note":      link.Note,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		log.WithError(err).Error("Failed to sync link to graph")
		return fmt.Errorf("failed to sync link to graph: %w", err)
	}

	log.Debug("Synced link to graph")
	return nil
}

// RemoveLink deletes every LINKED_TO edge between two assets
func (s *LinkService) RemoveLink(ctx context.Context, tenantID, assetID, targetID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.LinkService.RemoveLink")
	defer span.End()

	cypher := `
		MATCH (from:Asset {id: $from_id, tenant_id: $tenant_id})-[r:LINKED_TO {tenant_id: $tenant_id}]->(to:Asset {id: $to_id, tenant_id: $tenant_id})
		DELETE r
	`

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"from_id":   assetID,
			"to_id":     targetID,
			"tenant_id": tenantID,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"asset_id":  assetID,
			"target_id": targetID,
		}).Error("Failed to remove link from graph")
		return fmt.Errorf("failed to remove link from graph: %w", err)
	}

	return nil
}

// GetLinkedAssets returns the outgoing neighbors of an asset
func (s *LinkService) GetLinkedAssets(ctx context.Context, tenantID, assetID string) ([]LinkedNode, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.LinkService.GetLinkedAssets")
	defer span.End()

	cypher := `
		MATCH (from:Asset {id: $from_id, tenant_id: $tenant_id})-[r:LINKED_TO]->(to:Asset)
		RETURN to.id AS asset_id, to.name AS name, r.type_id AS type_id, r.note AS note
	`

	res, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"from_id":   assetID,
			"tenant_id": tenantID,
		})
		if err != nil {
			return nil, err
		}

		nodes := []LinkedNode{}
		for result.Next(ctx) {
			record := result.Record()
			node := LinkedNode{}
			if v, ok := record.Get("asset_id"); ok && v != nil {
				node.AssetID, _ = v.(string)
			}
			if v, ok := record.Get("name"); ok && v != nil {
				node.Name, _ = v.(string)
			}
			if v, ok := record.Get("type_id"); ok && v != nil {
				node.TypeID, _ = v.(string)
			}
			if v, ok := record.Get("note"); ok && v != nil {
				node.Note, _ = v.(string)
			}
			nodes = append(nodes, node)
		}
		return nodes, result.Err()
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"asset_id": assetID,
		}).Error("Failed to read linked assets from graph")
		return nil, err
	}

	return res.([]LinkedNode), nil
}
