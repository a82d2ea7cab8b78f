// Package compliance evaluates relationship requirements against the links
// an asset actually has, and manages those links.
package compliance

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// LinkProjector mirrors link changes into the graph database. Projection is
// best-effort: failures are logged, never surfaced.
type LinkProjector interface {
	SyncLink(ctx context.Context, tenantID string, source *models.Asset, link models.LinkedAsset) error
	RemoveLink(ctx context.Context, tenantID, assetID, targetID string) error
}

// LinkEmitter publishes link lifecycle events.
type LinkEmitter interface {
	EmitAssetLinked(ctx context.Context, tenantID, assetID string, link models.LinkedAsset) error
	EmitAssetUnlinked(ctx context.Context, tenantID, assetID, targetID string) error
}

// Engine evaluates and mutates asset relationships. Evaluation never writes;
// Link and Unlink write only the source asset's link collection.
type Engine struct {
	store     store.Store
	logger    ectologger.Logger
	projector LinkProjector
	emitter   LinkEmitter
}

// NewEngine creates a compliance engine. projector and emitter may be nil.
func NewEngine(st store.Store, logger ectologger.Logger, projector LinkProjector, emitter LinkEmitter) *Engine {
	return &Engine{
		store:     st,
		logger:    logger,
		projector: projector,
		emitter:   emitter,
	}
}

// Evaluate produces one verdict per declared requirement, in declaration
// order. A dangling link target is a per-link failure reason, not an error.
func (e *Engine) Evaluate(ctx context.Context, tenantID, assetID string) (*models.ComplianceReport, error) {
	ctx, span := tracing.StartSpan(ctx, "compliance.Engine.Evaluate")
	defer span.End()

	asset, err := e.store.RetrieveAsset(ctx, tenantID, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, models.NewAssetNotFound(assetID)
	}

	targets, err := e.fetchLinkTargets(ctx, tenantID, asset)
	if err != nil {
		return nil, err
	}

	report := &models.ComplianceReport{
		AssetID:     asset.ID,
		AssetName:   asset.Name,
		Evaluations: make([]models.ComplianceEvaluation, 0, len(asset.Requirements)),
		Compliant:   true,
	}

	for _, req := range asset.Requirements {
		eval := evaluateRequirement(req, asset, targets)
		if !eval.Compliant() {
			report.Compliant = false
		}
		metrics.RecordComplianceEvaluation(tenantID, string(eval.Status))
		report.Evaluations = append(report.Evaluations, eval)
	}

	return report, nil
}

// fetchLinkTargets loads every asset the source links to, keyed by ID.
// Targets that no longer exist are simply absent from the map.
func (e *Engine) fetchLinkTargets(ctx context.Context, tenantID string, asset *models.Asset) (map[string]models.Asset, error) {
	ids := make([]string, 0, len(asset.LinkedAssets))
	seen := map[string]bool{}
	for _, link := range asset.LinkedAssets {
		if !seen[link.AssetID] {
			seen[link.AssetID] = true
			ids = append(ids, link.AssetID)
		}
	}

	targets := map[string]models.Asset{}
	if len(ids) == 0 {
		return targets, nil
	}

	found, err := e.store.FetchAssets(ctx, tenantID, models.AssetQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	for _, t := range found {
		targets[t.ID] = t
	}
	return targets, nil
}

func evaluateRequirement(req models.RelationshipRequirement, asset *models.Asset, targets map[string]models.Asset) models.ComplianceEvaluation {
	eval := models.ComplianceEvaluation{Requirement: req}

	links := linksOfType(asset.LinkedAssets, req.TypeID)
	if len(links) == 0 {
		if req.Required {
			eval.Status = models.StatusMissingRequired
			eval.Message = fmt.Sprintf("no linked asset fulfills required relationship %q", req.Name)
		} else {
			eval.Status = models.StatusMissingOptional
			eval.Message = fmt.Sprintf("no linked asset fulfills optional relationship %q", req.Name)
		}
		return eval
	}

	reasons := make([]string, 0, len(links))
	for _, link := range links {
		target, ok := targets[link.AssetID]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("linked asset %s no longer exists", link.AssetID))
			continue
		}

		if satisfied, reason := linkSatisfies(req, link, target); satisfied {
			eval.Status = models.StatusSatisfied
			eval.Message = fmt.Sprintf("%q is fulfilled by %q", req.Name, target.Name)
			return eval
		} else {
			reasons = append(reasons, reason)
		}
	}

	eval.Status = models.StatusNonCompliantTags
	eval.Message = strings.Join(reasons, "; ")
	return eval
}

// linkSatisfies applies the requirement's matching rules to one link. An
// allowlist hit satisfies outright; on a miss the required tags still get
// their say, so a target carrying every required tag satisfies even when it
// is off the allowlist.
func linkSatisfies(req models.RelationshipRequirement, link models.LinkedAsset, target models.Asset) (bool, string) {
	for _, id := range req.CompatibleAssetIDs {
		if id == link.AssetID {
			return true, ""
		}
	}

	if len(req.RequiredTags) > 0 {
		if missing := missingTags(req.RequiredTags, target.Tags); len(missing) > 0 {
			return false, fmt.Sprintf("%q is missing required tags [%s] for %q", target.Name, strings.Join(missing, ", "), req.Name)
		}
		return true, ""
	}

	if len(req.CompatibleAssetIDs) > 0 {
		return false, fmt.Sprintf("%q is not a compatible asset for %q", target.Name, req.Name)
	}

	// no matching rules declared, any link of the type satisfies
	return true, ""
}

func linksOfType(links models.LinkedAssetList, typeID string) []models.LinkedAsset {
	out := []models.LinkedAsset{}
	for _, link := range links {
		if link.TypeID == typeID {
			out = append(out, link)
		}
	}
	return out
}

func missingTags(required []string, have []string) []string {
	haveSet := make(map[string]bool, len(have))
	for _, t := range have {
		haveSet[t] = true
	}
	missing := []string{}
	for _, t := range required {
		if !haveSet[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

// Link attaches target to the asset. An asset holds at most one link per
// target: linking an already linked target replaces the existing entry in
// place, taking the new type and note, rather than appending a duplicate.
func (e *Engine) Link(ctx context.Context, tenantID, assetID string, req models.LinkRequest) (*models.Asset, error) {
	ctx, span := tracing.StartSpan(ctx, "compliance.Engine.Link")
	defer span.End()

	if req.TargetAssetID == "" || req.TypeID == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "target_asset_id and type_id are required")
	}

	link := models.LinkedAsset{AssetID: req.TargetAssetID, TypeID: req.TypeID, Note: req.Note}

	var updated *models.Asset
	err := e.store.Transaction(ctx, func(ctx context.Context, tx store.EntityStore) error {
		source, err := tx.RetrieveAsset(ctx, tenantID, assetID)
		if err != nil {
			return err
		}
		if source == nil {
			return models.NewAssetNotFound(assetID)
		}

		target, err := tx.RetrieveAsset(ctx, tenantID, req.TargetAssetID)
		if err != nil {
			return err
		}
		if target == nil {
			return models.NewAssetNotFound(req.TargetAssetID)
		}

		links := upsertLink(source.LinkedAssets, link)
		if err := tx.SaveAssetLinks(ctx, tenantID, assetID, links); err != nil {
			return err
		}

		source.LinkedAssets = links
		updated = source
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.afterLink(ctx, tenantID, updated, link)

	return updated, nil
}

// upsertLink replaces an existing entry for the same target in place,
// preserving its position, and appends otherwise.
func upsertLink(links models.LinkedAssetList, link models.LinkedAsset) models.LinkedAssetList {
	out := append(links[:0:0], links...)
	for i, existing := range out {
		if existing.AssetID == link.AssetID {
			out[i] = link
			return out
		}
	}
	return append(out, link)
}

func (e *Engine) afterLink(ctx context.Context, tenantID string, source *models.Asset, link models.LinkedAsset) {
	if e.projector != nil {
		if err := e.projector.SyncLink(ctx, tenantID, source, link); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("failed to project link to graph")
		}
	}
	if e.emitter != nil {
		if err := e.emitter.EmitAssetLinked(ctx, tenantID, source.ID, link); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("failed to emit asset linked event")
		}
	}
}

// Unlink removes every link to the target, whatever its type. Removing a
// link that does not exist is a no-op success.
func (e *Engine) Unlink(ctx context.Context, tenantID, assetID, targetID string) (*models.Asset, error) {
	ctx, span := tracing.StartSpan(ctx, "compliance.Engine.Unlink")
	defer span.End()

	var updated *models.Asset
	err := e.store.Transaction(ctx, func(ctx context.Context, tx store.EntityStore) error {
		source, err := tx.RetrieveAsset(ctx, tenantID, assetID)
		if err != nil {
			return err
		}
		if source == nil {
			return models.NewAssetNotFound(assetID)
		}

		links := models.LinkedAssetList{}
		for _, link := range source.LinkedAssets {
			if link.AssetID == targetID {
				continue
			}
			links = append(links, link)
		}

		if err := tx.SaveAssetLinks(ctx, tenantID, assetID, links); err != nil {
			return err
		}

		source.LinkedAssets = links
		updated = source
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.afterUnlink(ctx, tenantID, assetID, targetID)

	return updated, nil
}

func (e *Engine) afterUnlink(ctx context.Context, tenantID, assetID, targetID string) {
	if e.projector != nil {
		if err := e.projector.RemoveLink(ctx, tenantID, assetID, targetID); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("failed to remove link from graph")
		}
	}
	if e.emitter != nil {
		if err := e.emitter.EmitAssetUnlinked(ctx, tenantID, assetID, targetID); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("failed to emit asset unlinked event")
		}
	}
}

// FindCandidates returns the assets that could fulfill the named
// requirement. Allowlist requirements resolve their IDs in declaration
// order, skipping dangling entries and ignoring tags entirely; tag
// requirements return every asset whose tags are a superset. A requirement
// with no rules matches every asset in the store.
func (e *Engine) FindCandidates(ctx context.Context, tenantID, assetID, requirementName string) ([]models.Asset, error) {
	ctx, span := tracing.StartSpan(ctx, "compliance.Engine.FindCandidates")
	defer span.End()

	asset, err := e.store.RetrieveAsset(ctx, tenantID, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, models.NewAssetNotFound(assetID)
	}

	var req *models.RelationshipRequirement
	for i := range asset.Requirements {
		if asset.Requirements[i].Name == requirementName {
			req = &asset.Requirements[i]
			break
		}
	}
	if req == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "requirement %q not found on asset %s", requirementName, assetID)
	}

	if len(req.CompatibleAssetIDs) > 0 {
		found, err := e.store.FetchAssets(ctx, tenantID, models.AssetQuery{IDs: req.CompatibleAssetIDs})
		if err != nil {
			return nil, err
		}
		byID := make(map[string]models.Asset, len(found))
		for _, a := range found {
			byID[a.ID] = a
		}

		candidates := []models.Asset{}
		for _, id := range req.CompatibleAssetIDs {
			if a, ok := byID[id]; ok {
				candidates = append(candidates, a)
			}
		}
		return candidates, nil
	}

	all, err := e.store.FetchAssets(ctx, tenantID, models.AssetQuery{})
	if err != nil {
		return nil, err
	}

	candidates := []models.Asset{}
	for _, a := range all {
		if len(missingTags(req.RequiredTags, a.Tags)) > 0 {
			continue
		}
		candidates = append(candidates, a)
	}
	return candidates, nil
}
