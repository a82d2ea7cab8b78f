package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
)

const testTenant = "tenant-1"

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewEngine(mem, testLogger(), nil, nil), mem
}

func createAsset(t *testing.T, mem *store.Memory, a *models.Asset) *models.Asset {
	t.Helper()
	require.NoError(t, mem.CreateAsset(context.Background(), testTenant, a))
	return a
}

func TestEvaluateUnknownAsset(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Evaluate(context.Background(), testTenant, "missing")
	require.Error(t, err)

	var notFound *models.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestEvaluateNoRequirements(t *testing.T) {
	engine, mem := newTestEngine(t)
	asset := createAsset(t, mem, &models.Asset{Name: "Amiga 500"})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	assert.True(t, report.Compliant)
	assert.Empty(t, report.Evaluations)
	assert.Equal(t, "Amiga 500", report.AssetName)
}

func TestEvaluateMissingRequired(t *testing.T) {
	engine, mem := newTestEngine(t)
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{Name: "power supply", TypeID: "powered-by", Required: true},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 1)
	assert.Equal(t, models.StatusMissingRequired, report.Evaluations[0].Status)
	assert.Contains(t, report.Evaluations[0].Message, "power supply")
	assert.False(t, report.Compliant)
}

func TestEvaluateMissingOptionalIsCompliant(t *testing.T) {
	engine, mem := newTestEngine(t)
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{Name: "monitor", TypeID: "displays-on", Required: false},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 1)
	assert.Equal(t, models.StatusMissingOptional, report.Evaluations[0].Status)
	assert.True(t, report.Compliant)
}

func TestEvaluateExistenceOnly(t *testing.T) {
	engine, mem := newTestEngine(t)
	target := createAsset(t, mem, &models.Asset{Name: "Commodore 1084S"})
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{Name: "monitor", TypeID: "displays-on", Required: true},
		},
		LinkedAssets: models.LinkedAssetList{
			{AssetID: target.ID, TypeID: "displays-on"},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 1)
	assert.Equal(t, models.StatusSatisfied, report.Evaluations[0].Status)
	assert.Contains(t, report.Evaluations[0].Message, "Commodore 1084S")
	assert.True(t, report.Compliant)
}

func TestEvaluateAllowlistMissRescuedByTags(t *testing.T) {
	engine, mem := newTestEngine(t)

	// The linked target is off the allowlist but carries every required
	// tag; the tag rule still gets its say.
	target := createAsset(t, mem, &models.Asset{
		Name: "Generic PSU",
		Tags: pq.StringArray{"psu", "240v"},
	})
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{
				Name:               "power supply",
				TypeID:             "powered-by",
				Required:           true,
				CompatibleAssetIDs: []string{"some-other-id"},
				RequiredTags:       []string{"psu", "240v"},
			},
		},
		LinkedAssets: models.LinkedAssetList{
			{AssetID: target.ID, TypeID: "powered-by"},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 1)
	assert.Equal(t, models.StatusSatisfied, report.Evaluations[0].Status)
	assert.True(t, report.Compliant)
}

func TestEvaluateAllowlistMissWithMissingTags(t *testing.T) {
	engine, mem := newTestEngine(t)

	target := createAsset(t, mem, &models.Asset{
		Name: "Generic PSU",
		Tags: pq.StringArray{"psu"},
	})
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{
				Name:               "power supply",
				TypeID:             "powered-by",
				Required:           true,
				CompatibleAssetIDs: []string{"some-other-id"},
				RequiredTags:       []string{"psu", "240v"},
			},
		},
		LinkedAssets: models.LinkedAssetList{
			{AssetID: target.ID, TypeID: "powered-by"},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 1)
	eval := report.Evaluations[0]
	assert.Equal(t, models.StatusNonCompliantTags, eval.Status)
	assert.Contains(t, eval.Message, `"Generic PSU" is missing required tags [240v] for "power supply"`)
	assert.False(t, report.Compliant)
}

func TestEvaluateAllowlistMissWithoutTagRule(t *testing.T) {
	engine, mem := newTestEngine(t)

	target := createAsset(t, mem, &models.Asset{Name: "Generic PSU"})
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{
				Name:               "power supply",
				TypeID:             "powered-by",
				Required:           true,
				CompatibleAssetIDs: []string{"some-other-id"},
			},
		},
		LinkedAssets: models.LinkedAssetList{
			{AssetID: target.ID, TypeID: "powered-by"},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 1)
	eval := report.Evaluations[0]
	assert.Equal(t, models.StatusNonCompliantTags, eval.Status)
	assert.Contains(t, eval.Message, `"Generic PSU" is not a compatible asset for "power supply"`)
	assert.False(t, report.Compliant)
}

func TestEvaluateAllowlistMatch(t *testing.T) {
	engine, mem := newTestEngine(t)
	target := createAsset(t, mem, &models.Asset{Name: "A500 PSU"})
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{
				Name:               "power supply",
				TypeID:             "powered-by",
				Required:           true,
				CompatibleAssetIDs: []string{target.ID},
				RequiredTags:       []string{"never-checked"},
			},
		},
		LinkedAssets: models.LinkedAssetList{
			{AssetID: target.ID, TypeID: "powered-by"},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 1)
	assert.Equal(t, models.StatusSatisfied, report.Evaluations[0].Status)
}

func TestEvaluateRequiredTagsSubset(t *testing.T) {
	engine, mem := newTestEngine(t)
	good := createAsset(t, mem, &models.Asset{
		Name: "Tagged PSU",
		Tags: pq.StringArray{"psu", "240v", "spare"},
	})
	bad := createAsset(t, mem, &models.Asset{
		Name: "Untagged PSU",
	})

	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{Name: "good psu", TypeID: "powered-by", Required: true, RequiredTags: []string{"psu", "240v"}},
			{Name: "bad psu", TypeID: "backup-power", Required: true, RequiredTags: []string{"psu"}},
		},
		LinkedAssets: models.LinkedAssetList{
			{AssetID: good.ID, TypeID: "powered-by"},
			{AssetID: bad.ID, TypeID: "backup-power"},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 2)
	assert.Equal(t, models.StatusSatisfied, report.Evaluations[0].Status)

	// An empty tag set on the target never satisfies a non-empty required set.
	assert.Equal(t, models.StatusNonCompliantTags, report.Evaluations[1].Status)
	assert.Contains(t, report.Evaluations[1].Message, `"Untagged PSU" is missing required tags [psu] for "bad psu"`)
}

func TestEvaluateDanglingLinkIsReasonNotError(t *testing.T) {
	engine, mem := newTestEngine(t)
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{Name: "monitor", TypeID: "displays-on", Required: true},
		},
		LinkedAssets: models.LinkedAssetList{
			{AssetID: "gone-asset", TypeID: "displays-on"},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 1)
	assert.Equal(t, models.StatusNonCompliantTags, report.Evaluations[0].Status)
	assert.Contains(t, report.Evaluations[0].Message, "gone-asset no longer exists")
}

func TestEvaluateOrderMatchesDeclaration(t *testing.T) {
	engine, mem := newTestEngine(t)
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{Name: "first", TypeID: "a", Required: true},
			{Name: "second", TypeID: "b", Required: false},
			{Name: "third", TypeID: "c", Required: true},
		},
	})

	report, err := engine.Evaluate(context.Background(), testTenant, asset.ID)
	require.NoError(t, err)

	require.Len(t, report.Evaluations, 3)
	assert.Equal(t, "first", report.Evaluations[0].Requirement.Name)
	assert.Equal(t, "second", report.Evaluations[1].Requirement.Name)
	assert.Equal(t, "third", report.Evaluations[2].Requirement.Name)
}

func TestLinkAppendsAndPersists(t *testing.T) {
	engine, mem := newTestEngine(t)
	source := createAsset(t, mem, &models.Asset{Name: "Amiga 500"})
	target := createAsset(t, mem, &models.Asset{Name: "A500 PSU"})

	updated, err := engine.Link(context.Background(), testTenant, source.ID, models.LinkRequest{
		TargetAssetID: target.ID,
		TypeID:        "powered-by",
		Note:          "original psu",
	})
	require.NoError(t, err)
	require.Len(t, updated.LinkedAssets, 1)
	assert.Equal(t, "original psu", updated.LinkedAssets[0].Note)

	stored, err := mem.RetrieveAsset(context.Background(), testTenant, source.ID)
	require.NoError(t, err)
	require.Len(t, stored.LinkedAssets, 1)
	assert.Equal(t, target.ID, stored.LinkedAssets[0].AssetID)
}

func TestLinkReplacesInPlace(t *testing.T) {
	engine, mem := newTestEngine(t)
	source := createAsset(t, mem, &models.Asset{Name: "Amiga 500"})
	first := createAsset(t, mem, &models.Asset{Name: "A500 PSU"})
	second := createAsset(t, mem, &models.Asset{Name: "Commodore 1084S"})

	_, err := engine.Link(context.Background(), testTenant, source.ID, models.LinkRequest{
		TargetAssetID: first.ID,
		TypeID:        "powered-by",
		Note:          "old note",
	})
	require.NoError(t, err)
	_, err = engine.Link(context.Background(), testTenant, source.ID, models.LinkRequest{
		TargetAssetID: second.ID,
		TypeID:        "displays-on",
	})
	require.NoError(t, err)

	// Relinking the first pair must update it in place, not append.
	updated, err := engine.Link(context.Background(), testTenant, source.ID, models.LinkRequest{
		TargetAssetID: first.ID,
		TypeID:        "powered-by",
		Note:          "new note",
	})
	require.NoError(t, err)

	require.Len(t, updated.LinkedAssets, 2)
	assert.Equal(t, first.ID, updated.LinkedAssets[0].AssetID)
	assert.Equal(t, "new note", updated.LinkedAssets[0].Note)
	assert.Equal(t, second.ID, updated.LinkedAssets[1].AssetID)
}

func TestLinkSameTargetNewTypeReplaces(t *testing.T) {
	engine, mem := newTestEngine(t)
	source := createAsset(t, mem, &models.Asset{Name: "Amiga 500"})
	target := createAsset(t, mem, &models.Asset{Name: "A500 PSU"})

	_, err := engine.Link(context.Background(), testTenant, source.ID, models.LinkRequest{
		TargetAssetID: target.ID,
		TypeID:        "powered-by",
	})
	require.NoError(t, err)

	// At most one link per target: a new type replaces the old link rather
	// than adding a second edge to the same target.
	updated, err := engine.Link(context.Background(), testTenant, source.ID, models.LinkRequest{
		TargetAssetID: target.ID,
		TypeID:        "displays-on",
	})
	require.NoError(t, err)

	require.Len(t, updated.LinkedAssets, 1)
	assert.Equal(t, target.ID, updated.LinkedAssets[0].AssetID)
	assert.Equal(t, "displays-on", updated.LinkedAssets[0].TypeID)

	stored, err := mem.RetrieveAsset(context.Background(), testTenant, source.ID)
	require.NoError(t, err)
	require.Len(t, stored.LinkedAssets, 1)
	assert.Equal(t, "displays-on", stored.LinkedAssets[0].TypeID)
}

func TestLinkUnknownEnds(t *testing.T) {
	engine, mem := newTestEngine(t)
	source := createAsset(t, mem, &models.Asset{Name: "Amiga 500"})

	_, err := engine.Link(context.Background(), testTenant, "missing", models.LinkRequest{
		TargetAssetID: source.ID,
		TypeID:        "powered-by",
	})
	var notFound *models.NotFoundError
	require.True(t, errors.As(err, &notFound))

	_, err = engine.Link(context.Background(), testTenant, source.ID, models.LinkRequest{
		TargetAssetID: "missing",
		TypeID:        "powered-by",
	})
	require.True(t, errors.As(err, &notFound))

	// A failed link must leave the source untouched.
	stored, err := mem.RetrieveAsset(context.Background(), testTenant, source.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.LinkedAssets)
}

func TestUnlinkRemovesAllLinksToTarget(t *testing.T) {
	engine, mem := newTestEngine(t)
	target := createAsset(t, mem, &models.Asset{Name: "A500 PSU"})
	other := createAsset(t, mem, &models.Asset{Name: "Commodore 1084S"})

	// Pre-existing data may hold several links to one target; unlink severs
	// them all, whatever their types.
	source := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		LinkedAssets: models.LinkedAssetList{
			{AssetID: target.ID, TypeID: "powered-by"},
			{AssetID: other.ID, TypeID: "displays-on"},
			{AssetID: target.ID, TypeID: "backup-power"},
		},
	})

	updated, err := engine.Unlink(context.Background(), testTenant, source.ID, target.ID)
	require.NoError(t, err)

	require.Len(t, updated.LinkedAssets, 1)
	assert.Equal(t, other.ID, updated.LinkedAssets[0].AssetID)
}

func TestUnlinkAbsentIsNoop(t *testing.T) {
	engine, mem := newTestEngine(t)
	source := createAsset(t, mem, &models.Asset{Name: "Amiga 500"})

	updated, err := engine.Unlink(context.Background(), testTenant, source.ID, "never-linked")
	require.NoError(t, err)
	assert.Empty(t, updated.LinkedAssets)
}

func TestFindCandidatesAllowlistOrder(t *testing.T) {
	engine, mem := newTestEngine(t)
	b := createAsset(t, mem, &models.Asset{Name: "PSU B"})
	a := createAsset(t, mem, &models.Asset{Name: "PSU A"})
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{
				Name:               "power supply",
				TypeID:             "powered-by",
				CompatibleAssetIDs: []string{a.ID, "dangling", b.ID},
			},
		},
	})

	candidates, err := engine.FindCandidates(context.Background(), testTenant, asset.ID, "power supply")
	require.NoError(t, err)

	// Declaration order, dangling entries skipped.
	require.Len(t, candidates, 2)
	assert.Equal(t, a.ID, candidates[0].ID)
	assert.Equal(t, b.ID, candidates[1].ID)
}

func TestFindCandidatesTagSuperset(t *testing.T) {
	engine, mem := newTestEngine(t)
	match := createAsset(t, mem, &models.Asset{Name: "Tagged PSU", Tags: pq.StringArray{"psu", "240v"}})
	createAsset(t, mem, &models.Asset{Name: "Other PSU", Tags: pq.StringArray{"psu"}})
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Tags: pq.StringArray{"psu", "240v"},
		Requirements: models.RequirementList{
			{Name: "power supply", TypeID: "powered-by", RequiredTags: []string{"psu", "240v"}},
		},
	})

	candidates, err := engine.FindCandidates(context.Background(), testTenant, asset.ID, "power supply")
	require.NoError(t, err)

	// Tag matching is purely set membership; an owner carrying the tags
	// itself appears in its own candidate list.
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{match.ID, asset.ID}, ids)
}

func TestFindCandidatesNoRulesMatchesEveryone(t *testing.T) {
	engine, mem := newTestEngine(t)
	other1 := createAsset(t, mem, &models.Asset{Name: "One"})
	other2 := createAsset(t, mem, &models.Asset{Name: "Two"})
	asset := createAsset(t, mem, &models.Asset{
		Name: "Amiga 500",
		Requirements: models.RequirementList{
			{Name: "anything", TypeID: "related-to"},
		},
	})

	candidates, err := engine.FindCandidates(context.Background(), testTenant, asset.ID, "anything")
	require.NoError(t, err)

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{other1.ID, other2.ID, asset.ID}, ids)
}

func TestFindCandidatesUnknownRequirement(t *testing.T) {
	engine, mem := newTestEngine(t)
	asset := createAsset(t, mem, &models.Asset{Name: "Amiga 500"})

	_, err := engine.FindCandidates(context.Background(), testTenant, asset.ID, "nope")
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, 404, httperror.GetStatusCode(err))
}
