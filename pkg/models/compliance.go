package models

// ComplianceStatus is the outcome of evaluating one relationship requirement.
type ComplianceStatus string

const (
	// StatusSatisfied means at least one link fulfills the requirement.
	StatusSatisfied ComplianceStatus = "satisfied"
	// StatusMissingRequired means a required requirement has no fulfilling link.
	StatusMissingRequired ComplianceStatus = "missing_required"
	// StatusMissingOptional means an optional requirement has no fulfilling link.
	StatusMissingOptional ComplianceStatus = "missing_optional"
	// StatusIncompatible is reserved for future type-level mismatch reporting.
	// No current evaluation path produces it.
	StatusIncompatible ComplianceStatus = "incompatible"
	// StatusNonCompliantTags means links of the right type exist but none
	// meet the requirement's matching rules.
	StatusNonCompliantTags ComplianceStatus = "non_compliant_tags"
)

// ComplianceEvaluation is the verdict for a single requirement.
type ComplianceEvaluation struct {
	Requirement RelationshipRequirement `json:"requirement"`
	Status      ComplianceStatus        `json:"status"`
	Message     string                  `json:"message"`
}

// Compliant reports whether the evaluation allows the asset to operate.
// Optional gaps do not block.
func (e ComplianceEvaluation) Compliant() bool {
	return e.Status == StatusSatisfied || e.Status == StatusMissingOptional
}

// ComplianceReport is the full evaluation payload for an asset.
type ComplianceReport struct {
	AssetID     string                 `json:"asset_id"`
	AssetName   string                 `json:"asset_name"`
	Evaluations []ComplianceEvaluation `json:"evaluations"`
	Compliant   bool                   `json:"compliant"`
}
