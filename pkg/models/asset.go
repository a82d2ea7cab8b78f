package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Asset is a physical unit in a tenant's inventory. Relationship requirements
// and links to other assets live on the asset row as jsonb collections; they
// are owned by the asset and carry no identity of their own.
type Asset struct {
	ID             string          `db:"id" json:"id"`
	TenantID       string          `db:"tenant_id" json:"tenant_id"`
	Name           string          `db:"name" json:"name"`
	AssetType      *string         `db:"asset_type" json:"asset_type,omitempty"`
	ManufacturerID *string         `db:"manufacturer_id" json:"manufacturer_id,omitempty"`
	ProductID      *string         `db:"product_id" json:"product_id,omitempty"`
	Location       *string         `db:"location" json:"location,omitempty"`
	SerialNumber   *string         `db:"serial_number" json:"serial_number,omitempty"`
	AcquiredAt     *time.Time      `db:"acquired_at" json:"acquired_at,omitempty"`
	Tags           pq.StringArray  `db:"tags" json:"tags,omitempty"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	Requirements   RequirementList `db:"relationship_requirements" json:"relationship_requirements,omitempty"`
	LinkedAssets   LinkedAssetList `db:"linked_assets" json:"linked_assets,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
}

// RelationshipRequirement declares that an asset needs (or benefits from) a
// link of a given type to some other asset. Matching is either an explicit ID
// allowlist or a required-tags subset check; a non-empty allowlist wins and
// tags are ignored.
type RelationshipRequirement struct {
	Name               string   `json:"name"`
	TypeID             string   `json:"type_id"`
	Required           bool     `json:"required"`
	CompatibleAssetIDs []string `json:"compatible_asset_ids,omitempty"`
	RequiredTags       []string `json:"required_tags,omitempty"`
	ComplianceNotes    string   `json:"compliance_notes,omitempty"`
}

// LinkedAsset is one edge from the owning asset to another asset.
type LinkedAsset struct {
	AssetID string `json:"asset_id"`
	TypeID  string `json:"type_id"`
	Note    string `json:"note,omitempty"`
}

// RequirementList stores requirements as a jsonb column.
type RequirementList []RelationshipRequirement

func (l *RequirementList) Scan(src any) error {
	return scanJSONList(src, l, "RequirementList")
}

func (l RequirementList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]RelationshipRequirement{})
	}
	return json.Marshal(l)
}

// LinkedAssetList stores links as a jsonb column.
type LinkedAssetList []LinkedAsset

func (l *LinkedAssetList) Scan(src any) error {
	return scanJSONList(src, l, "LinkedAssetList")
}

func (l LinkedAssetList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]LinkedAsset{})
	}
	return json.Marshal(l)
}

func scanJSONList(src, dest any, kind string) error {
	if src == nil {
		return nil
	}
	switch b := src.(type) {
	case []byte:
		return json.Unmarshal(b, dest)
	case string:
		return json.Unmarshal([]byte(b), dest)
	default:
		return fmt.Errorf("%s.Scan: expected []byte, got %T", kind, src)
	}
}

// AssetListResponse is the paginated list payload.
type AssetListResponse struct {
	Items      []Asset `json:"items"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
}
