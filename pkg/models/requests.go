package models

import (
	"encoding/json"
	"time"
)

// ManufacturerQuery filters manufacturer fetches. A nil Name fetches all.
// Name matching is exact: byte-for-byte, case and whitespace included.
type ManufacturerQuery struct {
	Name *string
	Slug *string
}

// AssetQuery filters asset fetches. The zero value fetches all assets for
// the tenant.
type AssetQuery struct {
	IDs            []string
	ManufacturerID *string
	AssetType      *string
}

// ProductQuery filters product fetches.
type ProductQuery struct {
	ManufacturerID *string
	Slug           *string
}

// Update requests carry partial updates. Nil fields are left unchanged; a
// non-nil pointer to a zero value clears the column.

type UpdateManufacturerRequest struct {
	Name        *string         `json:"name,omitempty"`
	Slug        *string         `json:"slug,omitempty"`
	Description *string         `json:"description,omitempty"`
	Aliases     []string        `json:"aliases,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

func (r UpdateManufacturerRequest) IsZero() bool {
	return r.Name == nil && r.Slug == nil && r.Description == nil && r.Aliases == nil && r.Metadata == nil
}

type UpdateAssetRequest struct {
	Name           *string         `json:"name,omitempty"`
	AssetType      *string         `json:"asset_type,omitempty"`
	ManufacturerID *string         `json:"manufacturer_id,omitempty"`
	ProductID      *string         `json:"product_id,omitempty"`
	Location       *string         `json:"location,omitempty"`
	SerialNumber   *string         `json:"serial_number,omitempty"`
	AcquiredAt     *time.Time      `json:"acquired_at,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	Requirements   RequirementList `json:"relationship_requirements,omitempty"`
}

func (r UpdateAssetRequest) IsZero() bool {
	return r.Name == nil && r.AssetType == nil && r.ManufacturerID == nil && r.ProductID == nil &&
		r.Location == nil && r.SerialNumber == nil && r.AcquiredAt == nil && r.Tags == nil &&
		r.Metadata == nil && r.Requirements == nil
}

type UpdateProductRequest struct {
	Title          *string         `json:"title,omitempty"`
	Slug           *string         `json:"slug,omitempty"`
	ManufacturerID *string         `json:"manufacturer_id,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	ReleasedAt     *time.Time      `json:"released_at,omitempty"`
}

func (r UpdateProductRequest) IsZero() bool {
	return r.Title == nil && r.Slug == nil && r.ManufacturerID == nil && r.Description == nil &&
		r.Tags == nil && r.Metadata == nil && r.ReleasedAt == nil
}

// LinkRequest asks for a link from one asset to another.
type LinkRequest struct {
	TargetAssetID string `json:"target_asset_id" validate:"required"`
	TypeID        string `json:"type_id" validate:"required"`
	Note          string `json:"note,omitempty"`
}
