package models

import "time"

// AssetImportRecord is one asset row from an external source. The
// manufacturer is referenced by name only; ingestion resolves or creates it.
type AssetImportRecord struct {
	Name             string                    `json:"name" validate:"required"`
	ManufacturerName string                    `json:"manufacturer_name" validate:"required"`
	AssetType        *string                   `json:"asset_type,omitempty"`
	Location         *string                   `json:"location,omitempty"`
	SerialNumber     *string                   `json:"serial_number,omitempty"`
	AcquiredAt       *time.Time                `json:"acquired_at,omitempty"`
	Tags             []string                  `json:"tags,omitempty"`
	Metadata         map[string]any            `json:"metadata,omitempty"`
	Requirements     []RelationshipRequirement `json:"relationship_requirements,omitempty"`
}

// ProductImportRecord is one product row from an external source.
type ProductImportRecord struct {
	Title            string         `json:"title" validate:"required"`
	ManufacturerName string         `json:"manufacturer_name" validate:"required"`
	Description      *string        `json:"description,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	ReleasedAt       *time.Time     `json:"released_at,omitempty"`
}

// ImportResult reports what one import created or reused.
type ImportResult struct {
	Asset               *Asset        `json:"asset,omitempty"`
	Product             *Product      `json:"product,omitempty"`
	Manufacturer        *Manufacturer `json:"manufacturer"`
	ManufacturerCreated bool          `json:"manufacturer_created"`
}
