package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Product is a catalog entry for something that was manufactured, as opposed
// to an Asset which is a physical unit somebody owns.
type Product struct {
	ID             string          `db:"id" json:"id"`
	TenantID       string          `db:"tenant_id" json:"tenant_id"`
	Title          string          `db:"title" json:"title"`
	Slug           string          `db:"slug" json:"slug"`
	ManufacturerID *string         `db:"manufacturer_id" json:"manufacturer_id,omitempty"`
	Description    *string         `db:"description" json:"description,omitempty"`
	Tags           pq.StringArray  `db:"tags" json:"tags,omitempty"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	ReleasedAt     *time.Time      `db:"released_at" json:"released_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
}

// ProductListResponse is the paginated list payload.
type ProductListResponse struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}
