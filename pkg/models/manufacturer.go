package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/identity"
)

// Manufacturer is a maker of products and assets. Manufacturers are usually
// minted as a side effect of imports, so their IDs are deterministic: the
// same name resolves to the same ID on every node.
type Manufacturer struct {
	ID          string          `db:"id" json:"id"`
	TenantID    string          `db:"tenant_id" json:"tenant_id"`
	Name        string          `db:"name" json:"name"`
	Slug        string          `db:"slug" json:"slug"`
	Description *string         `db:"description" json:"description,omitempty"`
	Aliases     pq.StringArray  `db:"aliases" json:"aliases,omitempty"`
	Metadata    json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
}

// EnsureID assigns the deterministic ID for the manufacturer's name when no
// ID was provided by the caller.
func (m *Manufacturer) EnsureID() {
	if m.ID == "" {
		m.ID = identity.Generate(identity.NamespaceManufacturer, m.Name).String()
	}
}

// ManufacturerListResponse is the paginated list payload.
type ManufacturerListResponse struct {
	Items      []Manufacturer `json:"items"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}
