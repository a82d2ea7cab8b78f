package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Import kinds accepted on the import topic.
const (
	ImportKindAsset   = "asset"
	ImportKindProduct = "product"
)

// ImportMessage is the envelope published to the import topic. Exactly one
// of Asset or Product must be set, matching Kind.
type ImportMessage struct {
	TenantID string                      `json:"tenant_id"`
	Kind     string                      `json:"kind"`
	Source   string                      `json:"source,omitempty"`
	Asset    *models.AssetImportRecord   `json:"asset,omitempty"`
	Product  *models.ProductImportRecord `json:"product,omitempty"`
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	Import *ImportMessage
}

// ParseImportMessage parses the message value as an import envelope
func (m *IncomingMessage) ParseImportMessage() error {
	var msg ImportMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return err
	}
	if msg.TenantID == "" {
		msg.TenantID = m.Headers["tenant_id"]
	}
	if err := validateImport(&msg); err != nil {
		return err
	}
	m.Import = &msg
	return nil
}

func validateImport(msg *ImportMessage) error {
	if msg.TenantID == "" {
		return fmt.Errorf("import message is missing tenant_id")
	}
	switch msg.Kind {
	case ImportKindAsset:
		if msg.Asset == nil {
			return fmt.Errorf("import message of kind %q has no asset payload", msg.Kind)
		}
	case ImportKindProduct:
		if msg.Product == nil {
			return fmt.Errorf("import message of kind %q has no product payload", msg.Kind)
		}
	default:
		return fmt.Errorf("unknown import kind %q", msg.Kind)
	}
	return nil
}

// GetTenantID returns the tenant ID from the envelope or headers
func (m *IncomingMessage) GetTenantID() string {
	if m.Import != nil && m.Import.TenantID != "" {
		return m.Import.TenantID
	}
	return m.Headers["tenant_id"]
}

// GetSource returns the originating source, if the producer set one
func (m *IncomingMessage) GetSource() string {
	if m.Import != nil && m.Import.Source != "" {
		return m.Import.Source
	}
	return m.Headers["source"]
}
