package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	first := Generate(NamespaceManufacturer, "Commodore")
	second := Generate(NamespaceManufacturer, "Commodore")

	assert.Equal(t, first, second)
	assert.NotEqual(t, uuid.Nil, first)
}

func TestGenerate_IsVersion5(t *testing.T) {
	id := Generate(NamespaceProduct, "Amiga 500")

	assert.Equal(t, uuid.Version(5), id.Version())
	assert.Equal(t, uuid.RFC4122, id.Variant())
}

func TestGenerate_NamespacesDiverge(t *testing.T) {
	seen := map[uuid.UUID]Namespace{}
	for _, ns := range Namespaces() {
		id := Generate(ns, "Commodore")
		prev, dup := seen[id]
		require.Falsef(t, dup, "namespace %s collides with %s", ns, prev)
		seen[id] = ns
	}
}

func TestGenerate_NameSensitivity(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
	}{
		{"case differs", "Commodore", "commodore"},
		{"trailing whitespace differs", "Commodore", "Commodore "},
		{"internal whitespace differs", "Amiga 500", "Amiga  500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t,
				Generate(NamespaceManufacturer, tt.left),
				Generate(NamespaceManufacturer, tt.right),
			)
		})
	}
}

func TestGenerate_UnknownNamespacePanics(t *testing.T) {
	assert.Panics(t, func() {
		Generate(Namespace("starship"), "Enterprise")
	})
}

func TestValid(t *testing.T) {
	for _, ns := range Namespaces() {
		assert.True(t, Valid(ns))
	}
	assert.False(t, Valid(Namespace("starship")))
}
