package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportMessageAsset(t *testing.T) {
	m := &IncomingMessage{
		Value:   []byte(`{"tenant_id":"tenant-1","kind":"asset","source":"legacy-export","asset":{"name":"Amiga 500","manufacturer_name":"Commodore"}}`),
		Headers: map[string]string{},
	}

	require.NoError(t, m.ParseImportMessage())
	require.NotNil(t, m.Import)
	assert.Equal(t, "tenant-1", m.GetTenantID())
	assert.Equal(t, "legacy-export", m.GetSource())
	assert.Equal(t, "Amiga 500", m.Import.Asset.Name)
}

func TestParseImportMessageTenantFromHeader(t *testing.T) {
	m := &IncomingMessage{
		Value:   []byte(`{"kind":"product","product":{"title":"Amiga 500","manufacturer_name":"Commodore"}}`),
		Headers: map[string]string{"tenant_id": "tenant-2"},
	}

	require.NoError(t, m.ParseImportMessage())
	assert.Equal(t, "tenant-2", m.GetTenantID())
}

func TestParseImportMessageRejectsBadEnvelopes(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"not json", `{{{`},
		{"missing tenant", `{"kind":"asset","asset":{"name":"x","manufacturer_name":"y"}}`},
		{"unknown kind", `{"tenant_id":"t","kind":"widget"}`},
		{"kind payload mismatch", `{"tenant_id":"t","kind":"asset","product":{"title":"x","manufacturer_name":"y"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &IncomingMessage{Value: []byte(tc.value), Headers: map[string]string{}}
			assert.Error(t, m.ParseImportMessage())
			assert.Nil(t, m.Import)
		})
	}
}
