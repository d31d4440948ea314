package emit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsx-policy-maker/internal/model"
)

func TestSanitizeIdentifier(t *testing.T) {
	assert.Equal(t, "DB_Servers", SanitizeIdentifier("DB Servers"))
	assert.Equal(t, "web-tier_01", SanitizeIdentifier("web-tier_01"))
	assert.Equal(t, "a_b_c_", SanitizeIdentifier("a.b/c!"))
}

func TestIPSetDocumentLayout(t *testing.T) {
	d := NewIPSetDocument(
		model.IPSet{Name: "DB Servers", Addresses: []string{"10.0.0.1", "10.0.0.2"}},
		model.IPSet{Name: "web", Addresses: []string{"192.168.0.0/24"}},
	)

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)

	want := `locals {
  ip_sets = {
    DB_Servers = {
      name = "DB Servers"
      addresses = ["10.0.0.1", "10.0.0.2"]
    }
    web = {
      name = "web"
      addresses = ["192.168.0.0/24"]
    }
  }
}
resource "nsxt_policy_group" "ip_sets" {
  for_each = local.ip_sets

  display_name = each.value.name
  description  = "IP Set for ${each.value.name}"
  nsx_id       = each.value.name

  criteria {
    ipaddress_expression {
      ip_addresses = each.value.addresses
    }
  }
}
`
	assert.Equal(t, want, buf.String())
}

func TestIPSetDocumentEmpty(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewIPSetDocument().WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "locals {\n  ip_sets = {\n  }\n}\nresource")
}

func TestIPSetDocumentReplacesDuplicateInPlace(t *testing.T) {
	d := NewIPSetDocument(
		model.IPSet{Name: "a", Addresses: []string{"10.0.0.1"}},
		model.IPSet{Name: "b", Addresses: []string{"10.0.0.2"}},
	)
	assert.False(t, d.Add(model.IPSet{Name: "a", Addresses: []string{"10.0.0.3"}}))
	assert.Equal(t, 2, d.Len())

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.NotContains(t, out, "10.0.0.1")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(`"10.0.0.3"`)), bytes.Index(buf.Bytes(), []byte(`"10.0.0.2"`)))
}

func TestIPSetDocumentDeduplicatesSanitizedKeys(t *testing.T) {
	d := NewIPSetDocument(model.IPSet{Name: "DB_Servers", Addresses: []string{"10.0.0.1"}})
	assert.False(t, d.Add(model.IPSet{Name: "DB Servers", Addresses: []string{"10.0.0.9"}}))
	assert.True(t, d.Add(model.IPSet{Name: "Web", Addresses: []string{"10.0.0.2"}}))
	assert.Equal(t, 2, d.Len())

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "DB_Servers = {"))
	assert.Contains(t, out, `name = "DB Servers"`)
	assert.NotContains(t, out, "10.0.0.1")
	assert.Contains(t, out, `"10.0.0.9"`)
}
