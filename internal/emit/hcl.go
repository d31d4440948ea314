package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"text/template"

	"nsx-policy-maker/internal/model"
)

var identifierUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeIdentifier makes a group name usable as an HCL object key by
// replacing every character outside [A-Za-z0-9_-] with an underscore.
func SanitizeIdentifier(name string) string {
	return identifierUnsafe.ReplaceAllString(name, "_")
}

const ipSetsTemplate = `locals {
  ip_sets = {
{{- range .}}
    {{.Key}} = {
      name = {{.Name}}
      addresses = {{.Addresses}}
    }
{{- end}}
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

var ipSetsTmpl = template.Must(template.New("ip_sets").Parse(ipSetsTemplate))

type ipSetEntry struct {
	Key       string
	Name      string
	Addresses string
}

// IPSetDocument is the HCL file declaring one nsxt_policy_group per IP set
// through a for_each over a locals map. Sets are keyed by their sanitized
// name, which is the locals map key.
type IPSetDocument struct {
	keys []string
	sets map[string]model.IPSet
}

func NewIPSetDocument(sets ...model.IPSet) *IPSetDocument {
	d := &IPSetDocument{sets: make(map[string]model.IPSet)}
	for _, s := range sets {
		d.Add(s)
	}
	return d
}

// Add appends an IP set. A set whose sanitized name is already present, such
// as "DB Servers" after "DB_Servers", replaces the earlier one in place and
// Add reports false.
func (d *IPSetDocument) Add(s model.IPSet) bool {
	key := SanitizeIdentifier(s.Name)
	prev, exists := d.sets[key]
	if !exists {
		d.keys = append(d.keys, key)
	} else if prev.Name != s.Name {
		slog.Warn("IP set names map to the same key", "key", key, "replaced", prev.Name, "group", s.Name)
	}
	d.sets[key] = s
	return !exists
}

func (d *IPSetDocument) Len() int { return len(d.keys) }

func (d *IPSetDocument) WriteTo(w io.Writer) (int64, error) {
	entries := make([]ipSetEntry, 0, len(d.keys))
	for _, key := range d.keys {
		set := d.sets[key]
		quoted, err := marshalCompact(set.Name)
		if err != nil {
			return 0, err
		}
		addresses, err := addressList(set.Addresses)
		if err != nil {
			return 0, fmt.Errorf("ip set %q: %w", set.Name, err)
		}
		entries = append(entries, ipSetEntry{
			Key:       key,
			Name:      string(quoted),
			Addresses: addresses,
		})
	}

	var buf bytes.Buffer
	if err := ipSetsTmpl.Execute(&buf, entries); err != nil {
		return 0, fmt.Errorf("failed to render ip sets: %w", err)
	}
	return buf.WriteTo(w)
}

// addressList renders a JSON array literal with ", " between elements.
func addressList(addresses []string) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, a := range addresses {
		if i > 0 {
			buf.WriteString(", ")
		}
		b, err := json.Marshal(a)
		if err != nil {
			return "", err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.String(), nil
}
