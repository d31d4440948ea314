// Package emit renders assembled policies and IP sets into the documents the
// NSX-T Terraform provider consumes.
package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"nsx-policy-maker/internal/model"
)

const policyResourceType = "nsxt_policy_security_policy"

// PolicyDocument is a Terraform JSON document holding security policies keyed
// by display name, in insertion order.
type PolicyDocument struct {
	names    []string
	policies map[string]model.Policy
}

func NewPolicyDocument(policies ...model.Policy) *PolicyDocument {
	d := &PolicyDocument{policies: make(map[string]model.Policy)}
	for _, p := range policies {
		d.Add(p)
	}
	return d
}

// Add appends a policy. A policy whose display name is already present
// replaces the earlier one in place and Add reports false.
func (d *PolicyDocument) Add(p model.Policy) bool {
	_, exists := d.policies[p.DisplayName]
	if !exists {
		d.names = append(d.names, p.DisplayName)
	}
	d.policies[p.DisplayName] = p
	return !exists
}

func (d *PolicyDocument) Len() int { return len(d.names) }

// Policies returns the policies in document order.
func (d *PolicyDocument) Policies() []model.Policy {
	out := make([]model.Policy, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.policies[name])
	}
	return out
}

// MarshalJSON writes {"resource":[{"nsxt_policy_security_policy":{...}}]}
// keeping policy order.
func (d *PolicyDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"resource":[{"` + policyResourceType + `":{`)
	for i, name := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalCompact(name)
		if err != nil {
			return nil, err
		}
		body, err := marshalCompact(d.policies[name])
		if err != nil {
			return nil, fmt.Errorf("policy %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteString(`}}]}`)
	return buf.Bytes(), nil
}

// WriteTo writes the document indented by two spaces.
func (d *PolicyDocument) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return 0, fmt.Errorf("failed to encode policy document: %w", err)
	}
	return buf.WriteTo(w)
}

func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
