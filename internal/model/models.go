package model

import "strconv"

// Rule is one firewall entry of a security policy. Field order is the order
// the provider document is written in.
type Rule struct {
	DisplayName          string   `json:"display_name"`
	Action               string   `json:"action"`
	SequenceNumber       int      `json:"sequence_number"`
	Description          string   `json:"description"`
	SourceGroups         []string `json:"source_groups"`
	SourcesExcluded      bool     `json:"sources_excluded"`
	DestinationGroups    []string `json:"destination_groups"`
	DestinationsExcluded bool     `json:"destinations_excluded"`
	Services             []string `json:"services"`
	Scope                []string `json:"scope"`
	Disabled             bool     `json:"disabled"`
	Logged               bool     `json:"logged"`
	Direction            string   `json:"direction"`
	IPVersion            string   `json:"ip_version"`
	LogLabel             string   `json:"log_label"`
	Notes                string   `json:"notes"`
}

// Policy is an nsxt_policy_security_policy resource body.
type Policy struct {
	NSXID       string   `json:"nsx_id"`
	DisplayName string   `json:"display_name"`
	Category    Category `json:"category"`
	Comments    string   `json:"comments"`
	Description string   `json:"description"`
	Domain      string   `json:"domain"`
	Locked      bool     `json:"locked"`
	// SequenceNumber is unset when a single policy leaves it at zero.
	SequenceNumber Sequence `json:"sequence_number"`
	Rules          []Rule   `json:"rule"`
}

// Sequence is a policy sequence number as the provider document carries it.
// The zero value is unset and written as "". A single policy writes its number
// as a JSON number; a batch writes it as a string.
type Sequence struct {
	n      int
	set    bool
	quoted bool
}

func SequenceOf(n int) Sequence { return Sequence{n: n, set: true} }

func QuotedSequence(n int) Sequence { return Sequence{n: n, set: true, quoted: true} }

func (s Sequence) IsSet() bool { return s.set }

func (s Sequence) String() string {
	if !s.set {
		return ""
	}
	return strconv.Itoa(s.n)
}

func (s Sequence) MarshalJSON() ([]byte, error) {
	switch {
	case !s.set:
		return []byte(`""`), nil
	case s.quoted:
		return []byte(strconv.Quote(strconv.Itoa(s.n))), nil
	default:
		return []byte(strconv.Itoa(s.n)), nil
	}
}

// IPSet is a named group of IP addresses, CIDRs or ranges.
type IPSet struct {
	Name      string
	Addresses []string
}
