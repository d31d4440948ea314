package engine

import (
	"errors"
	"log/slog"

	"nsx-policy-maker/internal/model"
	"nsx-policy-maker/internal/tabular"
)

// Policy header columns.
const (
	ColPolicyDisplayName = "policy_display_name"
	ColPolicyFile        = "Terraform Policy File"
	ColApplication       = "Application"
	ColCategory          = "category"
	ColComments          = "comments"
	ColPolicyDescription = "description"
	ColDomain            = "domain"
	ColLocked            = "locked"
	ColPolicySequence    = "sequence_number"

	DefaultPolicyName = "default-policy"
)

var PolicySchema = tabular.NewSchema(
	tabular.Field{
		Name:    ColPolicyDisplayName,
		Aliases: []string{ColPolicyFile, ColApplication},
		Kind:    tabular.TextField,
		Default: tabular.StringValue(DefaultPolicyName),
	},
	tabular.Field{Name: ColCategory, Kind: tabular.TextField, Default: tabular.StringValue(string(model.CategoryInfrastructure))},
	tabular.Field{Name: ColComments, Kind: tabular.TextField},
	tabular.Field{Name: ColPolicyDescription, Kind: tabular.TextField},
	tabular.Field{Name: ColDomain, Kind: tabular.TextField, Default: tabular.StringValue("default")},
	tabular.Field{Name: ColLocked, Kind: tabular.BoolField, Default: tabular.BoolValue(false)},
	tabular.Field{Name: ColPolicySequence, Kind: tabular.IntField, Default: tabular.NumberValue(0)},
)

type Mode int

const (
	// ModeSingle writes one policy per run; a zero sequence number is left unset
	// and any other is written as a number.
	ModeSingle Mode = iota
	// ModeBatch writes every sheet of a workbook; sequence numbers are written
	// as strings and made unique across the run by bumping collisions upward.
	ModeBatch
)

// Assembler builds policies for one run.
type Assembler struct {
	Mode Mode
	// Sequences is shared by every policy of a batch run. Assemble creates it
	// on first use when nil.
	Sequences *SequenceSet
}

// PolicyName resolves the display name of a policy header row.
func PolicyName(header tabular.Row) string {
	return PolicySchema.Bind(header).Text(ColPolicyDisplayName)
}

// Assemble validates the header category and builds the policy with its
// rules in source order. The category is validated before any rule is read.
func (a *Assembler) Assemble(header tabular.Row, rules []tabular.Row) (model.Policy, error) {
	rec := PolicySchema.Bind(header)

	category, err := model.ParseCategory(categoryText(header, rec))
	if err != nil {
		return model.Policy{}, err
	}

	name := rec.Text(ColPolicyDisplayName)
	warnIssues(name, "", PolicySchema.Check(header))
	policy := model.Policy{
		NSXID:          "",
		DisplayName:    name,
		Category:       category,
		Comments:       rec.Text(ColComments),
		Description:    rec.Text(ColPolicyDescription),
		Domain:         rec.Text(ColDomain),
		Locked:         rec.Bool(ColLocked),
		SequenceNumber: a.sequenceNumber(name, rec.Int(ColPolicySequence)),
		Rules:          make([]model.Rule, 0, len(rules)),
	}

	for _, row := range rules {
		warnIssues(name, RuleName(row), RuleSchema.Check(row))
		policy.Rules = append(policy.Rules, NormalizeRule(row, category))
	}
	return policy, nil
}

// categoryText falls back to the default category only when the sheet has no
// category column. A blank cell in an existing column is read as empty text
// and rejected.
func categoryText(header tabular.Row, rec tabular.Record) string {
	if v, ok := header.Lookup(ColCategory); ok {
		return v.Text()
	}
	return rec.Text(ColCategory)
}

func warnIssues(policy, rule string, issues []tabular.Issue) {
	for _, issue := range issues {
		if rule == "" {
			slog.Warn("Ignoring malformed policy cell", "policy", policy, "problem", issue.Error())
			continue
		}
		slog.Warn("Ignoring malformed rule cell", "policy", policy, "rule", rule, "problem", issue.Error())
	}
}

func (a *Assembler) sequenceNumber(policy string, want int) model.Sequence {
	if a.Mode == ModeSingle {
		if want == 0 {
			return model.Sequence{}
		}
		return model.SequenceOf(want)
	}

	if a.Sequences == nil {
		a.Sequences = NewSequenceSet()
	}
	got := a.Sequences.Claim(want)
	if got != want {
		slog.Info("Policy sequence number already used in this run, shifted",
			"policy", policy, "requested", want, "assigned", got)
	}
	return model.QuotedSequence(got)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var verr *model.ValidationError
	return errors.As(err, &verr)
}
