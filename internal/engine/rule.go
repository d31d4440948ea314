package engine

import (
	"log/slog"
	"strings"

	"nsx-policy-maker/internal/model"
	"nsx-policy-maker/internal/tabular"
	"nsx-policy-maker/pkg/wellknown"
)

// Rule sheet columns.
const (
	ColRuleName             = "rule_display_name"
	ColDisplayName          = "display_name"
	ColAction               = "action"
	ColDirection            = "direction"
	ColIPVersion            = "ip_version"
	ColSequenceNumber       = "sequence_number"
	ColSourceGroups         = "source_groups"
	ColDestinationGroups    = "destination_groups"
	ColServices             = "services"
	ColScope                = "scope (Applied To)"
	ColSourcesExcluded      = "sources_excluded (Negate)"
	ColDestinationsExcluded = "destinations_excluded (Negate)"
	ColDisabled             = "Rule Disabled"
	ColLogged               = "logged"
	ColDescription          = "description"
	ColNotes                = "notes"
	ColLogLabel             = "log_label"
)

var RuleSchema = tabular.NewSchema(
	tabular.Field{Name: ColRuleName, Aliases: []string{ColDisplayName}, Kind: tabular.TextField},
	tabular.Field{Name: ColAction, Kind: tabular.TextField, Default: tabular.StringValue("ALLOW")},
	tabular.Field{Name: ColDirection, Kind: tabular.TextField, Default: tabular.StringValue("IN_OUT")},
	tabular.Field{Name: ColIPVersion, Kind: tabular.TextField, Default: tabular.StringValue("IPV4_IPV6")},
	tabular.Field{Name: ColSequenceNumber, Kind: tabular.IntField, Default: tabular.NumberValue(0)},
	tabular.Field{Name: ColSourceGroups, Kind: tabular.ListField},
	tabular.Field{Name: ColDestinationGroups, Kind: tabular.ListField},
	tabular.Field{Name: ColServices, Kind: tabular.ListField},
	tabular.Field{Name: ColScope, Kind: tabular.ListField},
	tabular.Field{Name: ColSourcesExcluded, Kind: tabular.BoolField, Default: tabular.BoolValue(false)},
	tabular.Field{Name: ColDestinationsExcluded, Kind: tabular.BoolField, Default: tabular.BoolValue(false)},
	tabular.Field{Name: ColDisabled, Kind: tabular.BoolField, Default: tabular.BoolValue(false)},
	tabular.Field{Name: ColLogged, Kind: tabular.BoolField, Default: tabular.BoolValue(false)},
	tabular.Field{Name: ColDescription, Kind: tabular.TextField},
	tabular.Field{Name: ColNotes, Kind: tabular.TextField},
	tabular.Field{Name: ColLogLabel, Kind: tabular.TextField},
)

// RuleName returns the rule display name of a row, empty when the row has none.
func RuleName(row tabular.Row) string {
	return RuleSchema.Bind(row).Text(ColRuleName)
}

// NamedRules drops rows without a rule name, such as trailing blank lines or
// notes below the rule table.
func NamedRules(rows []tabular.Row) []tabular.Row {
	var out []tabular.Row
	for _, r := range rows {
		if strings.TrimSpace(RuleName(r)) != "" {
			out = append(out, r)
		}
	}
	return out
}

// NormalizeRule turns one rule row into a Rule, resolving group names under
// category. Missing or malformed optional cells fall back to their defaults.
func NormalizeRule(row tabular.Row, category model.Category) model.Rule {
	rec := RuleSchema.Bind(row)
	slog.Debug("Processing rule", "rule", rec.Text(ColRuleName), "category", category)

	return model.Rule{
		DisplayName:          rec.Text(ColRuleName),
		Action:               rec.Text(ColAction),
		SequenceNumber:       rec.Int(ColSequenceNumber),
		Description:          rec.Text(ColDescription),
		SourceGroups:         resolveAll(KindGroup, rec.List(ColSourceGroups), category),
		SourcesExcluded:      rec.Bool(ColSourcesExcluded),
		DestinationGroups:    resolveAll(KindGroup, rec.List(ColDestinationGroups), category),
		DestinationsExcluded: rec.Bool(ColDestinationsExcluded),
		Services:             resolveAll(KindService, rec.List(ColServices), ""),
		Scope:                resolveAll(KindGroup, rec.List(ColScope), category),
		Disabled:             rec.Bool(ColDisabled),
		Logged:               rec.Bool(ColLogged),
		Direction:            rec.Text(ColDirection),
		IPVersion:            rec.Text(ColIPVersion),
		LogLabel:             rec.Text(ColLogLabel),
		Notes:                rec.Text(ColNotes),
	}
}

// resolveAll never returns nil so empty lists are written as [].
func resolveAll(kind Kind, names []string, category model.Category) []string {
	refs := make([]string, 0, len(names))
	for _, name := range names {
		if kind == KindService && isPlainService(name) {
			if _, ok := wellknown.GetService(name); ok {
				slog.Warn("Service name matches an NSX built-in service; the default services map expects the _path form",
					"service", name, "suggestion", name+pathSuffix)
			}
		}
		refs = append(refs, Resolve(kind, name, category))
	}
	return refs
}
