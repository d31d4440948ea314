package engine

import (
	"log/slog"
	"strings"

	"nsx-policy-maker/internal/model"
	"nsx-policy-maker/internal/tabular"
	"nsx-policy-maker/internal/utils"
)

// IP set sheet columns.
const (
	ColGroupName = "group_name"
	ColAddresses = "csv"
)

var IPSetSchema = tabular.NewSchema(
	tabular.Field{Name: ColGroupName, Kind: tabular.TextField},
	tabular.Field{Name: ColAddresses, Kind: tabular.TextField},
)

// BuildIPSets turns IP set rows into named address lists in source order.
// Rows without a group name or without any address are skipped. Every
// address must be an IP, a CIDR block or a start-end range.
func BuildIPSets(rows []tabular.Row) ([]model.IPSet, error) {
	var sets []model.IPSet
	for _, row := range rows {
		rec := IPSetSchema.Bind(row)
		name := rec.Text(ColGroupName)
		if strings.TrimSpace(name) == "" {
			continue
		}

		addresses := splitAddresses(rec.Text(ColAddresses))
		if len(addresses) == 0 {
			slog.Debug("Skipping IP set without addresses", "group", name)
			continue
		}

		var covered uint64
		for _, addr := range addresses {
			n, err := utils.ParseAddress(addr)
			if err != nil {
				return nil, &model.ValidationError{
					Sheet:  name,
					Field:  "address",
					Value:  addr,
					Reason: err.Error(),
				}
			}
			covered = saturatingAdd(covered, n)
		}
		slog.Debug("Built IP set", "group", name, "members", len(addresses), "addresses", covered)
		sets = append(sets, model.IPSet{Name: name, Addresses: addresses})
	}
	return sets, nil
}

func splitAddresses(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func saturatingAdd(a, b uint64) uint64 {
	if a+b < a {
		return ^uint64(0)
	}
	return a + b
}
