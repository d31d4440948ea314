package model

import "strings"

type Category string

const (
	CategoryInfrastructure Category = "Infrastructure"
	CategoryApplication    Category = "Application"
	CategoryEnvironment    Category = "Environment"
)

// Categories lists the accepted policy categories in the order they are reported.
var Categories = []Category{CategoryApplication, CategoryInfrastructure, CategoryEnvironment}

// ParseCategory accepts a category in any letter case and returns its
// canonical spelling.
func ParseCategory(raw string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(strings.TrimSpace(raw), string(c)) {
			return c, nil
		}
	}
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return "", &ValidationError{
		Field:  "category",
		Value:  raw,
		Reason: "must be one of: " + strings.Join(names, ", "),
	}
}
