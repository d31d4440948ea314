package engine

import (
	"fmt"
	"strings"

	"nsx-policy-maker/internal/model"
)

type Kind int

const (
	KindGroup Kind = iota
	KindService
)

const (
	customServicePrefix = "SVCG_"
	pathSuffix          = "_path"
)

// Resolve maps a group or service name to the Terraform variable reference
// that holds its NSX path. category is ignored for services; an empty or
// unknown category resolves groups under the base path.
func Resolve(kind Kind, name string, category model.Category) string {
	if kind == KindService {
		return ServiceReference(name)
	}
	return GroupReference(name, category)
}

func ServiceReference(name string) string {
	switch {
	case strings.HasPrefix(name, customServicePrefix):
		return fmt.Sprintf("${var.services_path.%s}", name)
	case strings.HasSuffix(name, pathSuffix):
		return fmt.Sprintf("${var.default_services_path.%s}", name)
	default:
		return fmt.Sprintf("${var.services_base_path}/%s", name)
	}
}

func GroupReference(name string, category model.Category) string {
	switch category {
	case model.CategoryInfrastructure:
		return fmt.Sprintf("${var.infra_groups_path.%s%s}", name, pathSuffix)
	case model.CategoryEnvironment:
		return fmt.Sprintf("${var.env_groups_path.%s%s}", name, pathSuffix)
	default:
		return fmt.Sprintf("${var.groups_base_path}/%s", name)
	}
}

// isPlainService reports whether a service name resolves under the base path.
func isPlainService(name string) bool {
	return !strings.HasPrefix(name, customServicePrefix) && !strings.HasSuffix(name, pathSuffix)
}
