package dbpf

import "github.com/scigolib/dbpf/internal/registry"

// Resource, Factory, and Registry are re-exported from internal/registry
// so that callers can implement and register custom wrappers (spec §6's
// Registry::register(type_id, factory)) without reaching into an
// internal package. Because Go interface satisfaction is structural, any
// internal/registry.Resource implementation already satisfies this
// alias.
type (
	Resource = registry.Resource
	Factory  = registry.Factory
	Registry = registry.Registry
)

// NewRegistry returns a Registry pre-populated with every built-in
// wrapper this module ships (NameMap, Image, RLEResource, SimData,
// CASPart, SimOutfit, SkinTone, Template, UserCASPreset).
func NewRegistry() *Registry {
	return registry.NewRegistry()
}
