package provider

import "maps"

// ModelMapper transforms the model name before it is sent to the vendor.
type ModelMapper func(string) string

// MapModels returns a mapper that looks names up in mapping and passes
// unknown names through unchanged. It returns nil for an empty mapping.
func MapModels(mapping map[string]string) ModelMapper {
	if len(mapping) == 0 {
		return nil
	}
	m := maps.Clone(mapping)
	return func(model string) string {
		if mapped, ok := m[model]; ok {
			return mapped
		}
		return model
	}
}

// Map applies the mapper, treating a nil mapper as the identity.
func (m ModelMapper) Map(model string) string {
	if m == nil {
		return model
	}
	return m(model)
}
