package core

import "sort"

// Inputs is the immutable mapping of run parameters (company_domain,
// project_description, path_to_cv, ...) supplied at the entry point. The zero
// value is an empty set. Every accessor returns copies, so an Inputs value can
// be shared freely across tasks.
type Inputs struct {
	values map[string]string
}

// NewInputs copies m into a new Inputs value.
func NewInputs(m map[string]string) Inputs {
	values := make(map[string]string, len(m))
	for k, v := range m {
		values[k] = v
	}
	return Inputs{values: values}
}

// Get returns the value for key or "" when absent.
func (in Inputs) Get(key string) string { return in.values[key] }

// Lookup returns the value for key and whether it was present.
func (in Inputs) Lookup(key string) (string, bool) {
	v, ok := in.values[key]
	return v, ok
}

// Len returns the number of parameters.
func (in Inputs) Len() int { return len(in.values) }

// Keys returns parameter names in sorted order.
func (in Inputs) Keys() []string {
	keys := make([]string, 0, len(in.values))
	for k := range in.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the underlying values.
func (in Inputs) Map() map[string]string {
	out := make(map[string]string, len(in.values))
	for k, v := range in.values {
		out[k] = v
	}
	return out
}

// With returns a new Inputs holding the receiver's values overlaid with overrides.
func (in Inputs) With(overrides map[string]string) Inputs {
	merged := in.Map()
	for k, v := range overrides {
		merged[k] = v
	}
	return Inputs{values: merged}
}
