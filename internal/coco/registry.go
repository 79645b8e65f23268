package coco

// KeySource yields category names in a stable order, typically first-seen
// order from a full dataset scan (see stats.Frequencies).
type KeySource interface {
	Keys() []string
}

// Registry maps category names to 1-based ids. It is immutable once built.
type Registry struct {
	categories []CategoryRecord
}

// BuildRegistry assigns id i+1 to the i-th key of freq.
//
// It must be built once from the frequencies of the whole dataset, never from
// one split, so that ids cover the complete label set and agree between the
// train and test documents. A nil or empty source yields an empty registry.
func BuildRegistry(freq KeySource) *Registry {
	if freq == nil {
		return NewRegistry(nil)
	}
	return NewRegistry(freq.Keys())
}

// NewRegistry builds a registry from names in order. Duplicate names are
// kept as separate categories; Lookup resolves them to the first one.
func NewRegistry(names []string) *Registry {
	r := &Registry{categories: make([]CategoryRecord, len(names))}
	for i, name := range names {
		r.categories[i] = CategoryRecord{
			Supercategory: Supercategory,
			ID:            i + 1,
			Name:          name,
		}
	}
	return r
}

// Lookup returns the first category whose name equals name exactly.
// The search is linear in registry order on purpose: with duplicate names
// the earliest registration wins.
func (r *Registry) Lookup(name string) (CategoryRecord, bool) {
	for _, c := range r.categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryRecord{}, false
}

// Categories returns a copy of the records in id order.
func (r *Registry) Categories() []CategoryRecord {
	out := make([]CategoryRecord, len(r.categories))
	copy(out, r.categories)
	return out
}

// Len returns the number of categories.
func (r *Registry) Len() int {
	return len(r.categories)
}
