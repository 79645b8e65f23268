// Package stats gathers per-category instance counts over a dataset and
// renders them as a console summary and a bar chart.
package stats

import "encoding/json"

// Frequencies counts category occurrences while remembering the order in
// which each category was first seen. The order drives category id
// assignment, so it must be reproducible for a given scan order.
//
// The zero value is ready to use.
type Frequencies struct {
	order  []string
	counts map[string]int
}

// NewFrequencies returns a counter pre-seeded with names, in order.
func NewFrequencies(names ...string) *Frequencies {
	f := &Frequencies{}
	for _, n := range names {
		f.Add(n)
	}
	return f
}

// Add counts one occurrence of name.
func (f *Frequencies) Add(name string) {
	f.AddN(name, 1)
}

// AddN counts n occurrences of name. A name is registered on first sight
// even when n is zero.
func (f *Frequencies) AddN(name string, n int) {
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	if _, ok := f.counts[name]; !ok {
		f.order = append(f.order, name)
	}
	f.counts[name] += n
}

// Keys returns category names in first-seen order. Like every read method,
// it treats a nil counter as empty.
func (f *Frequencies) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Count returns the occurrences of name.
func (f *Frequencies) Count(name string) int {
	if f == nil {
		return 0
	}
	return f.counts[name]
}

// Len returns the number of distinct categories.
func (f *Frequencies) Len() int {
	if f == nil {
		return 0
	}
	return len(f.order)
}

// Total returns the sum of all counts.
func (f *Frequencies) Total() int {
	if f == nil {
		return 0
	}
	total := 0
	for _, n := range f.counts {
		total += n
	}
	return total
}

// CategoryCount pairs a category with its count.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Entries returns the counts in first-seen order.
func (f *Frequencies) Entries() []CategoryCount {
	if f == nil {
		return []CategoryCount{}
	}
	out := make([]CategoryCount, len(f.order))
	for i, name := range f.order {
		out[i] = CategoryCount{Name: name, Count: f.counts[name]}
	}
	return out
}

// MarshalJSON encodes the counter as an ordered list of entries; a JSON
// object would lose the first-seen order.
func (f *Frequencies) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Entries())
}
