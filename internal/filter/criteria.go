package filter

import (
	"sort"
	"strings"
)

// All is the sentinel option value meaning "no constraint" for a field.
const All = "All"

// Well-known criteria fields shared by the directory screens.
const (
	FieldSearch    = "search"
	FieldRegion    = "region"
	FieldArchetype = "archetype_id"
	FieldTier      = "tier_id"
)

// Criteria is an immutable set of named search constraints. The zero value is
// an empty, fully unconstrained criteria set.
type Criteria struct {
	values map[string]string
}

// NewCriteria builds criteria from the given field values.
func NewCriteria(values map[string]string) Criteria {
	c := Criteria{}
	for field, value := range values {
		c = c.Set(field, value)
	}
	return c
}

// Set returns a copy of c with field replaced by value. Values are trimmed; a
// blank field name leaves the criteria unchanged.
func (c Criteria) Set(field, value string) Criteria {
	field = strings.TrimSpace(field)
	if field == "" {
		return c
	}
	next := make(map[string]string, len(c.values)+1)
	for k, v := range c.values {
		next[k] = v
	}
	next[field] = strings.TrimSpace(value)
	return Criteria{values: next}
}

// Get returns the raw value for field, or "" when the field was never set.
func (c Criteria) Get(field string) string {
	return c.values[field]
}

// Value returns the value for field when it constrains results.
func (c Criteria) Value(field string) (string, bool) {
	v := c.values[field]
	if unconstrained(v) {
		return "", false
	}
	return v, true
}

// Constrained reports whether field narrows the result set.
func (c Criteria) Constrained(field string) bool {
	_, ok := c.Value(field)
	return ok
}

// Fields returns the names of every field that has been set, sorted.
func (c Criteria) Fields() []string {
	fields := make([]string, 0, len(c.values))
	for k := range c.values {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// Empty reports whether no field constrains results.
func (c Criteria) Empty() bool {
	for _, v := range c.values {
		if !unconstrained(v) {
			return false
		}
	}
	return true
}

// Equal compares the constraining values of both criteria. Fields that are
// blank or set to All are treated as absent.
func (c Criteria) Equal(other Criteria) bool {
	for _, f := range c.Fields() {
		a, aok := c.Value(f)
		b, bok := other.Value(f)
		if aok != bok || a != b {
			return false
		}
	}
	for _, f := range other.Fields() {
		if other.Constrained(f) && !c.Constrained(f) {
			return false
		}
	}
	return true
}

// Map returns a copy of the underlying values.
func (c Criteria) Map() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

func unconstrained(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}
