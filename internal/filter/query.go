package filter

import (
	"fmt"
	"net/url"
	"strings"
)

// Token identifies the settle event that issued a request. Zero means the
// descriptor has not been issued yet.
type Token uint64

// Param is a single query parameter. Descriptors keep params ordered so that
// equal criteria always encode to the same query string.
type Param struct {
	Name  string
	Value string
}

// Descriptor is a normalized request built from criteria.
type Descriptor struct {
	Endpoint string
	Params   []Param
	Token    Token
}

// WithToken returns a copy of d stamped with t.
func (d Descriptor) WithToken(t Token) Descriptor {
	dup := d
	dup.Params = append([]Param(nil), d.Params...)
	dup.Token = t
	return dup
}

// RawQuery encodes params in declaration order.
func (d Descriptor) RawQuery() string {
	if len(d.Params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		parts = append(parts, url.QueryEscape(p.Name)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

// Key is the canonical endpoint+query form of d, ignoring the token.
func (d Descriptor) Key() string {
	if q := d.RawQuery(); q != "" {
		return d.Endpoint + "?" + q
	}
	return d.Endpoint
}

// Equal compares endpoint and params. Tokens are ignored.
func (d Descriptor) Equal(other Descriptor) bool {
	if d.Endpoint != other.Endpoint || len(d.Params) != len(other.Params) {
		return false
	}
	for i := range d.Params {
		if d.Params[i] != other.Params[i] {
			return false
		}
	}
	return true
}

func (d Descriptor) String() string {
	if d.Token == 0 {
		return d.Key()
	}
	return fmt.Sprintf("%s (token %d)", d.Key(), d.Token)
}

// ParamField maps a criteria field onto a query parameter name.
type ParamField struct {
	Field string
	Name  string
}

// MatchMode selects how a local matcher compares values.
type MatchMode int

const (
	// MatchContains is a case-insensitive substring match against any of the
	// item fields.
	MatchContains MatchMode = iota
	// MatchEquals is a case-insensitive equality match against any of the
	// item fields.
	MatchEquals
)

// LocalMatch applies a criteria field on the client for endpoints that do not
// filter server-side.
type LocalMatch struct {
	Field      string
	ItemFields []string
	Mode       MatchMode
}

// Shape describes how one screen turns criteria into requests and how its
// response payload is laid out.
type Shape struct {
	Endpoint string
	Params   []ParamField
	Local    []LocalMatch

	// SkipEmpty short-circuits Build when no field constrains results.
	SkipEmpty bool

	// ResultKey names the envelope field holding the item array. Empty means
	// the payload is the array itself.
	ResultKey string

	// IDField names the item field holding its stable id. Defaults to "id".
	IDField string
}

// Fields lists every criteria field the shape reads, in declaration order.
func (s Shape) Fields() []string {
	seen := make(map[string]bool)
	var fields []string
	add := func(f string) {
		if f == "" || seen[f] {
			return
		}
		seen[f] = true
		fields = append(fields, f)
	}
	for _, p := range s.Params {
		add(p.Field)
	}
	for _, m := range s.Local {
		add(m.Field)
	}
	return fields
}

// Build maps criteria to a descriptor. ok is false when SkipEmpty is set and
// nothing constrains the query, in which case no request should be issued.
func (s Shape) Build(c Criteria) (Descriptor, bool) {
	if s.SkipEmpty && s.unconstrained(c) {
		return Descriptor{}, false
	}
	d := Descriptor{Endpoint: s.Endpoint}
	for _, p := range s.Params {
		v, ok := c.Value(p.Field)
		if !ok {
			continue
		}
		name := p.Name
		if name == "" {
			name = p.Field
		}
		d.Params = append(d.Params, Param{Name: name, Value: v})
	}
	return d, true
}

// ItemID returns the field name holding item ids.
func (s Shape) ItemID() string {
	if s.IDField == "" {
		return "id"
	}
	return s.IDField
}

// Matches applies the local matchers to an item's fields.
func (s Shape) Matches(fields map[string]any, c Criteria) bool {
	for _, m := range s.Local {
		want, ok := c.Value(m.Field)
		if !ok {
			continue
		}
		if !matchAny(fields, m, want) {
			return false
		}
	}
	return true
}

func (s Shape) unconstrained(c Criteria) bool {
	for _, f := range s.Fields() {
		if c.Constrained(f) {
			return false
		}
	}
	return true
}

func matchAny(fields map[string]any, m LocalMatch, want string) bool {
	want = strings.ToLower(want)
	for _, name := range m.ItemFields {
		raw, ok := fields[name]
		if !ok || raw == nil {
			continue
		}
		got := strings.ToLower(fmt.Sprint(raw))
		switch m.Mode {
		case MatchEquals:
			if got == want {
				return true
			}
		default:
			if strings.Contains(got, want) {
				return true
			}
		}
	}
	return false
}
