package filter

import (
	"testing"

	"pgregory.net/rapid"
)

func discoverShape() Shape {
	return Shape{
		Endpoint: "/discover/",
		Params: []ParamField{
			{Field: FieldSearch, Name: "name"},
			{Field: FieldArchetype, Name: "archetype_id"},
			{Field: FieldTier, Name: "tier_id"},
		},
		Local: []LocalMatch{
			{Field: FieldRegion, ItemFields: []string{"region"}, Mode: MatchEquals},
		},
		SkipEmpty: true,
	}
}

func TestCriteria_SetReturnsCopy(t *testing.T) {
	base := NewCriteria(map[string]string{FieldRegion: All})
	next := base.Set(FieldSearch, "  film ")

	if got := base.Get(FieldSearch); got != "" {
		t.Fatalf("base search = %q, want empty (criteria must be immutable)", got)
	}
	if got := next.Get(FieldSearch); got != "film" {
		t.Fatalf("next search = %q, want film", got)
	}
	if same := next.Set("   ", "x"); !same.Equal(next) {
		t.Fatalf("blank field name should leave criteria unchanged")
	}
}

func TestCriteria_AllSentinelIsUnconstrained(t *testing.T) {
	c := Criteria{}.Set(FieldRegion, "All").Set(FieldTier, "")
	if !c.Empty() {
		t.Fatalf("Empty() = false, want true for %v", c.Map())
	}
	if c.Constrained(FieldRegion) {
		t.Fatalf("region All should not constrain")
	}
	if !c.Equal(Criteria{}) {
		t.Fatalf("criteria with only All/blank fields should equal zero criteria")
	}
}

func TestShape_BuildOrdersParamsByDeclaration(t *testing.T) {
	c := Criteria{}.
		Set(FieldTier, "2").
		Set(FieldSearch, "film").
		Set(FieldArchetype, "3")

	d, ok := discoverShape().Build(c)
	if !ok {
		t.Fatalf("Build returned ok=false, want a query")
	}
	if got, want := d.Key(), "/discover/?name=film&archetype_id=3&tier_id=2"; got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}
	if d.Token != 0 {
		t.Fatalf("Token = %d, want 0 before issue", d.Token)
	}
}

func TestShape_BuildSkipsEmptyCriteria(t *testing.T) {
	c := NewCriteria(map[string]string{FieldRegion: All, FieldSearch: ""})
	if _, ok := discoverShape().Build(c); ok {
		t.Fatalf("Build returned ok=true for empty criteria with SkipEmpty")
	}

	// A local-only field still counts as a constraint.
	if _, ok := discoverShape().Build(c.Set(FieldRegion, "Accra")); !ok {
		t.Fatalf("Build returned ok=false with region set")
	}

	shape := discoverShape()
	shape.SkipEmpty = false
	d, ok := shape.Build(c)
	if !ok || d.Key() != "/discover/" {
		t.Fatalf("Build without SkipEmpty = %q ok=%v, want bare endpoint", d.Key(), ok)
	}
}

func TestDescriptor_WithTokenKeepsEquality(t *testing.T) {
	d, _ := discoverShape().Build(Criteria{}.Set(FieldSearch, "a b"))
	stamped := d.WithToken(7)
	if !stamped.Equal(d) {
		t.Fatalf("WithToken should not change equality")
	}
	if stamped.Token != 7 {
		t.Fatalf("Token = %d, want 7", stamped.Token)
	}
	stamped.Params[0].Value = "changed"
	if d.Params[0].Value != "a b" {
		t.Fatalf("WithToken must copy params")
	}
	if got := d.RawQuery(); got != "name=a+b" {
		t.Fatalf("RawQuery() = %q, want name=a+b", got)
	}
}

func TestShape_MatchesLocalFields(t *testing.T) {
	shape := Shape{
		Endpoint: "/coalitions",
		Local: []LocalMatch{
			{Field: FieldSearch, ItemFields: []string{"name", "focus"}, Mode: MatchContains},
			{Field: FieldRegion, ItemFields: []string{"location"}, Mode: MatchEquals},
		},
	}
	item := map[string]any{"name": "Film Makers", "focus": "Documentary", "location": "Lagos, Nigeria"}

	cases := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"unconstrained", Criteria{}, true},
		{"name substring", Criteria{}.Set(FieldSearch, "film"), true},
		{"focus substring", Criteria{}.Set(FieldSearch, "DOCU"), true},
		{"no match", Criteria{}.Set(FieldSearch, "music"), false},
		{"region equal", Criteria{}.Set(FieldRegion, "lagos, nigeria"), true},
		{"region partial is not equal", Criteria{}.Set(FieldRegion, "Lagos"), false},
		{"region all", Criteria{}.Set(FieldRegion, All), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shape.Matches(item, tc.c); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestShape_BuildIsDeterministic(t *testing.T) {
	fields := []string{FieldSearch, FieldRegion, FieldArchetype, FieldTier, "extra"}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "edits")
		c := Criteria{}
		for i := 0; i < n; i++ {
			field := rapid.SampledFrom(fields).Draw(t, "field")
			value := rapid.OneOf(rapid.Just(All), rapid.Just(""), rapid.String()).Draw(t, "value")
			c = c.Set(field, value)
		}
		shape := discoverShape()
		shape.SkipEmpty = rapid.Bool().Draw(t, "skipEmpty")

		a, aok := shape.Build(c)
		b, bok := shape.Build(NewCriteria(c.Map()))
		if aok != bok || !a.Equal(b) || a.Key() != b.Key() {
			t.Fatalf("Build not deterministic: %q/%v vs %q/%v", a.Key(), aok, b.Key(), bok)
		}
	})
}
