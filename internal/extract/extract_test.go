package extract

import "testing"

func TestFromText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"dollar", "Price: $29.99", "$29.99", true},
		{"euro", "Nur €1.299,00 heute", "€1.299,00", true},
		{"pound", "£15", "£15", true},
		{"yen", "¥2980", "¥2980", true},
		{"rupee", "₹499.00 only", "₹499.00", true},
		{"leftmost of first family", "Was $49.99, now $29.99", "$49.99", true},
		{"space after symbol", "$ 12.50", "$ 12.50", true},
		{"code suffix", "Total 29.99 USD at checkout", "29.99 USD", true},
		{"code suffix no space", "29.99USD", "29.99USD", true},
		{"loading placeholder", "Loading...", "", false},
		{"no price", "Out of stock", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FromText(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("FromText(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestFromTextFamilyPriority(t *testing.T) {
	// Symbol-prefixed outranks code-suffixed even when the code form comes first.
	got, ok := FromText("29.99 USD or $31.00")
	if !ok || got != "$31.00" {
		t.Fatalf("got %q, %v; want $31.00 from higher-priority family", got, ok)
	}
}

func TestFromStructured(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{
			"price at top level",
			map[string]any{"price": "19.99"},
			"19.99", true,
		},
		{
			"offers price",
			map[string]any{"offers": map[string]any{"price": "29.99"}},
			"29.99", true,
		},
		{
			"numeric price",
			map[string]any{"offers": map[string]any{"price": 29.99}},
			"29.99", true,
		},
		{
			"top level beats offers",
			map[string]any{"price": "5.00", "offers": map[string]any{"price": "9.00"}},
			"5.00", true,
		},
		{
			"offers beats sibling objects",
			map[string]any{
				"aaa":    map[string]any{"price": "1.00"},
				"offers": map[string]any{"price": "2.00"},
			},
			"2.00", true,
		},
		{
			"nested object field",
			map[string]any{"product": map[string]any{"price": "7.77"}},
			"7.77", true,
		},
		{
			"array of offers",
			map[string]any{"offers": []any{map[string]any{"price": "3.33"}}},
			"3.33", true,
		},
		{
			"absent",
			map[string]any{"name": "Widget"},
			"", false,
		},
		{
			"empty price ignored",
			map[string]any{"price": ""},
			"", false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FromStructured(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("FromStructured = %q, %v; want %q, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestFromStructuredCyclicInput(t *testing.T) {
	a := map[string]any{}
	b := map[string]any{"back": a}
	a["next"] = b

	if _, ok := FromStructured(a); ok {
		t.Fatal("cyclic graph with no price should report not found")
	}
}

func TestFromStructuredDepthBound(t *testing.T) {
	deep := map[string]any{"price": "1.00"}
	for i := 0; i < maxDepth+5; i++ {
		deep = map[string]any{"wrap": deep}
	}
	if _, ok := FromStructured(deep); ok {
		t.Fatal("price beyond depth bound should not be reachable")
	}
}
