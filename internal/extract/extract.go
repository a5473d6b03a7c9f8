// Package extract pulls price strings out of free text and structured-data
// nodes (JSON-LD style key/value graphs).
package extract

import (
	"reflect"
	"regexp"
	"sort"
	"strconv"
)

// maxDepth bounds the structured-data traversal. Real product markup nests a
// handful of levels; anything deeper is adversarial or cyclic.
const maxDepth = 16

// Rule is one matcher in the fixed-priority pattern list.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Rules is evaluated in declared order; the first family that matches
// anything in the text wins, and its leftmost match is returned. The order
// is deliberate data, not an implementation accident.
var Rules = []Rule{
	{Name: "symbol-prefixed", Pattern: regexp.MustCompile(`[$€£¥₹₽]\s?\d+(?:[.,]\d+)*`)},
	{Name: "region-symbol", Pattern: regexp.MustCompile(`\b(?:CA|US|AU|NZ|HK|SG|MX)\$\s?\d+(?:[.,]\d+)*`)},
	{Name: "code-suffixed", Pattern: regexp.MustCompile(`\d+(?:[.,]\d+)*\s?(?:USD|EUR|GBP|JPY|INR|RUB|CAD|AUD)\b`)},
}

// FromText returns the leftmost match of the highest-priority rule that
// matches anywhere in text. Not the "best" price: a strikethrough original
// price earlier in the text beats a sale price later in it.
func FromText(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, r := range Rules {
		if m := r.Pattern.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

// FromStructured searches a nested key/value graph depth-first: a scalar
// "price" key at the current level wins, then a nested "offers" subtree,
// then every other object-valued field in stable key order. First value
// found along the traversal is returned.
func FromStructured(node any) (string, bool) {
	return dfs(node, 0, map[uintptr]bool{})
}

func dfs(node any, depth int, visited map[uintptr]bool) (string, bool) {
	if depth > maxDepth {
		return "", false
	}

	switch n := node.(type) {
	case map[string]any:
		ptr := reflect.ValueOf(n).Pointer()
		if visited[ptr] {
			return "", false
		}
		visited[ptr] = true

		if v, ok := n["price"]; ok {
			if s, ok := scalar(v); ok {
				return s, true
			}
		}
		if offers, ok := n["offers"]; ok {
			if s, ok := dfs(offers, depth+1, visited); ok {
				return s, true
			}
		}

		keys := make([]string, 0, len(n))
		for k := range n {
			if k == "offers" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !container(n[k]) {
				continue
			}
			if s, ok := dfs(n[k], depth+1, visited); ok {
				return s, true
			}
		}

	case []any:
		ptr := reflect.ValueOf(n).Pointer()
		if visited[ptr] {
			return "", false
		}
		visited[ptr] = true

		for _, v := range n {
			if !container(v) {
				continue
			}
			if s, ok := dfs(v, depth+1, visited); ok {
				return s, true
			}
		}
	}

	return "", false
}

func container(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func scalar(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, s != ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	}
	return "", false
}
