// Package sanitize applies field-level cleaning and acceptance rules to
// responder payloads before they are handed back for persistence.
package sanitize

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgnsrekt/price_agent/internal/extract"
	"github.com/dgnsrekt/price_agent/internal/types"
)

const (
	maxTitleLen = 500
	maxPriceLen = 50
	maxURLLen   = 2000
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	scriptBlocks = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	jsToken      = regexp.MustCompile(`(?i)javascript:`)
	jsScheme     = regexp.MustCompile(`(?i)^javascript:`)

	// Exclusion patterns: placeholder text that looks like a price field but
	// carries no price. Three-or-more dots catches spinner ellipses.
	exclusions = []*regexp.Regexp{
		regexp.MustCompile(`(?i)loading`),
		regexp.MustCompile(`\.{3,}`),
		regexp.MustCompile(`(?i)pending`),
	}

	nonNumeric   = regexp.MustCompile(`[^0-9.,]`)
	commaDecimal = regexp.MustCompile(`,\d{2}$`)
)

// Title strips control characters and script blocks, truncates to 500
// characters, and trims surrounding whitespace.
func Title(s string) string {
	s = controlChars.ReplaceAllString(s, "")
	s = scriptBlocks.ReplaceAllString(s, "")
	s = truncate(s, maxTitleLen)
	return strings.TrimSpace(s)
}

// Price strips control characters and any javascript: token, truncates to
// 50 characters, and trims.
func Price(s string) string {
	s = controlChars.ReplaceAllString(s, "")
	s = jsToken.ReplaceAllString(s, "")
	s = truncate(s, maxPriceLen)
	return strings.TrimSpace(s)
}

// URL strips control characters, rewrites a javascript: scheme to https:,
// and truncates to 2000 characters. A value that does not parse as a URL
// afterward becomes empty.
func URL(s string) string {
	s = controlChars.ReplaceAllString(s, "")
	s = jsScheme.ReplaceAllString(s, "https:")
	s = strings.TrimSpace(truncate(s, maxURLLen))
	if s == "" {
		return ""
	}
	if _, err := url.Parse(s); err != nil {
		return ""
	}
	return s
}

// Product cleans every field independently and accepts the record only if
// all required fields survive non-empty. No partial acceptance.
func Product(p types.Product) (types.Product, bool) {
	out := types.Product{
		Title: Title(p.Title),
		Price: Price(p.Price),
		URL:   URL(p.URL),
	}
	if out.Title == "" || out.Price == "" || out.URL == "" {
		return types.Product{}, false
	}
	return out, true
}

// IsValidPrice reports whether candidate matches at least one inclusion
// pattern, no exclusion pattern, and is not the not-found sentinel.
func IsValidPrice(candidate string) bool {
	if candidate == "" || candidate == types.PriceNotFound {
		return false
	}
	for _, re := range exclusions {
		if re.MatchString(candidate) {
			return false
		}
	}
	for _, r := range extract.Rules {
		if r.Pattern.MatchString(candidate) {
			return true
		}
	}
	return false
}

// IsRealistic parses the numeric magnitude of candidate and reports whether
// it lies in (0, 100000). A comma followed by exactly two digits at the end
// is treated as a decimal separator, any other comma as a thousands
// separator. The heuristic misclassifies some locale formats; that is the
// documented behavior, do not "fix" it here.
func IsRealistic(candidate string) bool {
	cleaned := nonNumeric.ReplaceAllString(candidate, "")
	if cleaned == "" {
		return false
	}
	if commaDecimal.MatchString(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return false
	}
	return v > 0 && v < 100000
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
