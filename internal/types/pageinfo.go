package types

// Price sentinels. Distinct from absence: a responder that looked and found
// nothing answers with PriceNotFound, a responder still rendering answers
// with PriceLoading.
const (
	PriceNotFound = "No price found"
	PriceLoading  = "Loading"
)

// PageInfo is the payload the in-page responder returns for getPageInfo.
// Immutable once received.
type PageInfo struct {
	Title    string `json:"title,omitempty"`
	Price    string `json:"price,omitempty"`
	URL      string `json:"url"`
	Domain   string `json:"domain,omitempty"`
	Protocol string `json:"protocol,omitempty"`
}

// HasTitle reports whether the response carries a usable title.
func (p PageInfo) HasTitle() bool { return p.Title != "" }

// Product is the validated record handed back to callers for persistence.
type Product struct {
	Title string `json:"title"`
	Price string `json:"price"`
	URL   string `json:"url"`
}
