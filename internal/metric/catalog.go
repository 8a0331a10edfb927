// Package metric holds the metric catalog, value extraction from game records
// and the daily delta calculation.
package metric

// Kind identifies one tracked statistic. Its value is the API field name.
type Kind string

const (
	Views     Kind = "views_count"
	Downloads Kind = "downloads_count"
	Purchases Kind = "purchases_count"
	Earnings  Kind = "earnings"
)

// Definition is the presentation metadata for a Kind.
type Definition struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
	Unit string `json:"unit"`
	Icon string `json:"icon"`
}

var catalog = []Definition{
	{Kind: Views, Name: "Views", Unit: "views", Icon: "mdi:eye"},
	{Kind: Downloads, Name: "Downloads", Unit: "downloads", Icon: "mdi:download"},
	{Kind: Purchases, Name: "Purchases", Unit: "purchases", Icon: "mdi:cash"},
	{Kind: Earnings, Name: "Earnings", Unit: "USD", Icon: "mdi:currency-usd"},
}

// Catalog returns every known kind in display order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Definition returns the catalog entry for k.
func (k Kind) Definition() (Definition, bool) {
	for _, d := range catalog {
		if d.Kind == k {
			return d, true
		}
	}
	return Definition{}, false
}
