// Package testutil renders small automuseums.info-shaped pages for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// Link is an anchor in a fixture page.
type Link struct {
	Name string
	Href string
}

// Feature is a leaflet map feature. Type "point" features carry Lat/Lon.
type Feature struct {
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Point builds a point feature.
func Point(lat, lon float64) Feature {
	return Feature{Type: "point", Lat: lat, Lon: lon}
}

// HomePage renders the homepage with a "search museums in" block.
func HomePage(countries ...Link) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><nav id="block-searchmuseumsin"><ul>`)
	for _, c := range countries {
		fmt.Fprintf(&b, `<li><a href="%s">%s <span class="count">(3)</span></a></li>`,
			html.EscapeString(c.Href), html.EscapeString(c.Name))
	}
	b.WriteString(`</ul></nav></body></html>`)
	return []byte(b.String())
}

// ListingPage renders one paginated listing page.
func ListingPage(hasNext bool, museums ...Link) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div class="view-content">`)
	for _, m := range museums {
		fmt.Fprintf(&b, `<div class="views-row"><h2>%s</h2><ul class="links"><li class="node-readmore"><a href="%s" title="%s">Read more</a></li></ul></div>`,
			html.EscapeString(m.Name), html.EscapeString(m.Href), html.EscapeString(m.Name))
	}
	b.WriteString(`</div><nav class="pager"><ul>`)
	if hasNext {
		b.WriteString(`<li class="pager__item--next"><a href="?page=next" title="Go to next page">›</a></li>`)
	}
	b.WriteString(`</ul></nav></body></html>`)
	return []byte(b.String())
}

// MuseumPage renders a museum detail page. An empty description omits the
// body element.
func MuseumPage(nodeID, description string, features ...Feature) []byte {
	if features == nil {
		features = []Feature{}
	}
	settings := map[string]any{
		"path": map[string]string{"currentPath": "node/" + nodeID},
		"leaflet": map[string]any{
			"leaflet-map-node-museum-" + nodeID + "-coordinates": map[string]any{
				"features": features,
			},
		},
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		panic(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><article data-history-node-id="%s" class="node"><div class="node-content">`, nodeID)
	if description != "" {
		fmt.Fprintf(&b, `<div class="field--name-body">%s</div>`, description)
	}
	b.WriteString(`</div></article>`)
	fmt.Fprintf(&b, `<script type="application/json" data-drupal-selector="drupal-settings-json">%s</script>`, payload)
	b.WriteString(`</body></html>`)
	return []byte(b.String())
}
