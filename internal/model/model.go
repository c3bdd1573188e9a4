// Package model defines the typed records that flow through the scraper pipeline.
package model

import "time"

// Country is one entry of the homepage "search museums in" navigation block.
type Country struct {
	Name        string
	RelativeURL string
	AbsoluteURL string
	// CachePath is the country's directory inside the cache root.
	CachePath string
	// CacheTimestamp is the modification time of the first listing page cache
	// file. The zero value means the listing was never cached and sorts first.
	CacheTimestamp time.Time
}

// NeverCached reports whether the country's listing has no cache file.
func (c Country) NeverCached() bool {
	return c.CacheTimestamp.IsZero()
}

// MuseumListing is a museum summary parsed from a listing page.
type MuseumListing struct {
	Name        string
	RelativeURL string
	AbsoluteURL string
}

// ListingKey identifies a listing structurally.
type ListingKey struct {
	Name        string
	RelativeURL string
}

// Key returns the structural identity used for deduplication.
func (m MuseumListing) Key() ListingKey {
	return ListingKey{Name: m.Name, RelativeURL: m.RelativeURL}
}

// Coordinate is a single point-type map feature.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MuseumDetail is the data parsed from a museum's own page.
type MuseumDetail struct {
	Description string
	NodeID      string
	Coordinates []Coordinate
}

// Museum joins a listing with its detail page.
type Museum struct {
	Listing   MuseumListing
	Detail    MuseumDetail
	CachePath string
}

// CountryIndex is the deduplicated, detail-enriched museum set of one country.
type CountryIndex struct {
	Country Country
	Museums []Museum
}

// Waypoints counts the coordinates across every museum in the index.
func (ci CountryIndex) Waypoints() int {
	total := 0
	for _, m := range ci.Museums {
		total += len(m.Detail.Coordinates)
	}
	return total
}
