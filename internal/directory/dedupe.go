package directory

import "github.com/JakeFAU/automuseums-gpx/internal/model"

// Dedupe drops repeated listings, keeping the first occurrence of each
// (name, relative URL) pair in order. Museums with several locations are
// listed once per location on the listing pages.
func Dedupe(listings []model.MuseumListing) []model.MuseumListing {
	seen := make(map[model.ListingKey]struct{}, len(listings))
	unique := make([]model.MuseumListing, 0, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.Key()]; ok {
			continue
		}
		seen[l.Key()] = struct{}{}
		unique = append(unique, l)
	}
	return unique
}
