package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JakeFAU/automuseums-gpx/internal/model"
)

// ErrUnknownCountry is matched by *UnknownCountryError.
var ErrUnknownCountry = errors.New("unknown country")

// UnknownCountryError reports a country filter that matches no country.
type UnknownCountryError struct {
	Name  string
	Valid []string
}

func (e *UnknownCountryError) Error() string {
	return fmt.Sprintf("country %q not found.\n\nTry any of these: %s", e.Name, strings.Join(e.Valid, ", "))
}

// Is makes errors.Is(err, ErrUnknownCountry) match.
func (e *UnknownCountryError) Is(target error) bool {
	return target == ErrUnknownCountry
}

// Selection chooses which countries a run refreshes.
type Selection struct {
	// Country limits the run to one country by exact name.
	Country string
	// LowProfile refreshes only the country whose listing cache is oldest
	// or absent. Ignored when Country is set.
	LowProfile bool
}

// Select applies sel to countries. The result keeps the homepage order.
func Select(countries []model.Country, sel Selection) ([]model.Country, error) {
	if sel.Country != "" {
		for _, c := range countries {
			if c.Name == sel.Country {
				return []model.Country{c}, nil
			}
		}
		return nil, &UnknownCountryError{Name: sel.Country, Valid: Names(countries)}
	}
	if sel.LowProfile {
		if len(countries) == 0 {
			return nil, errors.New("no countries to choose from")
		}
		return []model.Country{Oldest(countries)}, nil
	}
	return countries, nil
}

// Oldest returns the country with the oldest listing cache. Never-cached
// countries come first; ties keep homepage order. countries must not be empty.
func Oldest(countries []model.Country) model.Country {
	oldest := countries[0]
	for _, c := range countries[1:] {
		if oldest.NeverCached() {
			break
		}
		if c.NeverCached() || c.CacheTimestamp.Before(oldest.CacheTimestamp) {
			oldest = c
		}
	}
	return oldest
}

// Names lists country names in order.
func Names(countries []model.Country) []string {
	names := make([]string, 0, len(countries))
	for _, c := range countries {
		names = append(names, c.Name)
	}
	return names
}
