package directory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/automuseums-gpx/internal/model"
)

func countriesAt(stamps map[string]time.Time, order ...string) []model.Country {
	out := make([]model.Country, 0, len(order))
	for _, name := range order {
		out = append(out, model.Country{Name: name, CacheTimestamp: stamps[name]})
	}
	return out
}

func TestSelectByName(t *testing.T) {
	t.Parallel()

	countries := countriesAt(nil, "Barbados", "Czechia", "Estonia")
	got, err := Select(countries, Selection{Country: "Czechia", LowProfile: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Czechia", got[0].Name)
}

func TestSelectUnknownCountry(t *testing.T) {
	t.Parallel()

	countries := countriesAt(nil, "Barbados", "Czechia")
	_, err := Select(countries, Selection{Country: "Atlantis"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCountry)

	var unknown *UnknownCountryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"Barbados", "Czechia"}, unknown.Valid)
	assert.Contains(t, err.Error(), "Try any of these: Barbados, Czechia")
}

func TestSelectAll(t *testing.T) {
	t.Parallel()

	countries := countriesAt(nil, "Barbados", "Czechia")
	got, err := Select(countries, Selection{})
	require.NoError(t, err)
	assert.Equal(t, countries, got)
}

func TestSelectLowProfile(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("OldestCache", func(t *testing.T) {
		t.Parallel()
		countries := countriesAt(map[string]time.Time{
			"Barbados": base.Add(5 * time.Hour),
			"Czechia":  base,
			"Estonia":  base.Add(time.Hour),
		}, "Barbados", "Czechia", "Estonia")
		got, err := Select(countries, Selection{LowProfile: true})
		require.NoError(t, err)
		assert.Equal(t, "Czechia", got[0].Name)
	})

	t.Run("NeverCachedFirst", func(t *testing.T) {
		t.Parallel()
		countries := countriesAt(map[string]time.Time{
			"Barbados": base,
			"Czechia":  base,
		}, "Barbados", "Czechia", "Estonia", "Jordan")
		got, err := Select(countries, Selection{LowProfile: true})
		require.NoError(t, err)
		assert.Equal(t, "Estonia", got[0].Name)
	})

	t.Run("TiesKeepHomepageOrder", func(t *testing.T) {
		t.Parallel()
		countries := countriesAt(map[string]time.Time{
			"Barbados": base,
			"Czechia":  base,
		}, "Barbados", "Czechia")
		got, err := Select(countries, Selection{LowProfile: true})
		require.NoError(t, err)
		assert.Equal(t, "Barbados", got[0].Name)
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		_, err := Select(nil, Selection{LowProfile: true})
		assert.Error(t, err)
	})
}

func TestDedupeKeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	m := model.MuseumListing{Name: "M", RelativeURL: "/cz/m"}
	sameNameOtherURL := model.MuseumListing{Name: "M", RelativeURL: "/cz/m-2"}
	a := model.MuseumListing{Name: "A", RelativeURL: "/cz/a"}

	got := Dedupe([]model.MuseumListing{a, m, m, sameNameOtherURL, a, m})
	assert.Equal(t, []model.MuseumListing{a, m, sameNameOtherURL}, got)
	assert.Empty(t, Dedupe(nil))
}
