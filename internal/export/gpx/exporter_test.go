package gpxexport_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrajina/gpxgo/gpx"
	"go.uber.org/zap"

	gpxexport "github.com/JakeFAU/automuseums-gpx/internal/export/gpx"
	"github.com/JakeFAU/automuseums-gpx/internal/model"
)

var generated = time.Date(2024, 8, 11, 9, 30, 0, 0, time.UTC)

func czechiaIndex() model.CountryIndex {
	return model.CountryIndex{
		Country: model.Country{
			Name:        "Czechia",
			RelativeURL: "/museums/Czechia",
			AbsoluteURL: "https://automuseums.info/museums/Czechia",
		},
		Museums: []model.Museum{
			{
				Listing: model.MuseumListing{
					Name:        "Historic Car Museum Kuks",
					AbsoluteURL: "https://automuseums.info/czechia/historic-car-museum-kuks",
				},
				Detail: model.MuseumDetail{
					Description: "<p>Cars.</p>",
					Coordinates: []model.Coordinate{{Lat: 50.40, Lon: 15.89}},
				},
			},
			{
				Listing: model.MuseumListing{
					Name:        "Museum of Historical Motorcycles",
					AbsoluteURL: "https://automuseums.info/czech-republic/museum-historical-motorcycles",
				},
				Detail: model.MuseumDetail{
					Coordinates: []model.Coordinate{
						{Lat: 49.1, Lon: 16.1},
						{Lat: 49.2, Lon: 16.2},
						{Lat: 49.3, Lon: 16.3},
					},
				},
			},
			{
				Listing: model.MuseumListing{Name: "Nowhere Museum"},
			},
		},
	}
}

func newExporter(fsys afero.Fs) *gpxexport.Exporter {
	return gpxexport.New(fsys, gpxexport.Config{
		SiteName: "Automuseums.info",
		Creator:  "https://github.com/JakeFAU/automuseums-gpx",
	}, zap.NewNop(), nil)
}

func TestDocumentOneWaypointPerCoordinate(t *testing.T) {
	t.Parallel()

	doc, skipped := newExporter(afero.NewMemMapFs()).Document(czechiaIndex(), generated)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, "Automuseums.info: Czechia", doc.Name)
	assert.Equal(t, "Generated using https://github.com/JakeFAU/automuseums-gpx", doc.Description)
	assert.Equal(t, "https://automuseums.info/museums/Czechia", doc.Link)
	require.NotNil(t, doc.Time)
	assert.True(t, doc.Time.Equal(generated))

	require.Len(t, doc.Waypoints, 4)
	first := doc.Waypoints[0]
	assert.InDelta(t, 50.40, first.Latitude, 1e-9)
	assert.InDelta(t, 15.89, first.Longitude, 1e-9)
	assert.Equal(t, "Historic Car Museum Kuks", first.Name)
	assert.Equal(t, "<p>Cars.</p>", first.Description)
	assert.Equal(t, gpxexport.WaypointSymbol, first.Symbol)
	assert.Equal(t, "https://automuseums.info/czechia/historic-car-museum-kuks", first.Source)

	for i, wantLat := range []float64{49.1, 49.2, 49.3} {
		wp := doc.Waypoints[i+1]
		assert.Equal(t, "Museum of Historical Motorcycles", wp.Name)
		assert.InDelta(t, wantLat, wp.Latitude, 1e-9)
	}
}

func TestWriteAndParseBack(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	result, err := newExporter(fsys).Write(czechiaIndex(), generated)
	require.NoError(t, err)
	assert.Equal(t, "Czechia.gpx", result.Path)
	assert.Equal(t, 4, result.Waypoints)
	assert.False(t, result.Unchanged)

	data, err := afero.ReadFile(fsys, "Czechia.gpx")
	require.NoError(t, err)
	parsed, err := gpx.ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "Automuseums.info: Czechia", parsed.Name)
	require.Len(t, parsed.Waypoints, 4)
	assert.Equal(t, "Museum", parsed.Waypoints[0].Symbol)
	assert.InDelta(t, 49.3, parsed.Waypoints[3].Latitude, 1e-9)
}

func TestWriteIsIdempotent(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	exp := newExporter(fsys)
	_, err := exp.Write(czechiaIndex(), generated)
	require.NoError(t, err)
	first, err := afero.ReadFile(fsys, "Czechia.gpx")
	require.NoError(t, err)

	result, err := exp.Write(czechiaIndex(), generated)
	require.NoError(t, err)
	assert.True(t, result.Unchanged)
	second, err := afero.ReadFile(fsys, "Czechia.gpx")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	result, err = exp.Write(czechiaIndex(), generated.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, result.Unchanged)
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "United Kingdom.gpx", gpxexport.FileName("United Kingdom"))
	assert.Equal(t, "Bosnia_Herzegovina.gpx", gpxexport.FileName("Bosnia/Herzegovina"))
}

func TestNewOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	exp, err := gpxexport.NewOnDisk(dir, gpxexport.Config{SiteName: "Automuseums.info"}, zap.NewNop(), nil)
	require.NoError(t, err)
	_, err = exp.Write(czechiaIndex(), generated)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "Czechia.gpx"))
	require.NoError(t, err)

	_, err = gpxexport.NewOnDisk(" ", gpxexport.Config{}, zap.NewNop(), nil)
	assert.Error(t, err)
}
