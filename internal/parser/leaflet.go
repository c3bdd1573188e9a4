package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/JakeFAU/automuseums-gpx/internal/model"
)

const pointFeature = "point"

type drupalSettings struct {
	Leaflet map[string]leafletMap `json:"leaflet"`
}

type leafletMap struct {
	Features []leafletFeature `json:"features"`
}

type leafletFeature struct {
	Type string     `json:"type"`
	Lat  *flexFloat `json:"lat"`
	Lon  *flexFloat `json:"lon"`
}

// flexFloat accepts both JSON numbers and numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("unquote coordinate %s: %w", raw, err)
		}
		raw = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse coordinate %q: %w", raw, err)
	}
	*f = flexFloat(v)
	return nil
}

// leafletMapKey names the map Drupal renders for a museum node.
func leafletMapKey(nodeID string) string {
	return "leaflet-map-node-museum-" + nodeID + "-coordinates"
}

// leafletPoints extracts the point features of the node's map, in order.
// A node without a map has no coordinates. A point without lat or lon is an
// error.
func leafletPoints(payload []byte, nodeID string) ([]model.Coordinate, error) {
	var settings drupalSettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return nil, fmt.Errorf("decode drupal settings: %w", err)
	}
	m, ok := settings.Leaflet[leafletMapKey(nodeID)]
	if !ok {
		return nil, nil
	}
	coords := make([]model.Coordinate, 0, len(m.Features))
	for i, feature := range m.Features {
		if feature.Type != pointFeature {
			continue
		}
		if feature.Lat == nil || feature.Lon == nil {
			return nil, fmt.Errorf("%w: lat/lon of point feature %d", ErrMissingElement, i)
		}
		coords = append(coords, model.Coordinate{
			Lat: float64(*feature.Lat),
			Lon: float64(*feature.Lon),
		})
	}
	return coords, nil
}
