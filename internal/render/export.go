package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yunhanz/storymap-api/internal/domain"
)

var csvHeader = []string{"person", "name", "lat", "lng", "type", "time", "modernName", "ancientName"}

type feature struct {
	Type       string         `json:"type"`
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// personFeatures converts one person's locations into point features plus, if
// there is more than one valid coordinate, a trajectory line.
func personFeatures(name string, locations []domain.LocationEvent) []feature {
	var features []feature
	var coords [][2]float64
	for _, loc := range locations {
		if !domain.IsValidCoord(loc.Lat, loc.Lng) {
			continue
		}
		coords = append(coords, [2]float64{loc.Lng, loc.Lat})
		features = append(features, feature{
			Type:     "Feature",
			Geometry: geometry{Type: "Point", Coordinates: []float64{loc.Lng, loc.Lat}},
			Properties: map[string]any{
				"person":      name,
				"name":        loc.Name,
				"type":        string(loc.Type),
				"time":        loc.Time,
				"modernName":  loc.ModernName,
				"ancientName": loc.AncientName,
			},
		})
	}
	if len(coords) > 1 {
		line := make([][]float64, len(coords))
		for i, c := range coords {
			line[i] = []float64{c[0], c[1]}
		}
		features = append(features, feature{
			Type:       "Feature",
			Geometry:   geometry{Type: "LineString", Coordinates: line},
			Properties: map[string]any{"person": name, "name": "轨迹"},
		})
	}
	return features
}

// ProfileGeoJSON builds the GeoJSON export for one person.
func ProfileGeoJSON(profile *domain.Profile) ([]byte, error) {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: personFeatures(profile.Person.Name, profile.Locations),
	}
	if fc.Features == nil {
		fc.Features = []feature{}
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geojson: %w", err)
	}
	return data, nil
}

// MultiGeoJSON builds the GeoJSON export for the merged view.
func MultiGeoJSON(people []PersonLayer) ([]byte, error) {
	fc := featureCollection{Type: "FeatureCollection", Features: []feature{}}
	for _, item := range people {
		fc.Features = append(fc.Features, personFeatures(item.Person.Name, item.Locations)...)
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geojson: %w", err)
	}
	return data, nil
}

// ProfileCSV builds the CSV export for one person.
func ProfileCSV(profile *domain.Profile) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	if err := writeCSVRows(w, profile.Person.Name, profile.Locations); err != nil {
		return "", err
	}
	w.Flush()
	return buf.String(), w.Error()
}

// MultiCSV builds the CSV export for the merged view.
func MultiCSV(people []PersonLayer) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, item := range people {
		if err := writeCSVRows(w, item.Person.Name, item.Locations); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

func writeCSVRows(w *csv.Writer, person string, locations []domain.LocationEvent) error {
	for _, loc := range locations {
		row := []string{
			person,
			loc.Name,
			strconv.FormatFloat(loc.Lat, 'f', -1, 64),
			strconv.FormatFloat(loc.Lng, 'f', -1, 64),
			string(loc.Type),
			loc.Time,
			loc.ModernName,
			loc.AncientName,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
