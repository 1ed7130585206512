package story

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yunhanz/storymap-api/internal/geo"
)

// Geocoder resolves place names to coordinates. Implemented by geo.Geocoder.
type Geocoder interface {
	Resolve(ctx context.Context, name string) (geo.Coord, bool)
	ResolveAll(ctx context.Context, names []string) map[string]geo.Coord
}

// AppendCoordsSection geocodes every place in the timeline table and appends a
// 地点坐标（自动地理编码） table to the document. When no place resolves the
// document is returned unchanged.
func AppendCoordsSection(ctx context.Context, md string, geocoder Geocoder) string {
	places := ExtractPlacesInOrder(md)
	if len(places) == 0 {
		return md
	}
	coords := geocoder.ResolveAll(ctx, places)
	if len(coords) == 0 {
		return md
	}

	var section strings.Builder
	section.WriteString("\n## 地点坐标（自动地理编码）\n")
	section.WriteString("| 现称 | 纬度 | 经度 |\n")
	section.WriteString("| --- | --- | --- |\n")
	for _, p := range places {
		coord, ok := coords[p]
		if !ok {
			continue
		}
		fmt.Fprintf(&section, "| %s | %.6f | %.6f |\n", p, coord.Lat, coord.Lng)
	}
	return md + "\n" + strings.TrimSuffix(section.String(), "\n")
}

// ComputeTotalDistanceKm sums the straight-line legs between consecutive rows
// of the 地点坐标 table. Returns false with fewer than two coordinates.
func ComputeTotalDistanceKm(md string) (float64, bool) {
	var (
		coords     []geo.Coord
		inSection  bool
		headerSeen bool
	)
	for _, line := range strings.Split(md, "\n") {
		if title, ok := sectionTitle(line); ok {
			inSection = strings.Contains(title, "地点坐标")
			headerSeen = false
			continue
		}
		if !inSection {
			continue
		}
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "|") && !headerSeen {
			headerSeen = true
			continue
		}
		if headerSeen {
			if !strings.HasPrefix(t, "|") {
				break
			}
			cells := splitTableRow(line)
			if len(cells) < 3 {
				continue
			}
			lat, err1 := strconv.ParseFloat(cells[1], 64)
			lng, err2 := strconv.ParseFloat(cells[2], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			coords = append(coords, geo.Coord{Lat: lat, Lng: lng})
		}
	}
	if len(coords) < 2 {
		return 0, false
	}
	return geo.TotalDistanceKm(coords), true
}

// InsertDistanceIntro adds a 总行程估算 bullet after the 重要节点数量 line in
// the map description section.
func InsertDistanceIntro(md string, distanceKm float64) string {
	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines)+1)
	inserted := false
	for _, line := range lines {
		out = append(out, line)
		if !inserted && strings.HasPrefix(strings.TrimSpace(line), "- 🌟 **重要节点数量**") {
			out = append(out, fmt.Sprintf("- 🚶 **总行程估算**：约 %.0f 公里", distanceKm))
			inserted = true
		}
	}
	return strings.Join(out, "\n")
}
