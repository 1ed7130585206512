package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yunhanz/storymap-api/internal/domain"
	"github.com/yunhanz/storymap-api/internal/render"
	"github.com/yunhanz/storymap-api/internal/story"
)

// computeOverlaps counts how many people visited each place, keyed by the
// modern name when known. Places visited by at least two people are returned,
// most shared first, ties broken by name.
func computeOverlaps(people []render.PersonLayer) []domain.Overlap {
	counts := make(map[string]int)
	for _, item := range people {
		names := make(map[string]struct{})
		for _, loc := range item.Locations {
			name := strings.TrimSpace(loc.ModernName)
			if name == "" {
				name = strings.TrimSpace(loc.Name)
			}
			if name != "" {
				names[name] = struct{}{}
			}
		}
		for name := range names {
			counts[name]++
		}
	}

	var overlaps []domain.Overlap
	for name, count := range counts {
		if count >= 2 {
			overlaps = append(overlaps, domain.Overlap{Name: name, Count: count})
		}
	}
	sort.Slice(overlaps, func(i, j int) bool {
		if overlaps[i].Count != overlaps[j].Count {
			return overlaps[i].Count > overlaps[j].Count
		}
		return overlaps[i].Name < overlaps[j].Name
	})
	return overlaps
}

// renderMergedView writes the combined page and its exports for a
// multi-person task. The file name carries a task ID prefix so concurrent
// tasks never clobber each other's merged views.
func (p *Pipeline) renderMergedView(taskID string, people []render.PersonLayer, overlaps []domain.Overlap) (string, domain.ExportPaths, error) {
	view := render.MultiView{Title: mergedViewTitle, People: people, Overlaps: overlaps}
	html, err := render.MultiHTML(view)
	if err != nil {
		return "", domain.ExportPaths{}, err
	}

	baseName := fmt.Sprintf("%s_%s", mergedViewTitle, taskID[:8])
	htmlPath := filepath.Join(p.root, story.HTMLDir, story.SafeName(baseName)+".html")
	if err := story.WriteText(htmlPath, html); err != nil {
		return "", domain.ExportPaths{}, err
	}

	exports, err := p.ensureMultiExports(people, baseName)
	if err != nil {
		return htmlPath, domain.ExportPaths{}, err
	}
	return htmlPath, exports, nil
}

// ensureProfileExports writes the GeoJSON and CSV files for one person,
// reusing existing files when caching is allowed.
func (p *Pipeline) ensureProfileExports(profile *domain.Profile, baseName string) (domain.ExportPaths, error) {
	geoPath, csvPath := p.exportPaths(baseName)

	if !(p.allowCache && fileExists(geoPath)) {
		data, err := render.ProfileGeoJSON(profile)
		if err != nil {
			return domain.ExportPaths{}, err
		}
		if err := story.WriteText(geoPath, string(data)); err != nil {
			return domain.ExportPaths{}, err
		}
	}
	if !(p.allowCache && fileExists(csvPath)) {
		data, err := render.ProfileCSV(profile)
		if err != nil {
			return domain.ExportPaths{}, err
		}
		if err := story.WriteText(csvPath, data); err != nil {
			return domain.ExportPaths{}, err
		}
	}
	return domain.ExportPaths{GeoJSON: geoPath, CSV: csvPath}, nil
}

// ensureMultiExports writes the merged-view GeoJSON and CSV files.
func (p *Pipeline) ensureMultiExports(people []render.PersonLayer, baseName string) (domain.ExportPaths, error) {
	geoPath, csvPath := p.exportPaths(baseName)

	if !(p.allowCache && fileExists(geoPath)) {
		data, err := render.MultiGeoJSON(people)
		if err != nil {
			return domain.ExportPaths{}, err
		}
		if err := story.WriteText(geoPath, string(data)); err != nil {
			return domain.ExportPaths{}, err
		}
	}
	if !(p.allowCache && fileExists(csvPath)) {
		data, err := render.MultiCSV(people)
		if err != nil {
			return domain.ExportPaths{}, err
		}
		if err := story.WriteText(csvPath, data); err != nil {
			return domain.ExportPaths{}, err
		}
	}
	return domain.ExportPaths{GeoJSON: geoPath, CSV: csvPath}, nil
}

func (p *Pipeline) exportPaths(baseName string) (geoPath, csvPath string) {
	safe := story.SafeName(baseName)
	geoPath = filepath.Join(p.root, story.HTMLDir, safe+".geojson")
	csvPath = filepath.Join(p.root, story.HTMLDir, safe+".csv")
	return geoPath, csvPath
}
