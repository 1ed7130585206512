package story

import (
	"fmt"
	"strings"

	"github.com/yunhanz/storymap-api/internal/placename"
)

// QualityMetrics counts the structured elements recovered from a document.
type QualityMetrics struct {
	TimelineRows int
	Places       int
	Locations    int
	Coords       int
}

// CollectQualityMetrics computes counts over the parseable structures of a
// document.
func CollectQualityMetrics(md string) QualityMetrics {
	_, rows := ParseTimelineTable(md)
	return QualityMetrics{
		TimelineRows: len(rows),
		Places:       len(ParsePlaces(md)),
		Locations:    len(ParseLocationSections(md)),
		Coords:       len(ParseCoordsTable(md)),
	}
}

// ValidateQuality returns human-readable issues found in a document: missing
// or incomplete timeline table, missing location sections, and coordinate
// table gaps or out-of-range values.
func ValidateQuality(md string) []string {
	if strings.TrimSpace(md) == "" {
		return []string{"内容为空或格式不正确"}
	}
	var issues []string

	header, rows := ParseTimelineTable(md)
	if len(header) == 0 || len(rows) == 0 {
		issues = append(issues, "年份表缺失或为空")
	} else {
		if !headerContains(header, "现称") {
			issues = append(issues, "年份表缺少现称列")
		}
		if !headerContains(header, "事件") {
			issues = append(issues, "年份表缺少事件列")
		}
	}

	locations := ParseLocationSections(md)
	if len(locations) == 0 {
		issues = append(issues, "重要地点段落缺失或为空")
	} else {
		missingEvent := 0
		for _, loc := range locations {
			if strings.TrimSpace(loc.Event) == "" {
				missingEvent++
			}
		}
		if missingEvent > 0 && missingEvent >= max(1, len(locations)/2) {
			issues = append(issues, fmt.Sprintf("重要地点事迹缺失较多（%d / %d）", missingEvent, len(locations)))
		}
	}

	var placeNames []string
	for _, p := range ParsePlaces(md) {
		name := placename.PickGeocodeName(firstNonEmpty(p.Modern, p.Ancient))
		if name != "" {
			placeNames = append(placeNames, name)
		}
	}
	coords := ParseCoordsTable(md)
	if len(placeNames) > 0 && len(coords) == 0 {
		issues = append(issues, "地点坐标表缺失或为空")
	}
	if len(coords) > 0 {
		var invalid []string
		for name, coord := range coords {
			if !coord.Valid() {
				invalid = append(invalid, name)
			}
		}
		if len(invalid) > 0 {
			issues = append(issues, "地点坐标存在异常范围："+summarizeSamples(invalid, 3))
		}
		var missing []string
		for _, name := range placeNames {
			if _, ok := coords[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			issues = append(issues, "地点坐标缺失："+summarizeSamples(missing, 3))
		}
	}
	return issues
}

// QualityReportLines renders the quality check as printable lines.
func QualityReportLines(md string) []string {
	metrics := CollectQualityMetrics(md)
	issues := ValidateQuality(md)
	lines := []string{
		"数据质量检查：",
		fmt.Sprintf("- 年份表行数：%d", metrics.TimelineRows),
		fmt.Sprintf("- 地点条目：%d", metrics.Places),
		fmt.Sprintf("- 坐标条目：%d", metrics.Coords),
		fmt.Sprintf("- 结构化地点：%d", metrics.Locations),
	}
	if len(issues) == 0 {
		return append(lines, "- 未发现明显问题")
	}
	for _, issue := range issues {
		lines = append(lines, "- "+issue)
	}
	return lines
}

func headerContains(header []string, key string) bool {
	for _, c := range header {
		if strings.Contains(c, key) {
			return true
		}
	}
	return false
}

func summarizeSamples(items []string, limit int) string {
	if len(items) == 0 {
		return ""
	}
	samples := items
	if len(samples) > limit {
		samples = samples[:limit]
	}
	text := strings.Join(samples, "、")
	if more := len(items) - len(samples); more > 0 {
		return fmt.Sprintf("%s 等 %d 个", text, more)
	}
	return text
}
