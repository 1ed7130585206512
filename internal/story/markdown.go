package story

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yunhanz/storymap-api/internal/domain"
	"github.com/yunhanz/storymap-api/internal/geo"
	"github.com/yunhanz/storymap-api/internal/placename"
)

var (
	tableSeparatorRe = regexp.MustCompile(`^\|\s*-{3,}\s*\|`)
	keyValueRe       = regexp.MustCompile(`-\s*\*\*(.+?)\*\*：\s*(.+)`)
	worksRe          = regexp.MustCompile(`《([^》]+)》`)
	quoteSplitRe     = regexp.MustCompile(`[；;]\s*`)
	dateRe           = regexp.MustCompile(`(公元前|前)?\d{3,4}年`)
	quotedTitleRe    = regexp.MustCompile(`“([^”]+)”`)
	leadingSymbolRe  = regexp.MustCompile(`^[^0-9A-Za-z\p{Han}]+`)
	trailingDashRe   = regexp.MustCompile(`-{3,}$`)
	dashLineRe       = regexp.MustCompile(`^-{3,}$`)
)

// timelineHeaderHints identify a table as the biography timeline when the
// document lacks a properly titled 年份 section.
var timelineHeaderHints = []string{"现称", "事件", "年号", "公元"}

// PlacePair is one timeline row's ancient/modern place name pair.
type PlacePair struct {
	Ancient string
	Modern  string
}

// TimelineEvent is one timeline row's era name, AD year, and description.
type TimelineEvent struct {
	Era  string
	AD   string
	Desc string
}

// LocationSection is a structured 重要地点 subsection before geocoding.
type LocationSection struct {
	Name         string
	Type         domain.LocationType
	Time         string
	Location     string
	Event        string
	Significance string
	Duration     string
	Quotes       string
}

func splitTableRow(line string) []string {
	cells := strings.Split(strings.Trim(strings.TrimSpace(line), "|"), "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func sectionTitle(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "## ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(t, "#")), true
}

func subsectionTitle(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "### ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(t, "#")), true
}

// ParseTimelineTable returns the header and data rows of the biography
// timeline. It prefers the first table under a 年份 section; when that is
// missing it falls back to scanning for any table whose header mentions a
// timeline column.
func ParseTimelineTable(md string) ([]string, [][]string) {
	lines := strings.Split(md, "\n")

	var (
		header       []string
		rows         [][]string
		inSec        bool
		tableStarted bool
		headerSeen   bool
	)
	for _, line := range lines {
		if title, ok := sectionTitle(line); ok {
			inSec = strings.HasPrefix(title, "年份")
			tableStarted = false
			headerSeen = false
			header = nil
			continue
		}
		if !inSec {
			continue
		}
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "|") && !tableStarted {
			header = splitTableRow(line)
			tableStarted = true
			continue
		}
		if tableStarted {
			if tableSeparatorRe.MatchString(t) {
				headerSeen = true
				continue
			}
			if headerSeen && strings.HasPrefix(t, "|") {
				rows = append(rows, splitTableRow(line))
			} else {
				break
			}
		}
	}
	if len(header) > 0 && len(rows) > 0 {
		return header, rows
	}

	// Fallback: any table that looks like a timeline.
	header = nil
	rows = nil
	tableStarted = false
	headerSeen = false
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "|") && !tableStarted {
			header = splitTableRow(line)
			tableStarted = true
			continue
		}
		if tableStarted {
			if tableSeparatorRe.MatchString(t) {
				headerSeen = true
				continue
			}
			if headerSeen && strings.HasPrefix(t, "|") {
				rows = append(rows, splitTableRow(line))
			} else {
				if len(header) > 0 && len(rows) > 0 && headerMatchesTimeline(header) {
					return header, rows
				}
				header = nil
				rows = nil
				tableStarted = false
				headerSeen = false
			}
		}
	}
	if len(header) > 0 && len(rows) > 0 && headerMatchesTimeline(header) {
		return header, rows
	}
	return nil, nil
}

func headerMatchesTimeline(header []string) bool {
	for _, cell := range header {
		for _, hint := range timelineHeaderHints {
			if strings.Contains(cell, hint) {
				return true
			}
		}
	}
	return false
}

// ParseBasicInfo extracts key/value pairs from the 人物档案 → 基本信息
// subsection.
func ParseBasicInfo(md string) map[string]string {
	info := make(map[string]string)
	inProfile := false
	inBasic := false
	for _, line := range strings.Split(md, "\n") {
		if title, ok := sectionTitle(line); ok {
			inProfile = strings.Contains(title, "人物档案")
			inBasic = false
			continue
		}
		if !inProfile {
			continue
		}
		if title, ok := subsectionTitle(line); ok {
			inBasic = strings.Contains(title, "基本信息")
			continue
		}
		if inBasic {
			if m := keyValueRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				info[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
			}
		}
	}
	return info
}

// ParseOverview extracts the 人物档案 → 生平概述 prose as a single string.
func ParseOverview(md string) string {
	inProfile := false
	inOverview := false
	var buf strings.Builder
	for _, line := range strings.Split(md, "\n") {
		if title, ok := sectionTitle(line); ok {
			inProfile = strings.Contains(title, "人物档案")
			if !inProfile {
				inOverview = false
			}
			continue
		}
		if !inProfile {
			continue
		}
		if title, ok := subsectionTitle(line); ok {
			inOverview = strings.Contains(title, "生平概述")
			continue
		}
		if inOverview {
			t := strings.TrimSpace(line)
			if t == "" || dashLineRe.MatchString(t) {
				continue
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}

// ExtractWorks returns deduplicated work titles quoted with 《》 in order of
// first appearance.
func ExtractWorks(text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var works []string
	for _, m := range worksRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		works = append(works, name)
	}
	return works
}

// SplitQuoteLines splits a quote field on Chinese or ASCII semicolons.
func SplitQuoteLines(text string) []string {
	if text == "" {
		return nil
	}
	var parts []string
	for _, p := range quoteSplitRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Field keys accepted in location subsections. The model varies its wording,
// so each logical field matches several labels.
var (
	timeKeys         = map[string]bool{"时间": true, "时段": true, "时期": true, "年代": true, "公元纪年": true, "年号纪年": true}
	locationKeys     = map[string]bool{"位置": true, "地点": true}
	eventKeys        = map[string]bool{"事迹": true, "背景": true, "经过": true, "事件": true}
	significanceKeys = map[string]bool{"意义": true, "影响": true}
	durationKeys     = map[string]bool{"停留": true, "停留时间": true, "停留时长": true, "居留": true, "驻留": true, "逗留": true, "在此时间": true, "在此时长": true}
	quoteKeys        = map[string]bool{"名篇名句": true, "代表名句": true, "名句": true, "诗句": true}
)

// ParseLocationSections parses the 人生历程/重要地点 section into structured
// location entries.
func ParseLocationSections(md string) []LocationSection {
	var (
		locations []LocationSection
		current   *LocationSection
		inSection bool
	)
	for _, line := range strings.Split(md, "\n") {
		if title, ok := sectionTitle(line); ok {
			if strings.Contains(title, "人生历程") || strings.Contains(title, "重要地点") {
				inSection = true
				current = nil
				continue
			}
			if inSection {
				break
			}
		}
		if !inSection {
			continue
		}
		if rawTitle, ok := subsectionTitle(line); ok {
			if current != nil {
				locations = append(locations, *current)
			}
			locType := domain.LocationNormal
			if strings.Contains(rawTitle, "出生地") {
				locType = domain.LocationBirth
			} else if strings.Contains(rawTitle, "去世地") {
				locType = domain.LocationDeath
			}
			name := rawTitle
			if idx := strings.Index(rawTitle, "："); idx >= 0 {
				name = strings.TrimSpace(rawTitle[idx+len("："):])
			}
			name = strings.TrimSpace(leadingSymbolRe.ReplaceAllString(name, ""))
			current = &LocationSection{Name: name, Type: locType}
			continue
		}
		if current == nil {
			continue
		}
		m := keyValueRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		val := strings.TrimSpace(m[2])
		switch {
		case timeKeys[key]:
			current.Time = val
		case locationKeys[key]:
			current.Location = val
		case eventKeys[key]:
			current.Event = strings.TrimSpace(strings.TrimSpace(current.Event) + " " + val)
		case significanceKeys[key]:
			current.Significance = val
		case durationKeys[key]:
			current.Duration = val
		case quoteKeys[key]:
			current.Quotes = strings.Trim(current.Quotes+"；"+val, "；")
		}
	}
	if current != nil {
		locations = append(locations, *current)
	}
	return locations
}

// ParseCoordsTable parses the 地点坐标 table into a name → coordinate map.
// Names are normalized with the geocode-name picker so lookups from either the
// raw or cleaned form hit.
func ParseCoordsTable(md string) map[string]geo.Coord {
	coords := make(map[string]geo.Coord)
	var (
		inSection    bool
		tableStarted bool
		headerSeen   bool
		idxName      = -1
		idxLat       = -1
		idxLng       = -1
	)
	for _, line := range strings.Split(md, "\n") {
		if title, ok := sectionTitle(line); ok {
			inSection = strings.Contains(title, "地点坐标")
			tableStarted = false
			headerSeen = false
			idxName, idxLat, idxLng = -1, -1, -1
			continue
		}
		if !inSection {
			continue
		}
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "|") && !tableStarted {
			tableStarted = true
			for i, cell := range splitTableRow(line) {
				lower := strings.ToLower(cell)
				if strings.Contains(cell, "现称") || strings.Contains(cell, "地点") {
					idxName = i
				}
				if strings.Contains(cell, "纬度") || strings.Contains(lower, "lat") {
					idxLat = i
				}
				if strings.Contains(cell, "经度") || strings.Contains(lower, "lon") || strings.Contains(lower, "lng") {
					idxLng = i
				}
			}
			continue
		}
		if tableStarted {
			if tableSeparatorRe.MatchString(t) {
				headerSeen = true
				continue
			}
			if headerSeen && strings.HasPrefix(t, "|") {
				row := splitTableRow(line)
				if idxName < 0 || idxLat < 0 || idxLng < 0 {
					continue
				}
				if idxName >= len(row) || idxLat >= len(row) || idxLng >= len(row) {
					continue
				}
				name := placename.PickGeocodeName(row[idxName])
				lat, err1 := strconv.ParseFloat(row[idxLat], 64)
				lng, err2 := strconv.ParseFloat(row[idxLng], 64)
				if err1 != nil || err2 != nil || name == "" {
					continue
				}
				coords[name] = geo.Coord{Lat: lat, Lng: lng}
			} else {
				break
			}
		}
	}
	return coords
}

// ExtractPlacesInOrder returns the 现称 column of the timeline table in order
// of appearance, deduplicated and cleaned of parenthesized notes.
func ExtractPlacesInOrder(md string) []string {
	lines := strings.Split(md, "\n")
	var (
		inSec        bool
		tableStarted bool
		headerSeen   bool
		colIdx       = -1
		places       []string
	)
	for _, line := range lines {
		if title, ok := sectionTitle(line); ok {
			if strings.HasPrefix(title, "年份") {
				inSec = true
				tableStarted = false
				headerSeen = false
				colIdx = -1
				continue
			}
			inSec = false
		}
		if !inSec {
			continue
		}
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "|") && !tableStarted {
			tableStarted = true
			cells := splitTableRow(line)
			colIdx = len(cells) - 1
			for j, c := range cells {
				if strings.Contains(c, "现称") {
					colIdx = j
					break
				}
			}
			continue
		}
		if tableStarted {
			if tableSeparatorRe.MatchString(t) {
				headerSeen = true
				continue
			}
			if headerSeen && strings.HasPrefix(t, "|") {
				cells := splitTableRow(line)
				if colIdx >= 0 && colIdx < len(cells) {
					cell := cells[colIdx]
					if idx := strings.Index(cell, "："); idx >= 0 {
						cell = strings.TrimSpace(cell[idx+len("："):])
					}
					clean := placename.Clean(cell)
					if clean != "" && clean != "—" {
						places = append(places, clean)
					}
				}
			} else {
				break
			}
		}
	}
	if len(places) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(places))
	out := make([]string, 0, len(places))
	for _, p := range places {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ParsePlaces extracts the ancient/modern place columns from the timeline
// table.
func ParsePlaces(md string) []PlacePair {
	header, rows := ParseTimelineTable(md)
	if len(header) == 0 || len(rows) == 0 {
		return nil
	}
	idxAncient, idxModern := -1, -1
	for i, c := range header {
		if strings.Contains(c, "古称") {
			idxAncient = i
		}
		if strings.Contains(c, "现称") {
			idxModern = i
		}
	}
	if idxAncient < 0 && idxModern < 0 {
		return nil
	}
	var res []PlacePair
	for _, row := range rows {
		a := cellAt(row, idxAncient)
		b := cellAt(row, idxModern)
		a = placename.Clean(stripLabel(a))
		b = placename.Clean(stripLabel(b))
		if a != "" || b != "" {
			res = append(res, PlacePair{Ancient: a, Modern: b})
		}
	}
	return res
}

// ParseEvents extracts the era/AD/description columns from the timeline table.
func ParseEvents(md string) []TimelineEvent {
	header, rows := ParseTimelineTable(md)
	if len(header) == 0 || len(rows) == 0 {
		return nil
	}
	idxEra, idxAD, idxDesc := -1, -1, -1
	for i, c := range header {
		if strings.Contains(c, "年号") {
			idxEra = i
		}
		if strings.Contains(c, "公元") {
			idxAD = i
		}
		if strings.Contains(c, "事件") {
			idxDesc = i
		}
	}
	if idxEra < 0 && idxAD < 0 && idxDesc < 0 {
		return nil
	}
	var res []TimelineEvent
	for _, row := range rows {
		e := TimelineEvent{
			Era:  cellAt(row, idxEra),
			AD:   cellAt(row, idxAD),
			Desc: cellAt(row, idxDesc),
		}
		if e.Era != "" || e.AD != "" || e.Desc != "" {
			res = append(res, e)
		}
	}
	return res
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func stripLabel(cell string) string {
	if idx := strings.Index(cell, "："); idx >= 0 {
		return strings.TrimSpace(cell[idx+len("："):])
	}
	return cell
}

// ParseDateLocation pulls a year expression and a location out of a birth or
// death description. keys are the markers preceding the location, tried in
// order; without a marker the text after the first comma is used.
func ParseDateLocation(text string, keys []string) (date, loc string) {
	if m := dateRe.FindString(text); m != "" {
		date = m
	}
	for _, k := range keys {
		if idx := strings.Index(text, k); idx >= 0 {
			loc = strings.Trim(text[idx+len(k):], "。；; ")
			break
		}
	}
	if loc == "" {
		if idx := strings.IndexAny(text, "，,"); idx >= 0 {
			_, size := utf8.DecodeRuneInString(text[idx:])
			loc = strings.Trim(text[idx+size:], "。；; ")
		}
	}
	return date, loc
}

// ExtractTitleFromText returns the content of the first 引号 pair in text.
func ExtractTitleFromText(text string) string {
	if m := quotedTitleRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
