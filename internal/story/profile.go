package story

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yunhanz/storymap-api/internal/domain"
	"github.com/yunhanz/storymap-api/internal/geo"
	"github.com/yunhanz/storymap-api/internal/placename"
)

// NameSplitter classifies place descriptions into ancient/modern name pairs.
// Implemented by placename.Splitter.
type NameSplitter interface {
	BatchSplit(ctx context.Context, texts []string) map[string]placename.Pair
	Split(ctx context.Context, text string) placename.Pair
}

// Builder assembles a renderable profile from biography markdown, resolving
// place names and coordinates along the way.
type Builder struct {
	splitter NameSplitter
	geocoder Geocoder
	logger   *slog.Logger
}

// NewBuilder creates a profile Builder.
func NewBuilder(splitter NameSplitter, geocoder Geocoder, logger *slog.Logger) *Builder {
	return &Builder{splitter: splitter, geocoder: geocoder, logger: logger}
}

// BuildProfile parses the document and resolves coordinates for every
// location. Returns nil when the document lacks the basic info section, the
// location sections, or when no location resolves to a coordinate.
func (b *Builder) BuildProfile(ctx context.Context, md string) *domain.Profile {
	if strings.TrimSpace(md) == "" {
		return nil
	}
	info := ParseBasicInfo(md)
	sections := ParseLocationSections(md)
	if len(info) == 0 || len(sections) == 0 {
		return nil
	}

	nameRaw := info["姓名"]
	name := nameRaw
	if idx := strings.Index(nameRaw, "（"); idx >= 0 {
		name = strings.TrimSpace(nameRaw[:idx])
	}
	if name == "" {
		name = strings.TrimSpace(nameRaw)
	}

	title := ExtractTitleFromText(info["历史地位"])
	if title == "" {
		title = ExtractTitleFromText(nameRaw)
	}

	description := ParseOverview(md)
	if description == "" {
		var parts []string
		for _, t := range []string{info["历史地位"], info["主要成就"]} {
			if t != "" {
				parts = append(parts, t)
			}
		}
		description = strings.Join(parts, "；")
	}
	description = strings.TrimSpace(trailingDashRe.ReplaceAllString(description, ""))

	birthDate, birthLoc := ParseDateLocation(info["出生"], []string{"出生于", "生于"})
	deathDate, deathLoc := ParseDateLocation(info["去世"], []string{"卒于", "去世于", "卒"})

	// Warm the split cache in one batch before per-location lookups.
	locTexts := []string{birthLoc, deathLoc}
	for _, sec := range sections {
		text := sec.Location
		if text == "" {
			text = sec.Name
		}
		locTexts = append(locTexts, text)
	}
	b.splitter.BatchSplit(ctx, locTexts)

	birthModern := b.splitter.Split(ctx, birthLoc).Modern
	deathModern := b.splitter.Split(ctx, deathLoc).Modern
	birth := b.lifeEvent(ctx, birthDate, birthLoc, birthModern)
	death := b.lifeEvent(ctx, deathDate, deathLoc, deathModern)

	dynasty := strings.TrimSpace(firstNonEmpty(info["时代"], info["朝代"]))
	person := domain.PersonInfo{
		Name:        firstNonEmpty(name, "人物"),
		Title:       title,
		Description: description,
		Quote:       title,
		Dynasty:     dynasty,
		Birthplace:  birthLoc,
		Birth:       birth,
		Death:       death,
		Lifespan:    info["享年"],
	}

	coordsCache := ParseCoordsTable(md)
	var locations []domain.LocationEvent
	for _, sec := range sections {
		locText := firstNonEmpty(sec.Location, sec.Name)
		pair := b.splitter.Split(ctx, locText)
		geoName := placename.PickGeocodeName(firstNonEmpty(pair.Modern, locText, sec.Name, pair.Ancient))

		coord, ok := lookupCoord(coordsCache, geoName)
		if !ok && pair.Modern != "" {
			coord, ok = lookupCoord(coordsCache, placename.PickGeocodeName(pair.Modern))
		}
		if !ok && locText != "" {
			coord, ok = lookupCoord(coordsCache, placename.PickGeocodeName(locText))
		}
		if !ok && sec.Name != "" {
			coord, ok = lookupCoord(coordsCache, placename.PickGeocodeName(sec.Name))
		}
		if !ok && geoName != "" {
			// Only fall back to online geocoding when the coordinate table
			// has no answer.
			coord, ok = b.geocoder.Resolve(ctx, geoName)
		}
		if !ok {
			b.logger.DebugContext(ctx, "location skipped, no coordinate", "name", sec.Name)
			continue
		}

		locations = append(locations, domain.LocationEvent{
			Name:         firstNonEmpty(sec.Name, geoName),
			AncientName:  firstNonEmpty(pair.Ancient, sec.Name),
			ModernName:   firstNonEmpty(pair.Modern, locText),
			Lat:          coord.Lat,
			Lng:          coord.Lng,
			Type:         sec.Type,
			Event:        sec.Event,
			Time:         sec.Time,
			Duration:     sec.Duration,
			Significance: sec.Significance,
			Works:        ExtractWorks(sec.Event + " " + sec.Significance),
			QuoteLines:   SplitQuoteLines(sec.Quotes),
		})
	}
	if len(locations) == 0 {
		return nil
	}

	for _, loc := range locations {
		if len(loc.QuoteLines) > 0 {
			person.Quote = loc.QuoteLines[0]
			break
		}
	}

	return &domain.Profile{
		Person:    person,
		Locations: locations,
		MapStyle:  domain.DefaultMapStyle(),
	}
}

func (b *Builder) lifeEvent(ctx context.Context, date, loc, modern string) domain.LifeEvent {
	ev := domain.LifeEvent{Date: date, Location: loc}
	geoName := placename.PickGeocodeName(firstNonEmpty(modern, loc))
	if geoName == "" {
		return ev
	}
	if coord, ok := b.geocoder.Resolve(ctx, geoName); ok {
		lat, lng := coord.Lat, coord.Lng
		ev.Lat, ev.Lng = &lat, &lng
	}
	return ev
}

func lookupCoord(cache map[string]geo.Coord, name string) (geo.Coord, bool) {
	if name == "" {
		return geo.Coord{}, false
	}
	coord, ok := cache[name]
	return coord, ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
