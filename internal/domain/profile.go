package domain

// LocationType categorizes a location event on a person's track.
type LocationType string

// Possible location type values
const (
	LocationNormal LocationType = "normal"
	LocationBirth  LocationType = "birth"
	LocationDeath  LocationType = "death"
)

// LifeEvent holds a dated place reference, used for birth and death records.
// Lat/Lng are nil when the place could not be geocoded.
type LifeEvent struct {
	Date     string   `json:"date"`
	Location string   `json:"location"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

// PersonInfo is the biographical header of a profile.
type PersonInfo struct {
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Quote       string    `json:"quote"`
	Dynasty     string    `json:"dynasty"`
	Birthplace  string    `json:"birthplace"`
	Avatar      string    `json:"avatar"`
	Birth       LifeEvent `json:"birth"`
	Death       LifeEvent `json:"death"`
	Lifespan    string    `json:"lifespan"`
}

// LocationEvent is one geocoded stop on a person's life track, carrying the
// historical and modern names alongside the narrative fields extracted from
// the biography.
type LocationEvent struct {
	Name         string       `json:"name"`
	AncientName  string       `json:"ancientName"`
	ModernName   string       `json:"modernName"`
	Lat          float64      `json:"lat"`
	Lng          float64      `json:"lng"`
	Type         LocationType `json:"type"`
	Event        string       `json:"event"`
	Time         string       `json:"time"`
	Duration     string       `json:"duration"`
	Significance string       `json:"significance"`
	Works        []string     `json:"works"`
	QuoteLines   []string     `json:"quoteLines"`
}

// MarkerStyle describes how one category of location marker is drawn.
type MarkerStyle struct {
	IconURL string `json:"iconUrl"`
	Color   string `json:"color"`
}

// MapStyle carries the rendering defaults for a single-person map.
type MapStyle struct {
	PathColor string                 `json:"pathColor"`
	Markers   map[string]MarkerStyle `json:"markers"`
}

// Profile aggregates everything needed to render one person's map page.
// A Profile is built once per person per task and never mutated afterwards.
type Profile struct {
	Person    PersonInfo      `json:"person"`
	Locations []LocationEvent `json:"locations"`
	MapStyle  MapStyle        `json:"mapStyle"`
	Markdown  string          `json:"markdown,omitempty"`
}

// DefaultMapStyle returns the marker palette used for single-person maps.
func DefaultMapStyle() MapStyle {
	return MapStyle{
		PathColor: "#1e40af",
		Markers: map[string]MarkerStyle{
			"normal": {
				IconURL: "https://a.amap.com/jsapi_demos/static/demo-center/icons/poi-marker-default.png",
				Color:   "#3498db",
			},
			"birth": {
				IconURL: "https://a.amap.com/jsapi_demos/static/demo-center/icons/poi-marker-green.png",
				Color:   "#2ecc71",
			},
			"death": {
				IconURL: "https://a.amap.com/jsapi_demos/static/demo-center/icons/poi-marker-red.png",
				Color:   "#e74c3c",
			},
		},
	}
}

// IsValidCoord reports whether lat/lng form a plausible WGS84/GCJ-02 pair.
func IsValidCoord(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
