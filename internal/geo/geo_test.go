package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Coord{Lat: 39.9, Lng: 116.4}.Valid())
	assert.True(t, Coord{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Coord{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Coord{Lat: 0, Lng: -181}.Valid())
}

func TestCoordInsideChina(t *testing.T) {
	t.Parallel()

	// Beijing.
	assert.True(t, Coord{Lat: 39.9042, Lng: 116.4074}.InsideChina())
	// Ürümqi, near the western edge of the box.
	assert.True(t, Coord{Lat: 43.8256, Lng: 87.6168}.InsideChina())
	// Tokyo is east of the box.
	assert.False(t, Coord{Lat: 35.6762, Lng: 139.6503}.InsideChina())
	// Moscow is north of the box.
	assert.False(t, Coord{Lat: 55.7558, Lng: 37.6173}.InsideChina())
	// Out-of-range pairs are never inside.
	assert.False(t, Coord{Lat: 200, Lng: 100}.InsideChina())
}

func TestHaversineKm(t *testing.T) {
	t.Parallel()

	beijing := Coord{Lat: 39.9042, Lng: 116.4074}
	shanghai := Coord{Lat: 31.2304, Lng: 121.4737}

	km := HaversineKm(beijing, shanghai)
	assert.InDelta(t, 1067, km, 15, "Beijing to Shanghai is roughly 1067 km")
	assert.Zero(t, HaversineKm(beijing, beijing))
}

func TestTotalDistanceKm(t *testing.T) {
	t.Parallel()

	beijing := Coord{Lat: 39.9042, Lng: 116.4074}
	nanjing := Coord{Lat: 32.0603, Lng: 118.7969}
	shanghai := Coord{Lat: 31.2304, Lng: 121.4737}

	assert.Zero(t, TotalDistanceKm(nil))
	assert.Zero(t, TotalDistanceKm([]Coord{beijing}))

	total := TotalDistanceKm([]Coord{beijing, nanjing, shanghai})
	legs := HaversineKm(beijing, nanjing) + HaversineKm(nanjing, shanghai)
	assert.InDelta(t, legs, total, 0.001)
}

func TestBuildCandidates(t *testing.T) {
	t.Parallel()

	t.Run("chinese name gets china-biased variants", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"洛阳", "中国洛阳", "洛阳 中国"}, buildCandidates("洛阳"))
	})

	t.Run("name already mentioning china is not expanded", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"中国洛阳"}, buildCandidates("中国洛阳"))
	})

	t.Run("foreign-looking chinese name is not expanded", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"吉尔吉斯斯坦"}, buildCandidates("吉尔吉斯斯坦"))
	})

	t.Run("latin name passes through", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"Rome"}, buildCandidates("Rome"))
	})

	t.Run("empty input yields nothing", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, buildCandidates("   "))
	})
}

func TestLooksForeignLocation(t *testing.T) {
	t.Parallel()

	assert.True(t, looksForeignLocation("碎叶城（今吉尔吉斯斯坦托克马克）"))
	assert.True(t, looksForeignLocation("日本京都"))
	assert.False(t, looksForeignLocation("长安"))
}

func TestParseListResponse(t *testing.T) {
	t.Parallel()

	coord, ok := parseListResponse([]byte(`[{"lat":"34.3416","lon":"108.9398"}]`))
	assert.True(t, ok)
	assert.InDelta(t, 34.3416, coord.Lat, 0.0001)
	assert.InDelta(t, 108.9398, coord.Lng, 0.0001)

	_, ok = parseListResponse([]byte(`[]`))
	assert.False(t, ok)

	_, ok = parseListResponse([]byte(`[{"lat":"abc","lon":"108"}]`))
	assert.False(t, ok)

	_, ok = parseListResponse([]byte(`not json`))
	assert.False(t, ok)
}

func TestParsePhotonResponse(t *testing.T) {
	t.Parallel()

	body := []byte(`{"features":[{"geometry":{"coordinates":[108.9398,34.3416]}}]}`)
	coord, ok := parsePhotonResponse(body)
	assert.True(t, ok)
	assert.InDelta(t, 34.3416, coord.Lat, 0.0001)
	assert.InDelta(t, 108.9398, coord.Lng, 0.0001)

	_, ok = parsePhotonResponse([]byte(`{"features":[]}`))
	assert.False(t, ok)

	_, ok = parsePhotonResponse([]byte(`{"features":[{"geometry":{"coordinates":[108.9398]}}]}`))
	assert.False(t, ok)
}

func TestCache(t *testing.T) {
	t.Parallel()

	cache := NewCache()
	_, ok := cache.Get("洛阳")
	assert.False(t, ok)

	cache.Put("洛阳", Coord{Lat: 34.6, Lng: 112.4})
	coord, ok := cache.Get("洛阳")
	assert.True(t, ok)
	assert.Equal(t, Coord{Lat: 34.6, Lng: 112.4}, coord)

	// Empty names are never stored.
	cache.Put("", Coord{Lat: 1, Lng: 1})
	_, ok = cache.Get("")
	assert.False(t, ok)
}
