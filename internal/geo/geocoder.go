package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yunhanz/storymap-api/internal/config"
)

const userAgent = "map-story/1.0"

// endpoint describes one public geocoding service in the fallback chain.
type endpoint struct {
	// urlFor builds the request URL for a query. Returns "" to skip the
	// endpoint (e.g. missing API key).
	urlFor func(g *Geocoder, query string, forceCN bool) string
	// parse extracts a coordinate from the response body.
	parse func(body []byte) (Coord, bool)
}

var endpoints = []endpoint{
	{
		urlFor: func(g *Geocoder, query string, forceCN bool) string {
			u := "https://nominatim.openstreetmap.org/search?format=json&limit=1&q=" + url.QueryEscape(query)
			if forceCN {
				u += "&countrycodes=cn"
			}
			return u
		},
		parse: parseListResponse,
	},
	{
		urlFor: func(g *Geocoder, query string, forceCN bool) string {
			if g.mapscoKey == "" {
				return ""
			}
			u := "https://geocode.maps.co/search?q=" + url.QueryEscape(query) +
				"&api_key=" + url.QueryEscape(g.mapscoKey)
			if forceCN {
				u += "&countrycodes=cn"
			}
			return u
		},
		parse: parseListResponse,
	},
	{
		urlFor: func(g *Geocoder, query string, forceCN bool) string {
			return "https://photon.komoot.io/api/?limit=1&q=" + url.QueryEscape(query)
		},
		parse: parsePhotonResponse,
	},
}

// Geocoder resolves place names to coordinates using a chain of public
// geocoding services, with an in-memory cache in front.
type Geocoder struct {
	client        *http.Client
	logger        *slog.Logger
	cache         *Cache
	mapscoKey     string
	maxConcurrent int
}

// NewGeocoder creates a Geocoder from configuration.
func NewGeocoder(cfg config.GeocodeConfig, logger *slog.Logger) *Geocoder {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 8
	}
	return &Geocoder{
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
		cache:         NewCache(),
		mapscoKey:     cfg.MapscoAPIKey,
		maxConcurrent: maxConcurrent,
	}
}

// Resolve returns the coordinate for a place name, or false when every
// candidate query fails on every endpoint. Results are cached under both the
// original name and the successful candidate query.
func (g *Geocoder) Resolve(ctx context.Context, name string) (Coord, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Coord{}, false
	}
	if coord, ok := g.cache.Get(name); ok {
		return coord, true
	}

	looksCN := looksChinese(name)
	forceCN := looksCN && !looksForeignLocation(name)
	for _, cand := range buildCandidates(name) {
		coord, ok := g.resolveCandidate(ctx, cand, forceCN)
		if !ok {
			continue
		}
		g.cache.Put(name, coord)
		g.cache.Put(cand, coord)
		return coord, true
	}
	return Coord{}, false
}

// ResolveAll geocodes a batch of place names with bounded concurrency and
// returns the subset that resolved.
func (g *Geocoder) ResolveAll(ctx context.Context, names []string) map[string]Coord {
	out := make(map[string]Coord, len(names))
	if len(names) == 0 {
		return out
	}

	workers := g.maxConcurrent
	if len(names) < workers {
		workers = len(names)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
	)
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if coord, ok := g.Resolve(ctx, name); ok {
				mu.Lock()
				out[name] = coord
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()
	return out
}

func (g *Geocoder) resolveCandidate(ctx context.Context, query string, forceCN bool) (Coord, bool) {
	for _, ep := range endpoints {
		u := ep.urlFor(g, query, forceCN)
		if u == "" {
			continue
		}
		body, err := g.fetch(ctx, u)
		if err != nil {
			g.logger.WarnContext(ctx, "geocode request failed", "query", query, "error", err)
			continue
		}
		coord, ok := ep.parse(body)
		if !ok || !coord.Valid() {
			continue
		}
		if forceCN && !coord.InsideChina() {
			continue
		}
		return coord, true
	}
	return Coord{}, false
}

func (g *Geocoder) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// parseListResponse handles the Nominatim-style JSON array, where lat/lon are
// strings.
func parseListResponse(body []byte) (Coord, bool) {
	var items []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
		return Coord{}, false
	}
	lat, err1 := strconv.ParseFloat(items[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(items[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return Coord{}, false
	}
	return Coord{Lat: lat, Lng: lng}, true
}

// parsePhotonResponse handles the Photon GeoJSON shape, where coordinates are
// [lng, lat].
func parsePhotonResponse(body []byte) (Coord, bool) {
	var payload struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Features) == 0 {
		return Coord{}, false
	}
	coords := payload.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return Coord{}, false
	}
	return Coord{Lat: coords[1], Lng: coords[0]}, true
}

var hanRe = regexp.MustCompile(`\p{Han}`)

func looksChinese(s string) bool {
	return hanRe.MatchString(s)
}

// foreignMarkers flags place names that are Chinese text but name a location
// outside China, so the China-only bias does not apply to them.
var foreignMarkers = []string{
	"斯坦", "共和国", "王国", "联邦",
	"俄罗斯", "美国", "英国", "法国", "德国", "日本", "韩国", "朝鲜",
	"越南", "泰国", "缅甸", "老挝", "柬埔寨", "印度", "巴基斯坦",
	"阿富汗", "伊朗", "伊拉克", "土耳其", "埃及", "澳大利亚", "新西兰",
	"加拿大", "墨西哥", "巴西", "阿根廷", "西班牙", "意大利", "葡萄牙",
	"荷兰", "比利时", "瑞士", "瑞典", "挪威", "芬兰", "丹麦", "爱尔兰",
	"以色列", "沙特", "阿联酋", "卡塔尔", "南非", "吉尔吉斯斯坦",
}

func looksForeignLocation(s string) bool {
	for _, m := range foreignMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// buildCandidates expands a place name into query variants. Chinese names that
// do not look foreign also get China-prefixed and China-suffixed forms, which
// improves hit rates for historical place names.
func buildCandidates(name string) []string {
	base := strings.TrimSpace(name)
	if base == "" {
		return nil
	}
	items := []string{base}
	if looksChinese(base) &&
		!strings.Contains(base, "中国") &&
		!strings.Contains(base, "China") &&
		!looksForeignLocation(base) {
		items = append(items, "中国"+base, base+" 中国")
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
