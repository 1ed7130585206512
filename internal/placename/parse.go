package placename

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yunhanz/storymap-api/internal/generation"
)

// parseBatch extracts an answer map from a raw batch response. Models deviate
// from the requested array-of-objects contract often enough that three shapes
// are tolerated: a list of objects keyed text/loc/name/source, a list of
// [text, ancient, modern] triples, and an object keyed by place text. Anything
// unparseable yields an empty map.
func parseBatch(raw string, expected []string) map[string]Pair {
	block, ok := generation.ExtractJSONBlock(raw)
	if !ok {
		block = strings.TrimSpace(raw)
	}
	var data any
	if err := json.Unmarshal([]byte(block), &data); err != nil {
		return map[string]Pair{}
	}

	mapping := make(map[string]Pair)
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			switch it := item.(type) {
			case map[string]any:
				text := firstString(it, "text", "loc", "name", "source")
				if text == "" && len(expected) == 1 {
					text = expected[0]
				}
				if text == "" {
					continue
				}
				mapping[text] = Pair{
					Ancient: asString(it["ancient"]),
					Modern:  asString(it["modern"]),
				}
			case []any:
				if len(it) < 3 {
					continue
				}
				text := asString(it[0])
				if text == "" {
					continue
				}
				mapping[text] = Pair{Ancient: asString(it[1]), Modern: asString(it[2])}
			}
		}
	case map[string]any:
		for key, val := range v {
			text := strings.TrimSpace(key)
			if text == "" {
				continue
			}
			var pair Pair
			switch value := val.(type) {
			case map[string]any:
				pair = Pair{Ancient: asString(value["ancient"]), Modern: asString(value["modern"])}
			case []any:
				if len(value) > 0 {
					pair.Ancient = asString(value[0])
				}
				if len(value) > 1 {
					pair.Modern = asString(value[1])
				}
			default:
				pair.Modern = asString(val)
			}
			mapping[text] = pair
		}
	}
	return mapping
}

// parseSingle extracts a Pair from a raw single-split response, expected to be
// a bare JSON object with ancient/modern keys.
func parseSingle(raw string) Pair {
	block, ok := generation.ExtractJSONBlock(raw)
	if !ok {
		block = strings.TrimSpace(raw)
	}
	var data struct {
		Ancient string `json:"ancient"`
		Modern  string `json:"modern"`
	}
	if err := json.Unmarshal([]byte(block), &data); err != nil {
		return Pair{}
	}
	return Pair{
		Ancient: strings.TrimSpace(data.Ancient),
		Modern:  strings.TrimSpace(data.Modern),
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(m[key]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
