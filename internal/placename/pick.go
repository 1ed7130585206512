package placename

import (
	"regexp"
	"strings"
)

var (
	modernHintRe = regexp.MustCompile(`今([^）)]+)`)
	parenRe      = regexp.MustCompile(`[（(].*?[)）]`)
)

// separators order matters: the first one present wins.
var separators = []string{" / ", "/", "或", "、", "，", ",", "；", ";"}

// PickGeocodeName chooses the most geocodable candidate from a place
// description. Text after a 今 marker is preferred since it names the modern
// location; otherwise the text before the first separator is used with any
// parenthesized notes removed.
func PickGeocodeName(text string) string {
	if text == "" {
		return ""
	}
	if m := modernHintRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, sep := range separators {
		if idx := strings.Index(text, sep); idx >= 0 {
			text = text[:idx]
			break
		}
	}
	return strings.TrimSpace(parenRe.ReplaceAllString(text, ""))
}

// Clean removes parenthesized notes from a place name, keeping the core name.
func Clean(text string) string {
	return strings.TrimSpace(parenRe.ReplaceAllString(text, ""))
}
