package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yunhanz/storymap-api/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	profileTemplate  = mustTemplate("templates/profile.html")
	multiTemplate    = mustTemplate("templates/multi.html")
	fallbackTemplate = mustTemplate("templates/fallback.html")
)

func mustTemplate(name string) string {
	data, err := templateFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("render: missing embedded template %s: %v", name, err))
	}
	return string(data)
}

// PersonLayer is one person's contribution to the merged view, including the
// assigned trajectory color.
type PersonLayer struct {
	Person    domain.PersonInfo      `json:"person"`
	Locations []domain.LocationEvent `json:"locations"`
	MapStyle  domain.MapStyle        `json:"mapStyle"`
	Color     string                 `json:"color"`
}

// MultiView is the payload of the merged multi-person page.
type MultiView struct {
	Title    string           `json:"title"`
	People   []PersonLayer    `json:"people"`
	Overlaps []domain.Overlap `json:"overlaps"`
}

// ProfileHTML renders the standalone person page with the profile embedded as
// its data payload.
func ProfileHTML(profile *domain.Profile) (string, error) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile payload: %w", err)
	}
	title := "人生足迹地图"
	if profile.Person.Name != "" {
		title = profile.Person.Name + "的人生足迹地图"
	}
	html := strings.ReplaceAll(profileTemplate, "__TITLE__", title)
	return strings.Replace(html, "__DATA__", string(payload), 1), nil
}

// MultiHTML renders the merged view page.
func MultiHTML(view MultiView) (string, error) {
	payload, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("failed to marshal multi view payload: %w", err)
	}
	title := view.Title
	if title == "" {
		title = "多人物合并视图"
	}
	html := strings.ReplaceAll(multiTemplate, "__TITLE__", title)
	return strings.Replace(html, "__DATA__", string(payload), 1), nil
}

// FallbackHTML renders the degraded basic map page used when the document
// lacks enough structure for a full profile page.
func FallbackHTML(title string) string {
	return strings.ReplaceAll(fallbackTemplate, "__TITLE__", title)
}

// IsFreshHTML reports whether a previously rendered page carries the current
// export features: the markdown export button and, when known, the person's
// birth and death dates inside the embedded payload. Stale pages are
// re-rendered by the pipeline.
func IsFreshHTML(html, birthDate, deathDate string) bool {
	if !strings.Contains(html, `data-export="markdown"`) {
		return false
	}
	if birthDate != "" && !strings.Contains(html, `"birth":{"date":"`+birthDate+`"`) {
		return false
	}
	if deathDate != "" && !strings.Contains(html, `"death":{"date":"`+deathDate+`"`) {
		return false
	}
	return true
}
