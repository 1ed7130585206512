package pipeline

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/yunhanz/storymap-api/internal/domain"
	"github.com/yunhanz/storymap-api/internal/generation"
	"github.com/yunhanz/storymap-api/internal/render"
	"github.com/yunhanz/storymap-api/internal/story"
)

// generateForPerson runs the per-person enrichment stages: biography
// generation, distance annotation, geocoding, page rendering, and file
// writes. Each stage reports progress and its timing ends up in the result.
func (p *Pipeline) generateForPerson(ctx context.Context, person string, progress func(string)) domain.PersonResult {
	mdPath, htmlPath := story.Paths(p.root, person)

	if p.allowCache && fileExists(mdPath) && fileExists(htmlPath) {
		if result, ok := p.serveCached(ctx, person, mdPath, htmlPath, progress); ok {
			return result
		}
	}

	start := time.Now()
	progress(person + " 生平生成")
	stepStart := time.Now()
	md, err := p.generator.GenerateBiography(ctx, person)
	markdownTime := time.Since(stepStart)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, generation.ErrGenerationEmpty) {
			msg = "未取得内容"
		}
		return domain.PersonResult{OK: false, Person: person, Error: msg}
	}

	// The distance bullet depends on a coordinate table, which normally only
	// exists after geocoding; it is computed first so a model-provided table
	// is honored as-is.
	if km, ok := story.ComputeTotalDistanceKm(md); ok {
		md = story.InsertDistanceIntro(md, km)
	}

	progress(person + " 地理编码")
	stepStart = time.Now()
	md = story.AppendCoordsSection(ctx, md, p.geocoder)
	geocodeTime := time.Since(stepStart)

	p.logQualityReport(ctx, person, md)
	if err := story.WriteText(mdPath, md); err != nil {
		return domain.PersonResult{OK: false, Person: person, Error: err.Error()}
	}

	progress(person + " 地图渲染")
	stepStart = time.Now()
	profile := p.builder.BuildProfile(ctx, md)
	var html, warning string
	if profile != nil {
		profile.Markdown = md
		html, err = render.ProfileHTML(profile)
		if err != nil {
			warning = err.Error()
		}
	}
	if html == "" {
		if warning == "" && profile == nil {
			warning = "地图渲染失败"
		}
		p.logger.WarnContext(ctx, "profile render degraded", "person", person, "warning", warning)
		html = render.FallbackHTML(person)
	}
	renderTime := time.Since(stepStart)

	progress(person + " 文件写入")
	stepStart = time.Now()
	if err := story.WriteText(htmlPath, html); err != nil {
		return domain.PersonResult{OK: false, Person: person, Error: err.Error()}
	}
	saveTime := time.Since(stepStart)
	total := time.Since(start)

	result := domain.PersonResult{
		OK:           true,
		Person:       person,
		MarkdownPath: mdPath,
		HTMLPath:     htmlPath,
		Steps: []domain.StepTiming{
			{Label: "生平生成", Duration: formatSeconds(markdownTime)},
			{Label: "地理编码", Duration: formatSeconds(geocodeTime)},
			{Label: "地图渲染", Duration: formatSeconds(renderTime)},
			{Label: "文件写入", Duration: formatSeconds(saveTime)},
		},
		Duration: map[string]string{
			"markdown": formatSeconds(markdownTime),
			"geocode":  formatSeconds(geocodeTime),
			"render":   formatSeconds(renderTime),
			"save":     formatSeconds(saveTime),
			"total":    formatSeconds(total),
		},
		Profile: profile,
	}
	if warning != "" {
		result.Warning = warning
	}
	return result
}

// serveCached reuses a previous generation when the markdown still yields a
// profile. A page missing the current export features is re-rendered from the
// cached markdown before being served.
func (p *Pipeline) serveCached(ctx context.Context, person, mdPath, htmlPath string, progress func(string)) (domain.PersonResult, bool) {
	md := story.ReadText(mdPath)
	profile := p.builder.BuildProfile(ctx, md)
	if profile == nil {
		return domain.PersonResult{}, false
	}

	cachedHTML := story.ReadText(htmlPath)
	if !render.IsFreshHTML(cachedHTML, profile.Person.Birth.Date, profile.Person.Death.Date) {
		profile.Markdown = md
		if html, err := render.ProfileHTML(profile); err == nil {
			if err := story.WriteText(htmlPath, html); err != nil {
				p.logger.WarnContext(ctx, "cached page rewrite failed", "person", person, "error", err)
			}
		}
	}

	progress(person + " 命中缓存")
	return domain.PersonResult{
		OK:           true,
		Person:       person,
		MarkdownPath: mdPath,
		HTMLPath:     htmlPath,
		Steps:        []domain.StepTiming{{Label: "命中缓存", Duration: "0.00s"}},
		Duration:     map[string]string{"total": "0.00s"},
		Cached:       true,
		Profile:      profile,
	}, true
}

func (p *Pipeline) logQualityReport(ctx context.Context, person, md string) {
	metrics := story.CollectQualityMetrics(md)
	issues := story.ValidateQuality(md)
	p.logger.InfoContext(ctx, "数据质量检查",
		"person", person,
		"timeline_rows", metrics.TimelineRows,
		"places", metrics.Places,
		"coords", metrics.Coords,
		"locations", metrics.Locations,
		"issues", issues)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
