package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/yunhanz/storymap-api/internal/domain"
	"github.com/yunhanz/storymap-api/internal/generation"
	"github.com/yunhanz/storymap-api/internal/render"
	"github.com/yunhanz/storymap-api/internal/story"
	"github.com/yunhanz/storymap-api/internal/task"
)

// colorPalette assigns trajectory colors to people in submission order,
// wrapping around when a task names more people than there are colors.
var colorPalette = [...]string{"#1e40af", "#c2410c", "#15803d", "#7c3aed", "#0f766e", "#b91c1c"}

// mergedViewTitle names the combined page produced for multi-person tasks.
const mergedViewTitle = "多人物合并视图"

// Pipeline executes map-generation tasks. It is safe for concurrent use by
// multiple scheduler workers.
type Pipeline struct {
	generator generation.Generator
	builder   *story.Builder
	geocoder  story.Geocoder
	store     *task.Store
	logger    *slog.Logger

	// root is the directory holding the story/ and story_map/ trees.
	root string

	// allowCache serves previously generated artifacts when they are still
	// consistent with the current page format.
	allowCache bool
}

// New creates a Pipeline writing its artifacts under root.
func New(
	generator generation.Generator,
	builder *story.Builder,
	geocoder story.Geocoder,
	store *task.Store,
	root string,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		generator:  generator,
		builder:    builder,
		geocoder:   geocoder,
		store:      store,
		logger:     logger,
		root:       root,
		allowCache: true,
	}
}

// SetAllowCache toggles artifact reuse. Used by the one-shot CLI to force
// regeneration.
func (p *Pipeline) SetAllowCache(allow bool) {
	p.allowCache = allow
}

// Run executes one task end to end. A nil return means the task reached a
// terminal state on its own (completed, or failed with a recorded reason); a
// non-nil error tells the scheduler to mark the task failed.
func (p *Pipeline) Run(ctx context.Context, taskID, text string) error {
	start := time.Now()
	p.logger.InfoContext(ctx, "task started", "task_id", taskID, "text", text)
	p.store.Update(taskID, func(t *task.Task) { t.Status = task.StatusRunning })
	p.store.AppendProgress(taskID, "人物识别", "")

	ctx = generation.ContextWithEvents(ctx, func(message string) {
		p.store.AppendProgress(taskID, "模型日志", message)
	})

	targets, err := p.generator.ExtractFigures(ctx, text)
	if err != nil {
		return fmt.Errorf("figure extraction failed: %w", err)
	}
	if len(targets) == 0 {
		p.failTask(ctx, taskID, "未识别到历史人物")
		return nil
	}

	progress := func(msg string) { p.store.AppendProgress(taskID, msg, "") }

	results := make([]domain.PersonResult, 0, len(targets))
	var people []render.PersonLayer
	for idx, person := range targets {
		result := p.generateForPerson(ctx, person, progress)
		if result.OK && result.Profile != nil {
			people = append(people, render.PersonLayer{
				Person:    result.Profile.Person,
				Locations: result.Profile.Locations,
				MapStyle:  result.Profile.MapStyle,
				Color:     colorPalette[idx%len(colorPalette)],
			})
			exports, err := p.ensureProfileExports(result.Profile, person)
			if err != nil {
				p.logger.WarnContext(ctx, "export write failed", "person", person, "error", err)
			} else {
				result.Exports = &exports
			}
		}
		results = append(results, result)
	}

	multi := len(people) > 1
	var overlaps []domain.Overlap
	var multiHTMLPath string
	var multiExports *domain.ExportPaths
	if multi {
		overlaps = computeOverlaps(people)
		p.store.AppendProgress(taskID, "合并视图渲染", "")
		htmlPath, exports, err := p.renderMergedView(taskID, people, overlaps)
		if err != nil {
			p.logger.WarnContext(ctx, "merged view failed", "task_id", taskID, "error", err)
		} else {
			multiHTMLPath = htmlPath
			multiExports = &exports
		}
	}

	summary := p.buildSummary(results, targets, overlaps, multiHTMLPath, multiExports, time.Since(start), multi)

	p.store.AppendProgress(taskID, "完成", "")
	p.store.Update(taskID, func(t *task.Task) {
		t.Status = task.StatusCompleted
		t.Result = &summary
	})
	p.logger.InfoContext(ctx, "task completed", "task_id", taskID, "duration", summary.Duration)
	return nil
}

// failTask records a domain-level failure: the task ends failed with the
// reason in both the error field and the progress log.
func (p *Pipeline) failTask(ctx context.Context, taskID, reason string) {
	p.store.Update(taskID, func(t *task.Task) {
		t.Status = task.StatusFailed
		t.Error = reason
	})
	p.store.AppendProgress(taskID, "失败", reason)
	p.store.AppendProgress(taskID, "完成", "失败")
	p.logger.WarnContext(ctx, "task failed", "task_id", taskID, "error", reason)
}

func (p *Pipeline) buildSummary(
	results []domain.PersonResult,
	targets []string,
	overlaps []domain.Overlap,
	multiHTMLPath string,
	multiExports *domain.ExportPaths,
	elapsed time.Duration,
	multi bool,
) domain.TaskSummary {
	anyOK := false
	for _, r := range results {
		if r.OK {
			anyOK = true
			break
		}
	}

	summary := domain.TaskSummary{
		OK:            anyOK,
		People:        targets,
		Results:       results,
		MultiHTMLPath: multiHTMLPath,
		MultiExports:  multiExports,
		Overlaps:      overlaps,
		Duration:      formatSeconds(elapsed),
		Conclusion:    buildConclusion(results, multi),
		Files:         []domain.PersonFiles{},
	}
	for _, r := range results {
		if !r.OK {
			continue
		}
		files := domain.PersonFiles{
			Markdown: p.relativePath(r.MarkdownPath),
			HTML:     p.relativePath(r.HTMLPath),
		}
		if r.Exports != nil {
			files.GeoJSON = p.relativePath(r.Exports.GeoJSON)
			files.CSV = p.relativePath(r.Exports.CSV)
		}
		summary.Files = append(summary.Files, files)
	}
	if multiHTMLPath != "" {
		merged := &domain.MergedFiles{HTML: p.relativePath(multiHTMLPath)}
		if multiExports != nil {
			merged.GeoJSON = p.relativePath(multiExports.GeoJSON)
			merged.CSV = p.relativePath(multiExports.CSV)
		}
		summary.Multi = merged
	}
	return summary
}

func (p *Pipeline) relativePath(path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return path
	}
	return rel
}

// buildConclusion summarizes the outcome in one display string.
func buildConclusion(results []domain.PersonResult, multi bool) string {
	ok, failed := 0, 0
	for _, r := range results {
		if r.OK {
			ok++
		} else {
			failed++
		}
	}
	if multi {
		return fmt.Sprintf("合并视图完成：人物 %d，失败 %d", ok, failed)
	}
	if ok > 0 {
		return fmt.Sprintf("生成完成：人物 %d，失败 %d", ok, failed)
	}
	return "未生成成功"
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
