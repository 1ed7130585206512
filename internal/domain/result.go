package domain

// StepTiming records the wall-clock duration of one pipeline stage,
// formatted like "1.42s" for direct display in polling clients.
type StepTiming struct {
	Label    string `json:"label"`
	Duration string `json:"duration"`
}

// ExportPaths points at the derived artifacts written next to a map page.
type ExportPaths struct {
	GeoJSON string `json:"geojson,omitempty"`
	CSV     string `json:"csv,omitempty"`
}

// PersonResult is the per-person outcome of the enrichment pipeline.
// Failures are values, not errors: a not-ok result carries Error and leaves
// sibling persons in the same task untouched.
type PersonResult struct {
	OK           bool              `json:"ok"`
	Person       string            `json:"person"`
	MarkdownPath string            `json:"markdown_path,omitempty"`
	HTMLPath     string            `json:"html_path,omitempty"`
	Steps        []StepTiming      `json:"steps,omitempty"`
	Duration     map[string]string `json:"duration,omitempty"`
	Cached       bool              `json:"cached"`
	Warning      string            `json:"warning,omitempty"`
	Exports      *ExportPaths      `json:"exports,omitempty"`
	Error        string            `json:"error,omitempty"`

	// Profile is carried for the merge step and exports; it is not part of
	// the JSON surface exposed to polling clients.
	Profile *Profile `json:"-"`
}

// Overlap is one location shared by at least two people in a merged view.
type Overlap struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PersonFiles lists the artifact paths for one successful person, with paths
// made relative to the output root.
type PersonFiles struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	GeoJSON  string `json:"geojson,omitempty"`
	CSV      string `json:"csv,omitempty"`
}

// MergedFiles lists the artifacts of a multi-person merged view.
type MergedFiles struct {
	HTML    string `json:"html"`
	GeoJSON string `json:"geojson,omitempty"`
	CSV     string `json:"csv,omitempty"`
}

// TaskSummary is the success payload of a completed task.
type TaskSummary struct {
	OK            bool           `json:"ok"`
	People        []string       `json:"people"`
	Results       []PersonResult `json:"results"`
	MultiHTMLPath string         `json:"multi_html_path,omitempty"`
	MultiExports  *ExportPaths   `json:"multi_exports,omitempty"`
	Overlaps      []Overlap      `json:"overlaps"`
	Duration      string         `json:"duration"`
	Conclusion    string         `json:"conclusion"`
	Files         []PersonFiles  `json:"files"`
	Multi         *MergedFiles   `json:"multi,omitempty"`
}
