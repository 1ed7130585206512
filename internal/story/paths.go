package story

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MarkdownDir holds generated biography markdown, one file per person.
	MarkdownDir = "story"
	// HTMLDir holds rendered map pages and exports.
	HTMLDir = "story_map"
)

var unsafeNameRe = regexp.MustCompile(`[\\/:*?"<>|]`)

// SafeName makes a person name usable as a file name. Empty input maps to
// "map".
func SafeName(text string) string {
	safe := strings.TrimSpace(unsafeNameRe.ReplaceAllString(text, "_"))
	if safe == "" {
		return "map"
	}
	return safe
}

// Paths returns the markdown and HTML file paths for a person under root.
func Paths(root, person string) (mdPath, htmlPath string) {
	safe := SafeName(person)
	mdPath = filepath.Join(root, MarkdownDir, safe+".md")
	htmlPath = filepath.Join(root, HTMLDir, safe+".html")
	return mdPath, htmlPath
}

// ReadText returns the file content, or "" when the file is unreadable.
func ReadText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// WriteText writes content to path, creating parent directories as needed.
func WriteText(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
