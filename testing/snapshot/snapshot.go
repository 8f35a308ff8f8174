// Package snapshot compares apiary's rendered lipgloss/bubbletea output
// against golden files, after stripping the ANSI styling that would
// otherwise make every terminal-theme change look like a regression.
package snapshot

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"
)

// GoldenDir is where golden files live relative to the package under test.
const GoldenDir = "testdata/golden"

var (
	ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	oscRegex  = regexp.MustCompile(`\x1b\]8;;[^\x1b]*\x1b\\`)
)

// Snap asserts rendered output against golden files for one test.
type Snap struct {
	t         *testing.T
	goldenDir string
	update    bool
}

// New returns a Snap for t, reading UPDATE_GOLDEN=1 to decide whether
// Assert rewrites golden files instead of comparing against them.
func New(t *testing.T) *Snap {
	return &Snap{
		t:         t,
		goldenDir: GoldenDir,
		update:    os.Getenv("UPDATE_GOLDEN") == "1",
	}
}

// WithDir overrides the golden file directory.
func (s *Snap) WithDir(dir string) *Snap {
	s.goldenDir = dir
	return s
}

// Assert compares actual (after ANSI/whitespace normalization) against
// the golden file named name, or writes it when UPDATE_GOLDEN=1.
func (s *Snap) Assert(name, actual string) {
	s.t.Helper()

	goldenPath := filepath.Join(s.goldenDir, name+".golden")
	normalized := normalizeOutput(actual)

	if s.update {
		if err := os.MkdirAll(s.goldenDir, 0755); err != nil {
			s.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(goldenPath, []byte(normalized), 0644); err != nil {
			s.t.Fatalf("failed to write golden file: %v", err)
		}
		s.t.Logf("updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.t.Fatalf("golden file not found: %s\nrun with UPDATE_GOLDEN=1 to create it\nactual output:\n%s", goldenPath, normalized)
		}
		s.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != normalized {
		s.t.Errorf("snapshot mismatch for %s\n\nexpected:\n%s\n\nactual:\n%s\n\nrun with UPDATE_GOLDEN=1 to update",
			name, string(expected), normalized)
	}
}

// AssertContains fails unless normalized actual contains substr.
func (s *Snap) AssertContains(actual, substr string) {
	s.t.Helper()
	normalized := normalizeOutput(actual)
	if !strings.Contains(normalized, substr) {
		s.t.Errorf("output does not contain expected substring.\nexpected to contain: %q\nactual:\n%s", substr, normalized)
	}
}

// AssertNotContains fails if normalized actual contains substr.
func (s *Snap) AssertNotContains(actual, substr string) {
	s.t.Helper()
	normalized := normalizeOutput(actual)
	if strings.Contains(normalized, substr) {
		s.t.Errorf("output unexpectedly contains substring: %q\nactual:\n%s", substr, normalized)
	}
}

// normalizeOutput strips ANSI/OSC8 sequences, normalizes line endings,
// and trims trailing whitespace per line so golden files stay readable
// and theme-independent.
func normalizeOutput(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// StripANSI removes SGR escape codes and OSC 8 hyperlink sequences,
// leaving the plain text a Renderer assembled from lipgloss styles.
func StripANSI(s string) string {
	s = ansiRegex.ReplaceAllString(s, "")
	return oscRegex.ReplaceAllString(s, "")
}

// Lines returns the rendered line count, ANSI codes ignored — useful
// for asserting a panel/grid render fits a given terminal height.
func Lines(s string) int {
	return len(strings.Split(StripANSI(s), "\n"))
}

// Width returns the longest rendered line's length in runes, ANSI codes
// ignored — used to assert the two-pane layout never exceeds its
// terminal width.
func Width(s string) int {
	stripped := StripANSI(s)
	maxWidth := 0
	for _, line := range strings.Split(stripped, "\n") {
		if n := utf8.RuneCountInString(line); n > maxWidth {
			maxWidth = n
		}
	}
	return maxWidth
}
