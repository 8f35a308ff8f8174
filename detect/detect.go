// Package detect classifies a pane's captured tail into a MemberStatus
// and an optional PermissionRequest (spec.md §4.3). Classification is a
// pure function of (tail text, rule set); rule sets are data, built from
// the package's builtins plus a config's [detection] extensions — never
// implicit globals (spec.md §9: "Rule sets are data ... injected at
// construction").
package detect

import (
	"apiary/pod"
	"regexp"
	"strings"
)

// defaultWindowLines bounds classification to the trailing window of a
// pane's tail, keeping it bounded and recent (spec.md §4.3).
const defaultWindowLines = 15

// Rules is an injected, compiled rule set. The zero value is not usable;
// construct with NewRules.
type Rules struct {
	permission []*regexp.Regexp
	errorRe    []*regexp.Regexp
	working    []*regexp.Regexp
	done       []*regexp.Regexp
	idle       []*regexp.Regexp
}

// builtinPermission, builtinError, etc. seed the classifier; per spec's
// Open Question (a), this list is a seed, not exhaustive, and is always
// extended (never replaced) by user-supplied patterns.
var (
	builtinPermission = []string{
		`(?i)allow this action\??`,
		`(?i)do you want to proceed\??`,
		`(?i)\(y\)es/\(n\)o`,
		`(?i)yes, allow once`,
		`(?i)no, and tell .* what to do differently`,
	}
	builtinError = []string{
		`(?i)\berror\b`,
		`(?i)\bfailed\b`,
		`(?i)\bexception\b`,
		`(?i)traceback \(most recent call last\)`,
	}
	builtinWorking = []string{
		`(?i)tool use:\s*\S+`,
		`(?i)^\s*[⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏]`, // braille spinner frames
		`(?i)thinking\.\.\.`,
		`(?i)running\b`,
	}
	builtinDone = []string{
		`(?i)^\s*done\.?\s*$`,
		`(?i)task complete`,
		`(?i)session ended`,
	}
)

// idlePromptGlyphs are checked against the final non-empty line only
// (spec.md §4.3: "Idle (prompt glyph ❯ or > on final non-empty line)").
var idlePromptGlyphs = []string{"❯", ">"}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
		// An unparseable user pattern is silently dropped rather than
		// crashing classification; config validation already warns about
		// config-level problems (spec.md §7 ConfigError).
	}
	return out
}

// NewRules builds a Rules set from the builtins plus extra user patterns
// for each category (spec.md §6 `[detection]`).
func NewRules(extraPermission, extraError, extraIdle []string) *Rules {
	return &Rules{
		permission: compileAll(append(append([]string{}, builtinPermission...), extraPermission...)),
		errorRe:    compileAll(append(append([]string{}, builtinError...), extraError...)),
		working:    compileAll(builtinWorking),
		done:       compileAll(builtinDone),
		idle:       compileAll(extraIdle), // additional literal idle-signalling regexes, beyond the glyph check
	}
}

// lastNLines returns at most n trailing lines of text, blank lines
// included.
func lastNLines(text string, n int) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func matchesAny(res []*regexp.Regexp, lines []string) (bool, string, int) {
	for i, line := range lines {
		for _, re := range res {
			if re.MatchString(line) {
				return true, line, i
			}
		}
	}
	return false, "", -1
}

// Classify classifies tail (the captured pane text) against rules,
// returning the MemberStatus and, for Permission classifications, the
// parsed PermissionRequest (spec.md §4.3).
func Classify(tail string, rules *Rules, memberRole string) (pod.MemberStatus, *pod.PermissionRequest) {
	lines := lastNLines(tail, defaultWindowLines)
	if len(lines) == 0 || allBlank(lines) {
		return pod.StatusUnknown, nil
	}

	if ok, line, idx := matchesAny(rules.permission, lines); ok {
		return pod.StatusPermission, parsePermission(lines, idx, line, memberRole)
	}
	if ok, _, _ := matchesAny(rules.errorRe, lines); ok {
		return pod.StatusError, nil
	}
	if ok, _, _ := matchesAny(rules.working, lines); ok {
		return pod.StatusWorking, nil
	}
	if ok, _, _ := matchesAny(rules.done, lines); ok {
		return pod.StatusDone, nil
	}
	if isIdle(lines, rules) {
		return pod.StatusIdle, nil
	}
	return pod.StatusUnknown, nil
}

func allBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// isIdle checks the final non-empty line for a prompt glyph, plus any
// user-supplied idle patterns against the whole window.
func isIdle(lines []string, rules *Rules) bool {
	if ok, _, _ := matchesAny(rules.idle, lines); ok {
		return true
	}
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		for _, glyph := range idlePromptGlyphs {
			if strings.HasSuffix(trimmed, glyph) || trimmed == glyph {
				return true
			}
		}
		return false
	}
	return false
}
