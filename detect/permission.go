package detect

import (
	"apiary/pod"
	"regexp"
	"strings"
)

// toolLineRe extracts a tool name from lines like "Bash: npm test" or
// "Tool: Edit" (spec.md §4.3: "extract the tool name (first token after
// Bash:/Tool:/similar)").
var toolLineRe = regexp.MustCompile(`(?i)^\s*(?:bash|tool)\s*:\s*(\S+)(.*)$`)

// parsePermission extracts {tool, command} from the matched permission
// region. If parsing fails, it still yields a request with tool="unknown"
// and the raw matched line as the command, per spec.md §4.3/§8 boundary
// behavior ("Permission match with unparseable command → PermissionRequest
// with tool="unknown"").
func parsePermission(lines []string, matchIdx int, matchedLine, memberRole string) *pod.PermissionRequest {
	// The tool/command line is often the one immediately preceding the
	// prompt question itself; search backward from the match for it.
	for i := matchIdx; i >= 0; i-- {
		if m := toolLineRe.FindStringSubmatch(lines[i]); m != nil {
			command := strings.TrimSpace(m[2])
			if command == "" && i+1 < len(lines) && isIndented(lines[i+1]) {
				command = strings.TrimSpace(lines[i+1])
			}
			return &pod.PermissionRequest{
				Tool:    m[1],
				Command: command,
				Member:  memberRole,
			}
		}
	}

	return &pod.PermissionRequest{
		Tool:    "unknown",
		Command: strings.TrimSpace(matchedLine),
		Member:  memberRole,
	}
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
