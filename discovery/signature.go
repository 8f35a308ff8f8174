package discovery

import "regexp"

// assistantSignature matches the assistant's startup banner or
// characteristic UI affordances (spec.md §4.4 step 2). Per spec's Open
// Question (b), the multi-teammate pane structure is experimental and
// this pattern is expected to drift — kept isolated in its own file so
// it's the first place to look when the assistant's UI changes.
var assistantSignature = regexp.MustCompile(`(?i)claude\s*code|^\s*>\s*$|agent:\s*\w+`)

// roleExtractionRe pulls a role name out of a pane's captured tail
// (spec.md §4.4 step 3).
var roleExtractionRe = regexp.MustCompile(`(?i)agent(?:\s*name)?:\s*(\w+)`)
