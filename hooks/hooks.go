// Package hooks implements the optional push channel (spec.md §4.5):
// tail-following a newline-delimited JSON event file and turning new
// events into state hints. Hooks are advisory only — the Detector
// remains authoritative; a hint updates state only if it strictly
// refines Unknown or matches a stable upgrade transition (spec.md §9).
package hooks

import (
	"apiary/pod"
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/google/uuid"
)

// DefaultPath is the well-known hooks file (spec.md §6).
const DefaultPath = "/tmp/apiary-hooks.jsonl"

// Event kinds (spec.md §4.5).
const (
	KindToolStart         = "tool_start"
	KindToolEnd           = "tool_end"
	KindPermissionRequest = "permission_request"
	KindIdle              = "idle"
)

// Event is one line of the hooks file. ID correlates an event across
// re-reads (e.g. after the truncation-recovery restart below); writers
// that omit it get one stamped on parse, derived from the line's bytes
// so the same line always gets the same ID.
type Event struct {
	ID      string `json:"id,omitempty"`
	Session string `json:"session"`
	Member  string `json:"member,omitempty"`
	Kind    string `json:"kind"`
	TS      string `json:"ts"`
}

// maxSeenIDs bounds the dedup set so a long-running Ingest doesn't grow
// unbounded.
const maxSeenIDs = 512

// Ingest tail-follows a hooks file, tracking the byte offset of the
// last line it has successfully parsed and the IDs it has already
// applied, so a truncation-triggered re-read from offset 0 never
// double-applies a hint (spec.md §8 scenario 6).
type Ingest struct {
	path   string
	offset int64
	seen   map[string]bool
	order  []string
}

// New returns an Ingest watching path (DefaultPath if empty).
func New(path string) *Ingest {
	if path == "" {
		path = DefaultPath
	}
	return &Ingest{path: path, seen: make(map[string]bool)}
}

// Poll reads any new complete lines since the last Poll call and
// returns the parsed events. A missing file is not an error: the hooks
// channel is optional (spec.md §4.5 "(optional)").
func (in *Ingest) Poll() ([]Event, error) {
	f, err := os.Open(in.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// The hooks file was truncated or replaced out-of-band; restart from
	// the beginning rather than erroring (mirrors the Store's tolerance
	// for externally-replaced files, spec.md §8 scenario 6).
	if info.Size() < in.offset {
		in.offset = 0
	}

	if in.offset > 0 {
		if _, err := f.Seek(in.offset, io.SeekStart); err != nil {
			return nil, err
		}
	}

	var events []Event
	reader := bufio.NewReader(f)
	parsedOffset := in.offset

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return events, err
		}
		if len(line) == 0 {
			break
		}
		if err == io.EOF && len(line) > 0 && line[len(line)-1] != '\n' {
			// Incomplete trailing line: wait for the writer to finish it.
			break
		}

		parsedOffset += int64(len(line))

		var ev Event
		if jsonErr := json.Unmarshal(line, &ev); jsonErr == nil && isKnownKind(ev.Kind) {
			if ev.ID == "" {
				ev.ID = uuid.NewSHA1(uuid.NameSpaceOID, line).String()
			}
			if !in.seen[ev.ID] {
				in.markSeen(ev.ID)
				events = append(events, ev)
			}
		}
		// Unknown/malformed lines are ignored, not fatal (spec.md §6:
		// "unknown event kinds ignored").

		if err == io.EOF {
			break
		}
	}

	in.offset = parsedOffset
	return events, nil
}

// markSeen records id, evicting the oldest entry once the set is full.
func (in *Ingest) markSeen(id string) {
	in.seen[id] = true
	in.order = append(in.order, id)
	if len(in.order) > maxSeenIDs {
		delete(in.seen, in.order[0])
		in.order = in.order[1:]
	}
}

// ApplyHint applies ev as a state hint to member, per the upgrade-only
// rule (spec.md §4.5, §9): a hint upgrades Unknown to a more specific
// state, and never downgrades an existing Permission classification.
func ApplyHint(member *pod.Member, ev Event) {
	hinted, ok := hintedStatus(ev.Kind)
	if !ok {
		return
	}
	if member.Status == pod.StatusPermission {
		return
	}
	if member.Status == pod.StatusUnknown || isUpgrade(member.Status, hinted) {
		member.Status = hinted
	}
}

func isKnownKind(kind string) bool {
	_, ok := hintedStatus(kind)
	return ok
}

func hintedStatus(kind string) (pod.MemberStatus, bool) {
	switch kind {
	case KindToolStart:
		return pod.StatusWorking, true
	case KindToolEnd:
		return pod.StatusIdle, true
	case KindPermissionRequest:
		return pod.StatusPermission, true
	case KindIdle:
		return pod.StatusIdle, true
	default:
		return pod.StatusUnknown, false
	}
}

// isUpgrade reports whether moving from current to hinted is one of the
// stable transitions hooks are trusted for: Idle/Unknown → Working (a
// tool started), Working → Idle/Done (a tool finished), and any state →
// Permission (a permission request). Anything else defers to the
// Detector on the next poll.
func isUpgrade(current, hinted pod.MemberStatus) bool {
	switch {
	case current == pod.StatusIdle && hinted == pod.StatusWorking:
		return true
	case current == pod.StatusWorking && (hinted == pod.StatusIdle || hinted == pod.StatusDone):
		return true
	case hinted == pod.StatusPermission:
		return true
	default:
		return false
	}
}
