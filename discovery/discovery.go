// Package discovery finds new panes belonging to known Sessions,
// recognizes assistant panes via a signature, extracts role names, and
// retires stale Members (spec.md §4.4). Discovery never creates
// Sessions; it only expands ones already known to the App.
package discovery

import (
	"apiary/pod"
	"apiary/tmux"
	"strconv"
)

// Adapter is the subset of the Multiplexer Adapter Discovery needs. Any
// type satisfying this (tmux.Adapter included) can drive Discovery, so
// tests can inject a fake (spec.md §9: "tests inject fakes").
type Adapter interface {
	ListPanes(session string) ([]tmux.Pane, error)
	CapturePane(pane string, tailLines int) (string, error)
}

const discoveryTailLines = 40

// staleCycleThreshold is the number of consecutive absent cycles after
// which a Member is removed (spec.md §4.4 step 4, §8 boundary behavior).
const staleCycleThreshold = 2

// Run executes one Discovery pass over a single Session (spec.md §4.4's
// five steps, scoped to one Session at a time so the Tick Engine can
// call it per-Session during the reload cycle).
func Run(adapter Adapter, session *pod.Session) error {
	panes, err := adapter.ListPanes(session.MultiplexerName)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(panes))
	for _, p := range panes {
		seen[p.ID] = true
		if session.MemberByPane(p.ID) != nil {
			continue
		}

		tail, err := adapter.CapturePane(p.ID, discoveryTailLines)
		if err != nil {
			continue // transient adapter failure; try again next cycle
		}
		if !assistantSignature.MatchString(tail) {
			continue
		}

		role := extractRole(tail)
		if role == "" {
			role = defaultRoleName(session)
		}

		session.Members = append(session.Members, &pod.Member{
			Role:   role,
			Pane:   p.ID,
			Status: pod.StatusUnknown,
		})
	}

	retireStaleMembers(session, seen)
	session.UpdateKind()
	return nil
}

func extractRole(tail string) string {
	if m := roleExtractionRe.FindStringSubmatch(tail); m != nil {
		return m[1]
	}
	return ""
}

func defaultRoleName(session *pod.Session) string {
	return "member-" + strconv.Itoa(session.NextMemberIndex())
}

// retireStaleMembers increments MissingCycles for panes absent this
// cycle and drops Members absent for staleCycleThreshold consecutive
// cycles (spec.md §4.4 step 4, §8: "for two cycles → removed").
func retireStaleMembers(session *pod.Session, seenPanes map[string]bool) {
	kept := session.Members[:0]
	for _, m := range session.Members {
		if seenPanes[m.Pane] {
			m.MissingCycles = 0
			kept = append(kept, m)
			continue
		}
		m.MissingCycles++
		if m.MissingCycles < staleCycleThreshold {
			kept = append(kept, m)
		}
		// else: dropped
	}
	session.Members = kept
}

