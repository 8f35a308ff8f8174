package store

import "apiary/pod"

// Delta is the three-way diff between a freshly loaded Document and the
// AppState's current Sessions (spec.md §4.2: "it produces a three-way
// delta (added, removed, changed) against the in-memory set").
type Delta struct {
	Added   []*pod.Session // present on disk, not in memory
	Removed []string       // in memory, absent from disk (by name)
	Changed []*pod.Session // present in both, differing in multiplexer name, worktree presence, or members (count, pane, status)
}

// Reconcile compares doc against state and returns the delta, without
// mutating state. Callers apply it via Apply.
func Reconcile(doc *Document, state *pod.AppState) Delta {
	var delta Delta

	onDisk := make(map[string]SessionDoc, len(doc.Sessions))
	for _, d := range doc.Sessions {
		onDisk[d.Name] = d
	}

	for _, existing := range state.OrderedSessions() {
		if _, ok := onDisk[existing.Name]; !ok {
			delta.Removed = append(delta.Removed, existing.Name)
		}
	}

	for _, d := range doc.Sessions {
		existing, ok := state.Sessions[d.Name]
		if !ok {
			delta.Added = append(delta.Added, docToSession(d))
			continue
		}
		if sessionDiffers(existing, d) {
			delta.Changed = append(delta.Changed, docToSession(d))
		}
	}

	return delta
}

func sessionDiffers(existing *pod.Session, d SessionDoc) bool {
	if existing.MultiplexerName != d.TmuxSession {
		return true
	}
	if (existing.Worktree == nil) != (d.Worktree == nil) {
		return true
	}
	if len(existing.Members) != len(d.Members) {
		return true
	}
	for _, md := range d.Members {
		m := existing.MemberByRole(md.Role)
		if m == nil || m.Pane != md.Pane || m.Status != parseStatus(md.Status) {
			return true
		}
	}
	return false
}

// Apply merges delta into state in place, preserving transient
// per-member fields (LastPolled, MissingCycles, ErrorCount) for Members
// that survive (spec.md §4.2: "the App applies it preserving transient
// per-member fields for surviving members").
func Apply(state *pod.AppState, delta Delta) {
	for _, name := range delta.Removed {
		state.RemoveSession(name)
	}
	for _, fresh := range delta.Added {
		state.AddSession(fresh)
	}
	for _, fresh := range delta.Changed {
		mergeChangedSession(state, fresh)
	}
}

func mergeChangedSession(state *pod.AppState, fresh *pod.Session) {
	existing, ok := state.Sessions[fresh.Name]
	if !ok {
		state.AddSession(fresh)
		return
	}

	merged := make([]*pod.Member, 0, len(fresh.Members))
	for _, fm := range fresh.Members {
		if em := existing.MemberByRole(fm.Role); em != nil {
			em.Pane = fm.Pane
			em.Status = fm.Status
			em.LastChange = fm.LastChange
			merged = append(merged, em)
			continue
		}
		merged = append(merged, fm)
	}

	existing.Members = merged
	existing.MultiplexerName = fresh.MultiplexerName
	existing.Worktree = fresh.Worktree
	existing.UpdateKind()
	existing.RefreshStatus()
}
