// Package pod holds apiary's domain model: Sessions ("pods"), their
// Members, status rollup, and the in-memory AppState that owns them
// (spec.md §3). Types here are pure data; I/O lives in store/tmux/worktree.
package pod

import (
	"strconv"
	"strings"
	"time"
)

// MemberStatus is the classified state of one assistant pane (spec.md §3).
type MemberStatus int

const (
	StatusUnknown MemberStatus = iota
	StatusIdle
	StatusWorking
	StatusPermission
	StatusError
	StatusDone
)

func (s MemberStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusWorking:
		return "working"
	case StatusPermission:
		return "permission"
	case StatusError:
		return "error"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// priority is the rollup ordering: Permission > Error > Working > Idle >
// Done > Unknown (spec.md §3, §8 invariant 1). Higher wins.
func (s MemberStatus) priority() int {
	switch s {
	case StatusPermission:
		return 5
	case StatusError:
		return 4
	case StatusWorking:
		return 3
	case StatusIdle:
		return 2
	case StatusDone:
		return 1
	default:
		return 0
	}
}

// SessionKind is derived: solo iff a Session has exactly one Member.
type SessionKind int

const (
	KindSolo SessionKind = iota
	KindTeam
)

func (k SessionKind) String() string {
	if k == KindTeam {
		return "team"
	}
	return "solo"
}

// PermissionRequest is derived from a Member's captured tail, never
// persisted (spec.md §3).
type PermissionRequest struct {
	Tool    string
	Command string
	Member  string // role name of the requesting Member
}

// Member is one assistant instance inside one pane (spec.md §3).
type Member struct {
	Role       string
	Pane       string
	Status     MemberStatus
	LastChange time.Time

	// LastCapture is the most recent captured tail text, used by Chat mode
	// diffing and by the Detail panel's capture preview.
	LastCapture string

	// LastPolled is transient: never persisted (spec.md §4.2).
	LastPolled time.Time

	// MissingCycles counts consecutive reload cycles in which this
	// Member's pane was absent from the multiplexer (spec.md §4.4 step 4).
	MissingCycles int

	// ErrorCount tracks consecutive adapter failures against this Member's
	// pane (spec.md §5 cancellation & timeouts).
	ErrorCount int

	// PendingPermission is the parsed request behind a Status of
	// StatusPermission, cleared once Status moves away from Permission
	// (spec.md §4.8: Permission mode "shows parsed tool/command").
	PendingPermission *PermissionRequest
}

// WorktreeInfo is the supplemented worktree bookkeeping a Session may
// carry (SPEC_FULL.md §5).
type WorktreeInfo struct {
	Path          string
	Branch        string
	BaseCommitSHA string

	// DiffAdded/DiffRemoved are the worktree's uncommitted-change line
	// counts against BaseCommitSHA, refreshed each selective-refresh
	// cycle and shown next to the branch name in the Detail panel
	// (SPEC_FULL.md §5).
	DiffAdded   int
	DiffRemoved int
}

// Session ("Pod") is a named unit of work bound to one multiplexer
// session (spec.md §3).
type Session struct {
	Name            string
	Kind            SessionKind
	Members         []*Member
	Status          MemberStatus
	Worktree        *WorktreeInfo
	CreatedAt       time.Time
	MultiplexerName string
	Stale           bool // multiplexer session no longer exists (spec.md invariant 2)
}

// MemberByPane finds a Member by pane id within the Session, or nil.
func (s *Session) MemberByPane(pane string) *Member {
	for _, m := range s.Members {
		if m.Pane == pane {
			return m
		}
	}
	return nil
}

// MemberByRole finds a Member by role name within the Session, or nil.
func (s *Session) MemberByRole(role string) *Member {
	for _, m := range s.Members {
		if m.Role == role {
			return m
		}
	}
	return nil
}

// NextMemberIndex returns the smallest non-negative integer k such that
// "member-<k>" is not already a role in this Session (spec.md §4.4 step 3).
func (s *Session) NextMemberIndex() int {
	used := make(map[int]bool, len(s.Members))
	for _, m := range s.Members {
		if n, ok := scanMemberIndex(m.Role); ok {
			used[n] = true
		}
	}
	for k := 0; ; k++ {
		if !used[k] {
			return k
		}
	}
}

// UpdateKind recomputes Kind from the current Member count (spec.md §4.4
// step 5).
func (s *Session) UpdateKind() {
	if len(s.Members) == 1 {
		s.Kind = KindSolo
	} else {
		s.Kind = KindTeam
	}
}

// Mode is the App's current interaction mode (spec.md §4.7).
type Mode int

const (
	ModeHome Mode = iota
	ModeDetail
	ModeChat
	ModePermission
	ModeHelp
)

func (m Mode) String() string {
	switch m {
	case ModeDetail:
		return "detail"
	case ModeChat:
		return "chat"
	case ModePermission:
		return "permission"
	case ModeHelp:
		return "help"
	default:
		return "home"
	}
}

// ChatTurn is one line of the Chat transcript for a focused Member. Chat
// history is never persisted (spec.md §1 Non-goals).
type ChatTurn struct {
	Text string
	Sent bool // true if this line is the operator's own input, not a response line
}

// AppState is the in-memory model (spec.md §3). AppState exclusively owns
// Sessions and Members; the Store only owns the on-disk document.
type AppState struct {
	// Sessions preserves insertion order for stable rendering (spec.md §3,
	// §5 ordering guarantee 2), hence the parallel slice of names.
	order    []string
	Sessions map[string]*Session

	FocusedSession string
	FocusedMember  string

	Mode Mode

	CommandBuffer string
	ChatBuffer    string
	ChatHistory   map[string][]ChatTurn // keyed by "session/role"

	LastReload time.Time

	// PermissionDismissed tracks, by Session name, the Sessions whose
	// permission prompts the operator has already answered or skipped,
	// so Mode doesn't re-trigger automatically for them (spec.md §4.7).
	PermissionDismissed map[string]bool

	// Log is a bounded recent-action/notification trail shown in Home
	// (spec.md §4.8: "Home shows command buffer + recent action log").
	Log []string
}

// maxLogEntries bounds AppState.Log so the Home panel's recent-action
// trail can't grow without limit over a long-running session.
const maxLogEntries = 8

// LogEvent appends msg to the recent-action log, dropping the oldest
// entry once the bound is exceeded.
func (a *AppState) LogEvent(msg string) {
	a.Log = append(a.Log, msg)
	if len(a.Log) > maxLogEntries {
		a.Log = a.Log[len(a.Log)-maxLogEntries:]
	}
}

// NewAppState returns an empty, ready-to-use AppState.
func NewAppState() *AppState {
	return &AppState{
		Sessions:            make(map[string]*Session),
		ChatHistory:         make(map[string][]ChatTurn),
		PermissionDismissed: make(map[string]bool),
	}
}

// AddSession inserts a new Session, preserving insertion order. It is a
// no-op if a Session with that name already exists.
func (a *AppState) AddSession(s *Session) {
	if _, exists := a.Sessions[s.Name]; exists {
		return
	}
	a.Sessions[s.Name] = s
	a.order = append(a.order, s.Name)
}

// RemoveSession deletes a Session and its order entry.
func (a *AppState) RemoveSession(name string) {
	delete(a.Sessions, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// OrderedSessions returns Sessions in insertion order (spec.md §5 ordering
// guarantee 2).
func (a *AppState) OrderedSessions() []*Session {
	out := make([]*Session, 0, len(a.order))
	for _, name := range a.order {
		if s, ok := a.Sessions[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// ChatKey returns the ChatHistory key for a (session, role) pair.
func ChatKey(session, role string) string { return session + "/" + role }

// scanMemberIndex parses "member-<n>" role names; any other role (custom
// names, e.g. roles Discovery extracts from a pane's captured tail)
// reports ok=false.
func scanMemberIndex(role string) (int, bool) {
	suffix, ok := strings.CutPrefix(role, "member-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}
