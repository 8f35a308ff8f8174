// Package store persists Session topology as a single JSON document
// (spec.md §4.2, §6). Writes are atomic (tmp file + rename) and guarded
// by an advisory file lock; reads tolerate an absent or empty file as
// "no sessions" rather than erroring, since a reader may observe a
// concurrent writer mid-cycle.
package store

import (
	"apiary/config"
	"apiary/pod"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	fileName       = "pods.json"
	currentVersion = 1
)

// MemberDoc is one Member's persisted fields (spec.md §6). LastPolled
// is deliberately absent: it is transient (spec.md §3).
type MemberDoc struct {
	Role       string    `json:"role"`
	Pane       string    `json:"pane"`
	Status     string    `json:"status"`
	LastChange time.Time `json:"last_change"`
}

// SessionDoc is one Session's persisted fields (spec.md §6).
type SessionDoc struct {
	Name        string       `json:"name"`
	Kind        string       `json:"kind"`
	TmuxSession string       `json:"tmux_session"`
	Worktree    *WorktreeDoc `json:"worktree,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Members     []MemberDoc  `json:"members"`
}

// WorktreeDoc is the optional worktree bookkeeping attached to a Session
// (SPEC_FULL.md §5).
type WorktreeDoc struct {
	Path          string `json:"path"`
	Branch        string `json:"branch"`
	BaseCommitSHA string `json:"base_commit_sha"`
}

// Document is the whole pods.json document (spec.md §6).
type Document struct {
	Version  int          `json:"version"`
	Sessions []SessionDoc `json:"sessions"`
}

// Store owns all I/O for the on-disk document; no other package writes
// pods.json.
type Store struct {
	path string
	lock *flock.Flock
}

// New returns a Store backed by the platform-appropriate per-user data
// directory (spec.md §6).
func New() (*Store, error) {
	dir, err := config.GetDataDir()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: failed to create data directory: %w", err)
	}
	path := filepath.Join(dir, fileName)
	return &Store{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path returns the store file's path.
func (s *Store) Path() string { return s.path }

func (s *Store) withLock(fn func() error) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("store: failed to acquire lock: %w", err)
	}
	defer s.lock.Unlock()
	return fn()
}

// Load reads the document from disk. A missing or empty file is treated
// as "no sessions" (spec.md §4.2, §8 boundary behavior), never an error;
// a malformed file is also treated as empty, with the error returned so
// the caller can surface a warning (spec.md §7: "no silent data loss path").
func (s *Store) Load() (*Document, error) {
	var doc *Document
	var loadErr error

	err := s.withLock(func() error {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				doc = emptyDocument()
				return nil
			}
			return fmt.Errorf("store: failed to read %s: %w", s.path, err)
		}

		if len(strings.TrimSpace(string(data))) == 0 {
			doc = emptyDocument()
			return nil
		}

		var parsed Document
		if err := json.Unmarshal(data, &parsed); err != nil {
			loadErr = fmt.Errorf("store: corrupt document at %s: %w", s.path, err)
			doc = emptyDocument()
			return nil
		}
		doc = &parsed
		return nil
	})
	if err != nil {
		return emptyDocument(), err
	}
	return doc, loadErr
}

func emptyDocument() *Document {
	return &Document{Version: currentVersion, Sessions: []SessionDoc{}}
}

// Save atomically persists doc: serialize, write to path+".tmp", rename
// over path (spec.md §4.2, §8 invariant 3). The rename is the commit
// point; callers only observe success after it completes (spec.md §5
// ordering guarantee 3).
func (s *Store) Save(doc *Document) error {
	doc.Version = currentVersion

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: failed to marshal document: %w", err)
	}

	return s.withLock(func() error {
		tmpPath := s.path + ".tmp"
		if err := os.WriteFile(tmpPath, data, 0644); err != nil {
			return fmt.Errorf("store: failed to write temp file: %w", err)
		}
		if err := os.Rename(tmpPath, s.path); err != nil {
			return fmt.Errorf("store: failed to rename temp file into place: %w", err)
		}
		return nil
	})
}

// ToDocument serializes an AppState's Sessions into a Document, dropping
// transient fields (spec.md §4.2).
func ToDocument(state *pod.AppState) *Document {
	doc := emptyDocument()
	for _, sess := range state.OrderedSessions() {
		doc.Sessions = append(doc.Sessions, sessionToDoc(sess))
	}
	return doc
}

func sessionToDoc(s *pod.Session) SessionDoc {
	d := SessionDoc{
		Name:        s.Name,
		Kind:        s.Kind.String(),
		TmuxSession: s.MultiplexerName,
		CreatedAt:   s.CreatedAt,
	}
	if s.Worktree != nil {
		d.Worktree = &WorktreeDoc{
			Path:          s.Worktree.Path,
			Branch:        s.Worktree.Branch,
			BaseCommitSHA: s.Worktree.BaseCommitSHA,
		}
	}
	for _, m := range s.Members {
		d.Members = append(d.Members, MemberDoc{
			Role:       m.Role,
			Pane:       m.Pane,
			Status:     m.Status.String(),
			LastChange: m.LastChange,
		})
	}
	return d
}

func parseStatus(s string) pod.MemberStatus {
	switch s {
	case "idle":
		return pod.StatusIdle
	case "working":
		return pod.StatusWorking
	case "permission":
		return pod.StatusPermission
	case "error":
		return pod.StatusError
	case "done":
		return pod.StatusDone
	default:
		return pod.StatusUnknown
	}
}

func parseKind(s string) pod.SessionKind {
	if s == "team" {
		return pod.KindTeam
	}
	return pod.KindSolo
}

// docToSession builds a fresh *pod.Session from a SessionDoc. Transient
// fields (LastPolled, MissingCycles, ErrorCount) are left zero; callers
// reconciling against a live AppState should prefer Delta/Apply, which
// preserve those fields for surviving Members.
func docToSession(d SessionDoc) *pod.Session {
	s := &pod.Session{
		Name:            d.Name,
		Kind:            parseKind(d.Kind),
		MultiplexerName: d.TmuxSession,
		CreatedAt:       d.CreatedAt,
	}
	if d.Worktree != nil {
		s.Worktree = &pod.WorktreeInfo{
			Path:          d.Worktree.Path,
			Branch:        d.Worktree.Branch,
			BaseCommitSHA: d.Worktree.BaseCommitSHA,
		}
	}
	for _, md := range d.Members {
		s.Members = append(s.Members, &pod.Member{
			Role:       md.Role,
			Pane:       md.Pane,
			Status:     parseStatus(md.Status),
			LastChange: md.LastChange,
		})
	}
	s.RefreshStatus()
	return s
}

