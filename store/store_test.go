package store

import (
	"apiary/pod"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, fileName)
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	doc, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(doc.Sessions))
	}
}

func TestLoadEmptyFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(doc.Sessions))
	}
}

func TestLoadCorruptFileDegradesWithError(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := s.Load()
	if err == nil {
		t.Fatal("expected an error for corrupt document")
	}
	if len(doc.Sessions) != 0 {
		t.Fatalf("expected empty degraded document, got %d sessions", len(doc.Sessions))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	state := pod.NewAppState()
	state.AddSession(&pod.Session{
		Name:            "demo",
		Kind:            pod.KindSolo,
		MultiplexerName: "demo",
		CreatedAt:       time.Now().Truncate(time.Second).UTC(),
		Members: []*pod.Member{
			{Role: "member-0", Pane: "%1", Status: pod.StatusIdle, LastChange: time.Now().Truncate(time.Second).UTC()},
		},
	})

	if err := s.Save(ToDocument(state)); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Sessions) != 1 || doc.Sessions[0].Name != "demo" {
		t.Fatalf("round trip mismatch: %+v", doc)
	}
	if len(doc.Sessions[0].Members) != 1 || doc.Sessions[0].Members[0].Pane != "%1" {
		t.Fatalf("round trip member mismatch: %+v", doc.Sessions[0])
	}

	// No stray temp file left behind.
	if _, err := os.Stat(s.path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, stat err = %v", err)
	}
}

func TestReconcileAddedRemovedChanged(t *testing.T) {
	state := pod.NewAppState()
	state.AddSession(&pod.Session{
		Name:            "stays",
		MultiplexerName: "stays",
		Members: []*pod.Member{
			{Role: "member-0", Pane: "%1", Status: pod.StatusIdle, MissingCycles: 0},
		},
	})
	state.AddSession(&pod.Session{Name: "gone", MultiplexerName: "gone"})

	// Give the surviving member transient state that must be preserved.
	state.Sessions["stays"].Members[0].LastPolled = time.Now()
	state.Sessions["stays"].Members[0].ErrorCount = 2

	doc := &Document{
		Version: currentVersion,
		Sessions: []SessionDoc{
			{
				Name:        "stays",
				TmuxSession: "stays",
				Members: []MemberDoc{
					{Role: "member-0", Pane: "%1", Status: "working"},
				},
			},
			{Name: "fresh", TmuxSession: "fresh"},
		},
	}

	delta := Reconcile(doc, state)
	if len(delta.Added) != 1 || delta.Added[0].Name != "fresh" {
		t.Fatalf("Added = %+v", delta.Added)
	}
	if len(delta.Removed) != 1 || delta.Removed[0] != "gone" {
		t.Fatalf("Removed = %+v", delta.Removed)
	}
	if len(delta.Changed) != 1 || delta.Changed[0].Name != "stays" {
		t.Fatalf("Changed = %+v", delta.Changed)
	}

	Apply(state, delta)

	if _, ok := state.Sessions["gone"]; ok {
		t.Fatal("expected 'gone' session to be removed")
	}
	if _, ok := state.Sessions["fresh"]; !ok {
		t.Fatal("expected 'fresh' session to be added")
	}

	stays := state.Sessions["stays"]
	m := stays.MemberByRole("member-0")
	if m == nil {
		t.Fatal("expected member-0 to survive")
	}
	if m.Status != pod.StatusWorking {
		t.Fatalf("Status = %v, want %v (from disk)", m.Status, pod.StatusWorking)
	}
	if m.ErrorCount != 2 {
		t.Fatalf("ErrorCount = %d, want 2 (transient field preserved)", m.ErrorCount)
	}
	if m.LastPolled.IsZero() {
		t.Fatal("expected LastPolled to be preserved across merge")
	}
}

func TestReconcileNoChangeIsIdempotent(t *testing.T) {
	state := pod.NewAppState()
	state.AddSession(&pod.Session{
		Name:            "demo",
		MultiplexerName: "demo",
		Members: []*pod.Member{
			{Role: "member-0", Pane: "%1", Status: pod.StatusIdle},
		},
	})

	doc := ToDocument(state)
	delta := Reconcile(doc, state)

	if len(delta.Added) != 0 || len(delta.Removed) != 0 || len(delta.Changed) != 0 {
		t.Fatalf("expected empty delta for unchanged state, got %+v", delta)
	}
}
