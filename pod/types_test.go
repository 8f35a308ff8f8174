package pod

import "testing"

func TestNextMemberIndex(t *testing.T) {
	s := &Session{Members: []*Member{
		{Role: "member-0"},
		{Role: "member-2"},
		{Role: "custom-name"},
	}}
	if got := s.NextMemberIndex(); got != 1 {
		t.Fatalf("NextMemberIndex() = %d, want 1", got)
	}
}

func TestUpdateKind(t *testing.T) {
	s := &Session{Members: []*Member{{Role: "member-0"}}}
	s.UpdateKind()
	if s.Kind != KindSolo {
		t.Fatalf("Kind = %v, want %v", s.Kind, KindSolo)
	}

	s.Members = append(s.Members, &Member{Role: "member-1"})
	s.UpdateKind()
	if s.Kind != KindTeam {
		t.Fatalf("Kind = %v, want %v", s.Kind, KindTeam)
	}
}

func TestAppStateOrdering(t *testing.T) {
	a := NewAppState()
	a.AddSession(&Session{Name: "b"})
	a.AddSession(&Session{Name: "a"})
	a.AddSession(&Session{Name: "b"}) // duplicate, ignored

	got := a.OrderedSessions()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "a" {
		t.Fatalf("OrderedSessions() = %v, want insertion order [b a]", got)
	}

	a.RemoveSession("b")
	got = a.OrderedSessions()
	if len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("OrderedSessions() after remove = %v", got)
	}
}
