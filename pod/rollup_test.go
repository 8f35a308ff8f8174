package pod

import "testing"

func TestRollupPriority(t *testing.T) {
	cases := []struct {
		name     string
		statuses []MemberStatus
		want     MemberStatus
	}{
		{"empty", nil, StatusUnknown},
		{"single idle", []MemberStatus{StatusIdle}, StatusIdle},
		{"permission wins over error", []MemberStatus{StatusError, StatusPermission}, StatusPermission},
		{"error wins over working", []MemberStatus{StatusWorking, StatusError}, StatusError},
		{"working wins over idle", []MemberStatus{StatusIdle, StatusWorking}, StatusWorking},
		{"idle wins over done", []MemberStatus{StatusDone, StatusIdle}, StatusIdle},
		{"done wins over unknown", []MemberStatus{StatusUnknown, StatusDone}, StatusDone},
		{"all unknown", []MemberStatus{StatusUnknown, StatusUnknown}, StatusUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			members := make([]*Member, len(tc.statuses))
			for i, s := range tc.statuses {
				members[i] = &Member{Role: "member-0", Status: s}
			}
			if got := Rollup(members); got != tc.want {
				t.Errorf("Rollup(%v) = %v, want %v", tc.statuses, got, tc.want)
			}
		})
	}
}

func TestSessionRefreshStatus(t *testing.T) {
	s := &Session{Name: "demo", Members: []*Member{
		{Role: "member-0", Status: StatusWorking},
		{Role: "member-1", Status: StatusPermission},
	}}
	s.RefreshStatus()
	if s.Status != StatusPermission {
		t.Fatalf("Status = %v, want %v", s.Status, StatusPermission)
	}
	if !s.HasPermissionRequest() {
		t.Fatal("HasPermissionRequest() = false, want true")
	}
	if got := s.PermissionMembers(); len(got) != 1 || got[0].Role != "member-1" {
		t.Fatalf("PermissionMembers() = %v", got)
	}
}
