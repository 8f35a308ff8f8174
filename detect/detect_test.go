package detect

import (
	"apiary/pod"
	"testing"
)

func TestClassifyEmptyIsUnknown(t *testing.T) {
	rules := NewRules(nil, nil, nil)
	status, req := Classify("", rules, "member-0")
	if status != pod.StatusUnknown || req != nil {
		t.Fatalf("Classify(\"\") = %v, %v", status, req)
	}
}

func TestClassifyIdleGlyph(t *testing.T) {
	rules := NewRules(nil, nil, nil)
	status, _ := Classify("some output\n❯ ", rules, "member-0")
	if status != pod.StatusIdle {
		t.Fatalf("status = %v, want Idle", status)
	}
}

func TestClassifyWorkingToolUseBanner(t *testing.T) {
	rules := NewRules(nil, nil, nil)
	status, _ := Classify("tool use: Bash\nrunning tests", rules, "member-0")
	if status != pod.StatusWorking {
		t.Fatalf("status = %v, want Working", status)
	}
}

func TestClassifyErrorBeatsWorking(t *testing.T) {
	rules := NewRules(nil, nil, nil)
	status, _ := Classify("running tests\nError: compilation failed", rules, "member-0")
	if status != pod.StatusError {
		t.Fatalf("status = %v, want Error", status)
	}
}

func TestClassifyPermissionWithParsedCommand(t *testing.T) {
	rules := NewRules(nil, nil, nil)
	tail := "Bash: npm test\nAllow this action? (y/n)"
	status, req := Classify(tail, rules, "member-0")
	if status != pod.StatusPermission {
		t.Fatalf("status = %v, want Permission", status)
	}
	if req == nil {
		t.Fatal("expected a PermissionRequest")
	}
	if req.Tool != "npm" {
		t.Fatalf("Tool = %q, want npm", req.Tool)
	}
}

func TestClassifyPermissionUnparseableFallsBackToUnknownTool(t *testing.T) {
	rules := NewRules(nil, nil, nil)
	status, req := Classify("Do you want to proceed?", rules, "member-0")
	if status != pod.StatusPermission {
		t.Fatalf("status = %v, want Permission", status)
	}
	if req == nil || req.Tool != "unknown" {
		t.Fatalf("req = %+v, want Tool=unknown", req)
	}
}

func TestClassifyUserExtendedErrorPattern(t *testing.T) {
	rules := NewRules(nil, []string{`(?i)kaboom`}, nil)
	status, _ := Classify("everything is fine\nKABOOM happened", rules, "member-0")
	if status != pod.StatusError {
		t.Fatalf("status = %v, want Error (user pattern)", status)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	rules := NewRules(nil, nil, nil)
	tail := "tool use: Bash\nrunning"
	s1, r1 := Classify(tail, rules, "member-0")
	s2, r2 := Classify(tail, rules, "member-0")
	if s1 != s2 || (r1 == nil) != (r2 == nil) {
		t.Fatalf("Classify not idempotent: (%v,%v) vs (%v,%v)", s1, r1, s2, r2)
	}
}
