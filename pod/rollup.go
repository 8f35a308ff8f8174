package pod

// Rollup computes a Session's Status from its Members' statuses, by
// priority: Permission > Error > Working > Idle > Done > Unknown
// (spec.md §3, §8 invariant 1). A Session with no Members rolls up to
// Unknown.
func Rollup(members []*Member) MemberStatus {
	best := StatusUnknown
	seen := false
	for _, m := range members {
		if !seen || m.Status.priority() > best.priority() {
			best = m.Status
			seen = true
		}
	}
	return best
}

// RefreshStatus recomputes and stores s.Status from its current Members.
func (s *Session) RefreshStatus() {
	s.Status = Rollup(s.Members)
}

// HasPermissionRequest reports whether any Member in the Session is
// currently blocked on a permission prompt.
func (s *Session) HasPermissionRequest() bool {
	for _, m := range s.Members {
		if m.Status == StatusPermission {
			return true
		}
	}
	return false
}

// PermissionMembers returns the Members currently awaiting a permission
// decision, in Session order.
func (s *Session) PermissionMembers() []*Member {
	var out []*Member
	for _, m := range s.Members {
		if m.Status == StatusPermission {
			out = append(out, m)
		}
	}
	return out
}
