package app

import (
	"apiary/detect"
	"apiary/pod"
	"strings"
)

// sendChat implements the send half of Chat diff-based response capture
// (spec.md §4.10). Sending is blocked while the target Member is Working
// or Permission; the UI shows a refusal instead of interleaving input.
func (m *Model) sendChat() {
	s := m.focusedSession()
	if s == nil {
		return
	}
	mem := s.MemberByRole(m.state.FocusedMember)
	if mem == nil || strings.TrimSpace(m.state.ChatBuffer) == "" {
		return
	}
	if mem.Status == pod.StatusWorking || mem.Status == pod.StatusPermission {
		m.statusLine = "send blocked: " + mem.Role + " is " + mem.Status.String()
		return
	}

	key := pod.ChatKey(s.Name, mem.Role)
	snapshot, err := m.adapter.CapturePane(mem.Pane, chatCaptureTailLines)
	if err != nil {
		m.statusLine = "send failed: " + err.Error()
		return
	}

	buffer := m.state.ChatBuffer
	if err := m.adapter.SendKeys(mem.Pane, buffer, true); err != nil {
		m.statusLine = "send failed: " + err.Error()
		return
	}

	m.state.ChatHistory[key] = append(m.state.ChatHistory[key], pod.ChatTurn{Text: buffer, Sent: true})
	m.state.ChatBuffer = ""
	m.chatSnapshot[key] = snapshot
	m.chatAppended[key] = 0
	m.chatIdleStreak[key] = 0
}

// pollChat implements the receive half: every Chat-mode tick, capture
// the pane tail again and append the suffix that's new relative to the
// send-time snapshot, stopping once Idle has held for two consecutive
// classifications (spec.md §4.10).
func (m *Model) pollChat() {
	s := m.focusedSession()
	if s == nil {
		return
	}
	mem := s.MemberByRole(m.state.FocusedMember)
	if mem == nil {
		return
	}
	key := pod.ChatKey(s.Name, mem.Role)
	snapshot, ok := m.chatSnapshot[key]
	if !ok {
		return // nothing sent yet this Chat session
	}
	if m.chatIdleStreak[key] >= chatIdleCompleteStreak {
		return // response already marked complete
	}

	tail, err := m.adapter.CapturePane(mem.Pane, chatCaptureTailLines)
	if err != nil {
		return
	}

	diff := diffLines(snapshot, tail)
	appended := m.chatAppended[key]
	if appended < len(diff) {
		for _, line := range diff[appended:] {
			if strings.TrimSpace(line) != "" {
				m.state.ChatHistory[key] = append(m.state.ChatHistory[key], pod.ChatTurn{Text: line, Sent: false})
			}
		}
		m.chatAppended[key] = len(diff)
	}

	status, _ := detect.Classify(tail, m.rules, mem.Role)
	if status == pod.StatusIdle {
		m.chatIdleStreak[key]++
	} else {
		m.chatIdleStreak[key] = 0
	}
}

// diffLines returns the suffix of tail's lines that doesn't occur as a
// line-aligned prefix match against snapshot — equivalently, a
// line-level diff with the common prefix trimmed (spec.md §4.10).
func diffLines(snapshot, tail string) []string {
	snapLines := strings.Split(snapshot, "\n")
	tailLines := strings.Split(tail, "\n")

	i := 0
	for i < len(snapLines) && i < len(tailLines) && snapLines[i] == tailLines[i] {
		i++
	}
	return tailLines[i:]
}
