package app

import (
	"apiary/keys"
	"apiary/pod"
	"apiary/store"
	"apiary/ui"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// onKey routes a key event to whichever input surface is active. Home's
// command buffer and Chat's input buffer both consume printable runes
// directly rather than through keys.Dispatch's Action enum (keys.go
// documents that the caller owns this distinction), so they're handled
// before falling through to per-mode action dispatch.
func (m *Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.Mode == pod.ModeHome && m.editingCommand {
		return m.handleCommandKey(msg)
	}
	if m.state.Mode == pod.ModeChat {
		return m.handleChatKey(msg)
	}

	action := keys.Dispatch(m.state.Mode, msg)
	return m.handleAction(action)
}

func (m *Model) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.quit()
	case tea.KeyEnter:
		line := m.state.CommandBuffer
		m.editingCommand = false
		m.state.CommandBuffer = ""
		m.executeCommand(line)
	case tea.KeyEsc:
		m.editingCommand = false
		m.state.CommandBuffer = ""
	case tea.KeyBackspace:
		if n := len(m.state.CommandBuffer); n > 0 {
			m.state.CommandBuffer = m.state.CommandBuffer[:n-1]
		}
	case tea.KeyRunes:
		m.state.CommandBuffer += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.quit()
	case tea.KeyEsc:
		m.state.Mode = pod.ModeDetail
	case tea.KeyEnter:
		m.sendChat()
	case tea.KeyBackspace:
		if n := len(m.state.ChatBuffer); n > 0 {
			m.state.ChatBuffer = m.state.ChatBuffer[:n-1]
		}
	case tea.KeyRunes:
		m.state.ChatBuffer += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) handleAction(action keys.Action) (tea.Model, tea.Cmd) {
	switch action {
	case keys.ActionQuit:
		return m.quit()
	case keys.ActionSlash:
		if m.state.Mode == pod.ModeHome {
			m.editingCommand = true
			m.state.CommandBuffer = ""
		}
	case keys.ActionUp, keys.ActionDown, keys.ActionLeft, keys.ActionRight:
		m.moveFocus(action)
	case keys.ActionEnter:
		m.enterDetail()
	case keys.ActionChat:
		m.enterChat()
	case keys.ActionEsc:
		m.unwind()
	case keys.ActionNextAttention:
		m.focusNextAttention()
	case keys.ActionApprove:
		m.decidePermission(true)
	case keys.ActionDeny:
		m.decidePermission(false)
	case keys.ActionSkip:
		m.skipPermission()
	case keys.ActionCopyBranch:
		m.copyBranch()
	case keys.ActionHelp:
		m.prevMode = m.state.Mode
		m.state.Mode = pod.ModeHelp
	}

	m.maybeEnterPermission()
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if err := m.str.Save(store.ToDocument(m.state)); err != nil {
		m.state.LogEvent("store save on quit: " + err.Error())
	}
	m.quitting = true
	return m, tea.Quit
}

// moveFocus navigates the Session grid (spec.md §4.9: "arrows / h j k l
// navigate the grid in Home and Detail"). Up/Down move by a full row,
// computed from the same column formula the renderer uses.
func (m *Model) moveFocus(action keys.Action) {
	sessions := m.state.OrderedSessions()
	if len(sessions) == 0 {
		return
	}

	idx := 0
	for i, s := range sessions {
		if s.Name == m.state.FocusedSession {
			idx = i
			break
		}
	}

	cols := ui.ColumnCount(ui.GridWidth(m.width))
	switch action {
	case keys.ActionLeft:
		idx--
	case keys.ActionRight:
		idx++
	case keys.ActionUp:
		idx -= cols
	case keys.ActionDown:
		idx += cols
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(sessions)-1 {
		idx = len(sessions) - 1
	}

	m.state.FocusedSession = sessions[idx].Name
	m.state.FocusedMember = ""
}

// enterDetail implements Home -> Detail via Enter (spec.md §4.7).
func (m *Model) enterDetail() {
	if m.state.Mode != pod.ModeHome {
		return
	}
	s := m.focusedSession()
	if s == nil {
		return
	}
	if m.state.FocusedMember == "" && len(s.Members) > 0 {
		m.state.FocusedMember = s.Members[0].Role
	}
	m.state.Mode = pod.ModeDetail
}

// enterChat implements Detail -> Chat via 'c' (spec.md §4.7).
func (m *Model) enterChat() {
	if m.state.Mode != pod.ModeDetail {
		return
	}
	s := m.focusedSession()
	if s == nil || len(s.Members) == 0 {
		return
	}
	if m.state.FocusedMember == "" {
		m.state.FocusedMember = s.Members[0].Role
	}
	m.state.Mode = pod.ModeChat
}

// unwind implements Any -> Home via Esc, one level at a time (spec.md
// §4.7). Esc from Home is a no-op.
func (m *Model) unwind() {
	switch m.state.Mode {
	case pod.ModeChat:
		m.state.Mode = pod.ModeDetail
	case pod.ModePermission:
		if s := m.focusedSession(); s != nil {
			m.state.PermissionDismissed[s.Name] = true
		}
		m.state.Mode = pod.ModeDetail
	case pod.ModeHelp:
		m.state.Mode = m.prevMode
	case pod.ModeDetail:
		m.state.Mode = pod.ModeHome
	}
}

// focusNextAttention jumps focus to the next Session (cyclically) whose
// rollup status is Permission or Error (spec.md §4.9).
func (m *Model) focusNextAttention() {
	sessions := m.state.OrderedSessions()
	if len(sessions) == 0 {
		return
	}

	start := 0
	for i, s := range sessions {
		if s.Name == m.state.FocusedSession {
			start = i
			break
		}
	}

	for i := 1; i <= len(sessions); i++ {
		s := sessions[(start+i)%len(sessions)]
		if s.Status == pod.StatusPermission || s.Status == pod.StatusError {
			m.state.FocusedSession = s.Name
			m.state.FocusedMember = ""
			return
		}
	}
}

// decidePermission sends 'y'/'n'+Enter to every Member awaiting a
// decision in the focused Session and returns to Detail (spec.md §4.9,
// §8 scenario 3). An AdapterError here surfaces immediately, unlike
// background refresh failures (spec.md §7: "An AdapterError on keystroke
// send during Permission/Chat surfaces immediately").
func (m *Model) decidePermission(approve bool) {
	s := m.focusedSession()
	if s == nil {
		return
	}
	reply := "n"
	if approve {
		reply = "y"
	}
	for _, mem := range s.PermissionMembers() {
		if err := m.adapter.SendKeys(mem.Pane, reply, true); err != nil {
			m.statusLine = "send failed: " + err.Error()
			continue
		}
		mem.PendingPermission = nil
	}
	m.state.PermissionDismissed[s.Name] = true
	m.state.Mode = pod.ModeDetail
}

// copyBranch copies the focused Session's worktree branch name to the
// system clipboard on demand, the manual counterpart to the automatic
// copy cmdDrop/cmdForget do before removing a Session (SPEC_FULL.md §5).
func (m *Model) copyBranch() {
	s := m.focusedSession()
	if s == nil || s.Worktree == nil {
		m.statusLine = "no worktree to copy"
		return
	}
	if err := clipboard.WriteAll(s.Worktree.Branch); err != nil {
		m.statusLine = "clipboard: " + err.Error()
		return
	}
	m.statusLine = "copied branch " + s.Worktree.Branch
}

// skipPermission advances focus to the next Permission Session without
// sending anything (spec.md §4.9).
func (m *Model) skipPermission() {
	if s := m.focusedSession(); s != nil {
		m.state.PermissionDismissed[s.Name] = true
	}
	sessions := m.state.OrderedSessions()
	start := 0
	for i, s := range sessions {
		if s.Name == m.state.FocusedSession {
			start = i
			break
		}
	}
	for i := 1; i <= len(sessions); i++ {
		s := sessions[(start+i)%len(sessions)]
		if s.Status == pod.StatusPermission {
			m.state.FocusedSession = s.Name
			m.state.FocusedMember = ""
			break
		}
	}
	m.state.Mode = pod.ModeDetail
}
