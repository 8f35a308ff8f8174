// Package app wires the Tick Engine, App State/Rollup/Mode, Input
// Dispatcher, and Chat diff-capture into a single bubbletea Model
// (spec.md §4.6-§4.10). The scheduling model is strictly
// single-threaded and cooperative (spec.md §5): one Update loop
// advances all three cadences, and every multiplexer/store call blocks
// that loop for at most its own timeout. There are no goroutines here.
package app

import (
	"apiary/config"
	"apiary/detect"
	"apiary/hooks"
	"apiary/keys"
	"apiary/log"
	"apiary/pod"
	"apiary/store"
	"apiary/tmux"
	"apiary/ui"
	"apiary/worktree"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Tick cadences (spec.md §4.6). The input/render tick drives the loop;
// selective refresh and the reload cycle piggyback on it via next-fire
// timestamps, per the scheduler design note (spec.md §9).
const (
	inputTickInterval       = 250 * time.Millisecond
	selectiveRefreshInterval = 500 * time.Millisecond
	reloadCycleInterval     = 2 * time.Second

	// errorCountThreshold surfaces a Member's adapter failures in the
	// status line once consecutive failures reach this count (spec.md
	// §5: "surfaced in the status line if >= threshold").
	errorCountThreshold = 3

	// captureTailLines bounds pane captures during selective refresh
	// (spec.md §4.1 default tail, mirrored in detect's classification
	// window).
	captureTailLines = 15

	// chatCaptureTailLines is the wider window used for Chat diff
	// capture (spec.md §4.10: "snapshot the pane tail (last ~200 lines)").
	chatCaptureTailLines = 200

	// chatIdleCompleteStreak is the number of consecutive Idle
	// classifications that mark a Chat response complete (spec.md §4.10).
	chatIdleCompleteStreak = 2
)

// Adapter is the subset of the Multiplexer Adapter the App drives.
// *tmux.Adapter satisfies it structurally; tests inject a fake (spec.md
// §9: "tests inject fakes").
type Adapter interface {
	HasSession(name string) bool
	NewSession(name, startDir string) (string, error)
	KillSession(name string) error
	ListPanes(session string) ([]tmux.Pane, error)
	CapturePane(pane string, tailLines int) (string, error)
	SendKeys(pane, text string, withEnter bool) error
}

// Model is apiary's bubbletea program state.
type Model struct {
	ctx context.Context

	adapter Adapter
	str     *store.Store
	cfg     *config.Config
	rules   *detect.Rules
	ingest  *hooks.Ingest

	state *pod.AppState

	width, height int

	spin spinner.Model

	nextRefreshAt time.Time
	nextReloadAt  time.Time

	editingCommand bool
	prevMode       pod.Mode // remembered for Help's Esc

	// chatSnapshot/chatAppended/chatIdleStreak are keyed by pod.ChatKey
	// and track one in-flight diff-capture per (session, member), per
	// spec.md §4.10.
	chatSnapshot   map[string]string
	chatAppended   map[string]int
	chatIdleStreak map[string]int

	// worktrees tracks the Worktree handle for any Session created with
	// --worktree, so `drop` can clean it up (SPEC_FULL.md §5).
	worktrees map[string]*worktree.Worktree

	statusLine string
	quitting   bool
}

// New constructs a Model from its already-loaded dependencies. Run
// builds these from scratch; New is split out so tests can inject fakes
// (spec.md §9: "tests inject fakes").
func New(ctx context.Context, adapter Adapter, str *store.Store, cfg *config.Config) *Model {
	rules := detect.NewRules(cfg.Detection.PermissionPatterns, cfg.Detection.ErrorPatterns, cfg.Detection.IdlePatterns)

	state := pod.NewAppState()
	doc, err := str.Load()
	if err != nil {
		state.LogEvent("store: " + err.Error())
	}
	store.Apply(state, store.Reconcile(doc, state))

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:            ctx,
		adapter:        adapter,
		str:            str,
		cfg:            cfg,
		rules:          rules,
		ingest:         hooks.New(hooks.DefaultPath),
		state:          state,
		spin:           sp,
		chatSnapshot:   make(map[string]string),
		chatAppended:   make(map[string]int),
		chatIdleStreak: make(map[string]int),
		worktrees:      make(map[string]*worktree.Worktree),
	}
}

// Run loads configuration and starts the TUI. It returns when the
// operator quits.
func Run(ctx context.Context) error {
	log.Initialize()
	log.InitDebug()
	defer log.Close()

	cfg := config.Load()

	st, err := store.New()
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	m := New(ctx, tmux.New(), st, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	now := time.Now()
	m.nextRefreshAt = now
	m.nextReloadAt = now
	return tea.Batch(m.spin.Tick, tickCmd())
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(inputTickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tickMsg:
		return m, m.onTick(time.Time(msg))

	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

// onTick runs the due cadences (spec.md §4.6 ordering guarantee: refresh
// applies before render within a tick) and reschedules itself.
func (m *Model) onTick(now time.Time) tea.Cmd {
	if !now.Before(m.nextRefreshAt) {
		m.selectiveRefresh(now)
		m.nextRefreshAt = now.Add(selectiveRefreshInterval)

		if !now.Before(m.nextReloadAt) {
			m.reloadCycle()
			m.nextReloadAt = now.Add(reloadCycleInterval)
		}
	}

	if m.state.Mode == pod.ModeChat {
		m.pollChat()
	}

	return tickCmd()
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	frame := ""
	if m.hasWorkingMember() {
		frame = m.spin.View()
	}
	view := ui.Render(m.state, m.width, m.height, frame)
	if m.statusLine != "" {
		view += "\n" + m.statusLine
	}
	return view
}

func (m *Model) hasWorkingMember() bool {
	for _, s := range m.state.OrderedSessions() {
		for _, mem := range s.Members {
			if mem.Status == pod.StatusWorking {
				return true
			}
		}
	}
	return false
}
