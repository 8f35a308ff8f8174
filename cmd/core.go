// Package cmd implements the non-interactive CLI surface (spec.md §6's
// external-interfaces table): create, adopt, drop, list, status. Each
// subcommand operates on the same Store/Adapter the TUI uses, so a
// session created here shows up in the dashboard on its next reload
// and vice versa.
package cmd

import (
	"apiary/config"
	"apiary/pod"
	"apiary/store"
	"apiary/tmux"
	"fmt"
	"os"
)

func newStore() *store.Store {
	st, err := store.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "apiary: store:", err)
		os.Exit(1)
	}
	return st
}

func newAdapter() *tmux.Adapter {
	return tmux.New()
}

// loadState rebuilds an AppState from the Store, the same way
// app.New does for the TUI (spec.md §4.2's reconciliation path).
func loadState(str *store.Store) *pod.AppState {
	state := pod.NewAppState()
	doc, err := str.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "apiary: warning: store load:", err)
	}
	store.Apply(state, store.Reconcile(doc, state))
	return state
}

func saveState(str *store.Store, state *pod.AppState) error {
	return str.Save(store.ToDocument(state))
}

func loadConfig() *config.Config {
	return config.Load()
}
