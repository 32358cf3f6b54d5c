package tui

import (
	"github.com/pelissiertools-cpu/focus/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

func Run(s store.Store, db *store.DB) error {
	applyGlyphPreference()
	m := newAppModel(s, db)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if am, ok := final.(appModel); ok {
		am.saveUIState()
		return am.applier.Wait()
	}
	return nil
}
