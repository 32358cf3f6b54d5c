package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/flatten"
	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/mutate"
	"github.com/pelissiertools-cpu/focus/internal/notify"
	"github.com/pelissiertools-cpu/focus/internal/reconcile"
	"github.com/pelissiertools-cpu/focus/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeSearch
	modeAdd
)

type completionMsg struct {
	ev notify.CompletionEvent
}

type persistErrsMsg struct{}

type appModel struct {
	store   store.Store
	db      *store.DB
	applier *reconcile.Applier
	bus       *notify.Bus
	events    <-chan notify.CompletionEvent
	cancelBus func()

	width          int
	height         int
	seenWindowSize bool

	rows    []flatten.Row
	outline list.Model

	expanded   map[string]bool
	search     string
	categoryID string
	// committed is "", "yes" or "no".
	committed string
	sortKey   flatten.SortKey
	sortDesc  bool

	showDetail bool

	mode        inputMode
	input       textinput.Model
	addParentID string

	statusMsg string
}

func newAppModel(s store.Store, db *store.DB) appModel {
	bus := &notify.Bus{}
	events, cancel := bus.Subscribe()

	m := appModel{
		store:     s,
		db:        db,
		applier:   &reconcile.Applier{Store: s, Bus: bus, Origin: "tui"},
		bus:       bus,
		events:    events,
		cancelBus: cancel,
		expanded:  map[string]bool{},
		sortKey:   flatten.SortManual,
	}

	if st, err := s.LoadUIState(); err == nil && st != nil {
		if st.Expanded != nil {
			m.expanded = st.Expanded
		}
		m.search = st.Search
		m.categoryID = st.CategoryID
		m.committed = st.Committed
		if st.SortKey != "" {
			m.sortKey = flatten.SortKey(st.SortKey)
		}
		m.sortDesc = st.SortDesc
		m.showDetail = st.ShowDetail
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200
	m.input = ti

	l := list.New(nil, newRowDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	m.outline = l

	m.refresh("")
	return m
}

func (m appModel) saveUIState() {
	_ = m.store.SaveUIState(&store.UIState{
		Expanded:   m.expanded,
		Search:     m.search,
		CategoryID: m.categoryID,
		Committed:  m.committed,
		SortKey:    string(m.sortKey),
		SortDesc:   m.sortDesc,
		ShowDetail: m.showDetail,
	})
}

func (m appModel) Init() tea.Cmd {
	return m.listenBus()
}

func (m appModel) listenBus() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return completionMsg{ev: ev}
	}
}

func persistErrsTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return persistErrsMsg{}
	})
}

// refresh rebuilds the flattened rows and list items, keeping the selection
// on keepID (or on the previously selected row) when it survives.
func (m *appModel) refresh(keepID string) {
	if keepID == "" {
		keepID = m.selectedItemID()
	}

	parents := m.db.SiblingScope("", false)
	// Completed top-level items stay reachable at the bottom, otherwise
	// nothing could ever un-complete them.
	parents = append(parents, m.db.SiblingScope("", true)...)

	childrenByParent := map[string][]*model.Item{}
	for _, p := range parents {
		childrenByParent[p.ID] = m.db.ChildrenOf(p.ID)
	}

	f := flatten.Filters{CategoryID: m.categoryID, Search: m.search}
	switch m.committed {
	case "yes":
		yes := true
		f.Committed = &yes
	case "no":
		no := false
		f.Committed = &no
	}
	committed := m.db.CommittedSet()
	m.rows = flatten.Project(parents, childrenByParent, m.expanded, committed, f, flatten.Sort{
		Key:  m.sortKey,
		Desc: m.sortDesc,
	})

	items := make([]list.Item, 0, len(m.rows))
	keepIdx := -1
	for i, r := range m.rows {
		muted := r.Item == nil || r.Item.IsCompleted
		items = append(items, rowItem{
			row:   r,
			text:  composeRowText(r, m.expanded, committed),
			muted: muted,
		})
		if r.Item != nil && r.Item.ID == keepID {
			keepIdx = i
		}
	}
	m.outline.SetItems(items)
	if keepIdx >= 0 {
		m.outline.Select(keepIdx)
	} else if m.outline.Index() >= len(items) && len(items) > 0 {
		m.outline.Select(len(items) - 1)
	}
}

func (m *appModel) selectedRow() (flatten.Row, bool) {
	idx := m.outline.Index()
	if idx < 0 || idx >= len(m.rows) {
		return flatten.Row{}, false
	}
	return m.rows[idx], true
}

func (m *appModel) selectedItemID() string {
	if r, ok := m.selectedRow(); ok && r.Item != nil {
		return r.Item.ID
	}
	return ""
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.seenWindowSize = true
		m.layout()
		return m, nil

	case completionMsg:
		// A change from another surface, or the echo of our own. Either way
		// the in-memory state already moved; just re-project.
		m.refresh("")
		return m, m.listenBus()

	case persistErrsMsg:
		if errs := m.applier.Errs(); len(errs) > 0 {
			m.statusMsg = "save failed: " + errs[0].Error()
		}
		// A write can outlive its first tick; keep polling until the
		// applier drains.
		if m.applier.Pending() > 0 {
			return m, persistErrsTick()
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m.updateInput(msg)
		}
		return m.updateNormal(msg)
	}

	var cmd tea.Cmd
	m.outline, cmd = m.outline.Update(msg)
	return m, cmd
}

func (m *appModel) layout() {
	h := m.height - 2 // header + footer
	if m.showDetail {
		h -= m.detailHeight()
	}
	if m.mode != modeNormal {
		h--
	}
	if h < 1 {
		h = 1
	}
	m.outline.SetSize(m.width, h)
}

func (m appModel) detailHeight() int {
	h := m.height / 3
	if h < 6 {
		h = 6
	}
	return h
}

func (m appModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		// Closes the events channel, which releases the listenBus goroutine.
		m.cancelBus()
		return m, tea.Quit

	case " ", "x":
		return m.toggleSelected()

	case "enter", "tab":
		r, ok := m.selectedRow()
		if !ok {
			break
		}
		switch r.Type {
		case flatten.RowParent:
			m.expanded[r.Item.ID] = !m.expanded[r.Item.ID]
			m.refresh(r.Item.ID)
		case flatten.RowAddChild:
			m.addParentID = r.ParentID
			m.startInput(modeAdd, "")
		}
		return m, nil

	case "a":
		m.addParentID = ""
		if r, ok := m.selectedRow(); ok && r.Type == flatten.RowChild {
			m.addParentID = r.ParentID
		}
		m.startInput(modeAdd, "")
		return m, nil

	case "J":
		return m.moveSelected(1)
	case "K":
		return m.moveSelected(-1)

	case "/":
		m.startInput(modeSearch, m.search)
		return m, nil

	case "c":
		m.categoryID = nextCategory(m.db.Categories, m.categoryID)
		m.refresh("")
		return m, nil

	case "m":
		switch m.committed {
		case "":
			m.committed = "yes"
		case "yes":
			m.committed = "no"
		default:
			m.committed = ""
		}
		m.refresh("")
		return m, nil

	case "s":
		switch m.sortKey {
		case flatten.SortManual:
			m.sortKey = flatten.SortCreated
		case flatten.SortCreated:
			m.sortKey = flatten.SortPriority
		default:
			m.sortKey = flatten.SortManual
		}
		m.refresh("")
		return m, nil

	case "S":
		m.sortDesc = !m.sortDesc
		m.refresh("")
		return m, nil

	case "d":
		m.showDetail = !m.showDetail
		m.layout()
		return m, nil

	case "esc":
		if m.search != "" {
			m.search = ""
			m.refresh("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.outline, cmd = m.outline.Update(msg)
	return m, cmd
}

func (m *appModel) startInput(mode inputMode, initial string) {
	m.mode = mode
	m.input.SetValue(initial)
	m.input.CursorEnd()
	m.input.Focus()
	m.layout()
}

func (m *appModel) stopInput() {
	m.mode = modeNormal
	m.input.Blur()
	m.input.SetValue("")
	m.layout()
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopInput()
		return m, nil

	case "enter":
		value := m.input.Value()
		mode := m.mode
		parentID := m.addParentID
		m.stopInput()

		switch mode {
		case modeSearch:
			m.search = strings.TrimSpace(value)
			m.refresh("")
			return m, nil
		case modeAdd:
			it, ch, err := mutate.Create(m.db, mutate.CreateInput{
				Title:    value,
				ParentID: parentID,
			}, time.Now().UTC())
			if err != nil {
				m.statusMsg = err.Error()
				return m, nil
			}
			m.applier.Apply("item.add", ch)
			if parentID != "" {
				m.expanded[parentID] = true
			}
			m.refresh(it.ID)
			return m, persistErrsTick()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) toggleSelected() (tea.Model, tea.Cmd) {
	r, ok := m.selectedRow()
	if !ok || r.Item == nil {
		return m, nil
	}
	ch, err := mutate.Toggle(m.db, r.Item.ID, time.Now().UTC())
	if err != nil {
		m.statusMsg = err.Error()
		return m, nil
	}
	m.applier.Apply("item.toggle", ch)
	m.refresh(r.Item.ID)
	return m, persistErrsTick()
}

// moveSelected moves the selected row one visible position in its sibling
// scope. Crossing into another scope is a no-op by design.
func (m appModel) moveSelected(delta int) (tea.Model, tea.Cmd) {
	from := m.outline.Index()
	mv, ok := flatten.TranslateMove(m.rows, from, from+delta)
	if !ok {
		return m, nil
	}
	ch, err := mutate.Reorder(m.db, mv.ParentID, mv.DroppedID, mv.TargetID)
	if err != nil {
		m.statusMsg = err.Error()
		return m, nil
	}
	if ch.Empty() {
		return m, nil
	}
	m.applier.Apply("item.move", ch)
	m.refresh(mv.DroppedID)
	return m, persistErrsTick()
}

func nextCategory(cats []model.Category, current string) string {
	if len(cats) == 0 {
		return ""
	}
	if current == "" {
		return cats[0].ID
	}
	for i, c := range cats {
		if c.ID == current {
			if i+1 < len(cats) {
				return cats[i+1].ID
			}
			return ""
		}
	}
	return ""
}

func (m appModel) View() string {
	if !m.seenWindowSize {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.outline.View())
	b.WriteString("\n")
	if m.showDetail {
		b.WriteString(m.detailView())
		b.WriteString("\n")
	}
	if m.mode != modeNormal {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.footerView())
	return b.String()
}

func (m appModel) headerView() string {
	parts := []string{"focus"}
	if m.search != "" {
		parts = append(parts, fmt.Sprintf("search:%s", m.search))
	}
	if m.categoryID != "" {
		name := m.categoryID
		if c, ok := m.db.FindCategory(m.categoryID); ok {
			name = c.Name
		}
		parts = append(parts, "category:"+name)
	}
	if m.committed != "" {
		parts = append(parts, "committed:"+m.committed)
	}
	if m.sortKey != flatten.SortManual || m.sortDesc {
		dir := ""
		if m.sortDesc {
			dir = " desc"
		}
		parts = append(parts, "sort:"+string(m.sortKey)+dir)
	}

	st := lipgloss.NewStyle().Bold(true)
	if hasColor() {
		st = st.Foreground(colorAccent)
	}
	return st.Render(strings.Join(parts, "  "))
}

func (m appModel) detailView() string {
	h := m.detailHeight()
	r, ok := m.selectedRow()
	if !ok || r.Item == nil {
		return strings.Repeat("\n", h-1)
	}
	it := r.Item

	var b strings.Builder
	title := it.Title
	if it.IsCompleted && it.CompletedAt != nil {
		title += "  (done " + it.CompletedAt.Format("2006-01-02 15:04") + ")"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n")
	if it.Notes != "" {
		b.WriteString(renderMarkdown(it.Notes, m.width-2))
	} else {
		b.WriteString(faintIfDark(lipgloss.NewStyle().Foreground(colorMuted)).Render("no notes"))
	}

	lines := strings.Split(b.String(), "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m appModel) footerView() string {
	hint := "space toggle  J/K move  enter expand  a add  / search  c cat  m committed  s sort  d detail  q quit"
	if m.statusMsg != "" {
		hint = m.statusMsg
	}
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted)).Render(hint)
}
