// Package tui is the terminal front end. It renders holder snapshots with
// bubbles components and turns key presses into holder actions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todolist/internal/models"
	"todolist/internal/state"
)

const (
	defaultWidth  = 80
	defaultHeight = 20
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

// snapshotMsg carries fresh holder state into the update loop.
type snapshotMsg state.Snapshot

// addedMsg reports the end of an add; on failure the typed text is kept.
type addedMsg struct {
	snap state.Snapshot
	err  error
}

// listItem adapts a todo to bubbles/list.Item.
type listItem struct {
	todo     models.Todo
	updating bool
	deleting bool
}

func (i listItem) FilterValue() string { return i.todo.Text }

// Custom delegate to render each todo on a single line
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Text
	if it.todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	line := box + " " + text
	switch {
	case it.deleting:
		line += mutedStyle.Render("  deleting...")
	case it.updating:
		line += mutedStyle.Render("  saving...")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+line)
}

// Model is the bubbletea model of the todo list.
type Model struct {
	ctx    context.Context
	holder *state.Holder

	snap   state.Snapshot
	list   list.Model
	input  textinput.Model
	help   help.Model
	keys   keyMap
	mode   mode
	editID string
}

// New returns a model driving holder. Holder calls made by the model use
// ctx.
func New(ctx context.Context, holder *state.Holder) Model {
	l := list.New(nil, itemDelegate{}, defaultWidth, defaultHeight)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.PaginationStyle = helpStyle

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{
		ctx:    ctx,
		holder: holder,
		list:   l,
		input:  ti,
		help:   help.New(),
		keys:   defaultKeyMap(),
	}
	m.apply(holder.Snapshot())
	return m
}

// Run starts the terminal UI and blocks until the user quits or ctx is
// done.
func Run(ctx context.Context, holder *state.Holder) error {
	p := tea.NewProgram(New(ctx, holder), tea.WithAltScreen(), tea.WithContext(ctx))

	// Intermediate states (busy flags) arrive through the subscription.
	// Holder actions only ever run inside commands, never inside Update, so
	// Send cannot block the event loop on itself.
	unsubscribe := holder.Subscribe(func(s state.Snapshot) {
		p.Send(snapshotMsg(s))
	})
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init triggers the initial load.
func (m Model) Init() tea.Cmd {
	return m.run(func(ctx context.Context) { m.holder.EnsureLoaded(ctx) })
}

// run wraps a holder action in a command reporting the resulting snapshot.
func (m Model) run(action func(context.Context)) tea.Cmd {
	holder, ctx := m.holder, m.ctx
	return func() tea.Msg {
		action(ctx)
		return snapshotMsg(holder.Snapshot())
	}
}

func (m Model) add(text string) tea.Cmd {
	holder, ctx := m.holder, m.ctx
	return func() tea.Msg {
		_, err := holder.Add(ctx, text)
		return addedMsg{snap: holder.Snapshot(), err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.list.SetSize(msg.Width-4, max(msg.Height-10, 1))
		return m, nil
	case snapshotMsg:
		m.apply(state.Snapshot(msg))
		return m, nil
	case addedMsg:
		m.apply(msg.snap)
		if msg.err == nil && m.mode == modeAdd {
			m.closeInput()
		}
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	if m.mode != modeBrowse {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.Placeholder = "Add a new task..."
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeEdit
		m.editID = todo.ID
		m.input.Placeholder = "Edit task..."
		m.input.SetValue(todo.Text)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Toggle):
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) { _ = m.holder.ToggleComplete(ctx, todo.ID) })
	case key.Matches(msg, m.keys.Delete):
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) { _ = m.holder.Remove(ctx, todo.ID) })
	case key.Matches(msg, m.keys.Refresh):
		return m, m.run(m.holder.Load)
	case key.Matches(msg, m.keys.Dismiss):
		return m, m.run(func(context.Context) { m.holder.ClearError() })
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeInput()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if m.mode == modeAdd {
			if text == "" || m.snap.Adding {
				return m, nil
			}
			return m, m.add(text)
		}

		id := m.editID
		current, ok := m.find(id)
		m.closeInput()
		// Blank or unchanged edits are dropped and the old text stays.
		if !ok || text == "" || text == current.Text {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) { _ = m.holder.UpdateText(ctx, id, text) })
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.editID = ""
	m.input.SetValue("")
	m.input.Blur()
}

func (m *Model) apply(snap state.Snapshot) {
	m.snap = snap

	items := make([]list.Item, 0, len(snap.Todos))
	for _, todo := range snap.Todos {
		items = append(items, listItem{
			todo:     todo,
			updating: todo.ID == snap.Updating,
			deleting: todo.ID == snap.Deleting,
		})
	}
	m.list.SetItems(items)

	if m.mode == modeEdit {
		if _, ok := m.find(m.editID); !ok {
			m.closeInput()
		}
	}
}

func (m Model) selected() (models.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return models.Todo{}, false
	}
	return it.todo, true
}

func (m Model) find(id string) (models.Todo, bool) {
	for _, t := range m.snap.Todos {
		if t.ID == id {
			return t, true
		}
	}
	return models.Todo{}, false
}

func (m Model) View() string {
	var b strings.Builder

	done, pending := models.Counts(m.snap.Todos)
	fmt.Fprintf(&b, "%s   %s %d  %s %d\n",
		titleStyle.Render("Todo List"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
	)

	if m.snap.Error != "" {
		b.WriteString(errorStyle.Render("✖ "+m.snap.Error) + helpStyle.Render("  x to dismiss") + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.snap.Loading:
		b.WriteString(mutedStyle.Render("Loading..."))
	case len(m.snap.Todos) == 0:
		b.WriteString(mutedStyle.Render("No tasks yet! Press a to add one."))
	default:
		b.WriteString(m.list.View())
	}

	if m.mode != modeBrowse {
		title := "Add new item"
		if m.mode == modeEdit {
			title = "Edit item"
		}
		if m.mode == modeAdd && m.snap.Adding {
			title += mutedStyle.Render("  adding...")
		}
		b.WriteString("\n" + panelStyle.Render(title+"\n"+m.input.View()))
		b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.Submit, m.keys.Cancel}))
	} else {
		b.WriteString("\n" + m.help.ShortHelpView(append(m.keys.short(), m.keys.Quit)))
	}

	return panelStyle.Render(b.String())
}
