// Package tui is an interactive terminal view over a cart.Store.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Makepad-fr/gomarket/internal/cart"
	"github.com/Makepad-fr/gomarket/internal/model"
	"github.com/Makepad-fr/gomarket/internal/ui"
)

// listItem adapts a cart line to bubbles/list.Item
type listItem struct {
	model.LineItem
}

func (i listItem) Title() string       { return i.LineItem.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.LineItem.Title }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	line := fmt.Sprintf("%s %s  %s %s",
		qtyStyle.Render(fmt.Sprintf("%3dx", it.Quantity)),
		ui.Truncate(it.LineItem.Title, 48),
		mutedStyle.Render("@ "+ui.Money(it.Price)),
		priceStyle.Render("= "+ui.Money(it.Subtotal())),
	)
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

// loadedMsg, changedMsg and snapshotMsg carry committed carts back into
// Update. They may arrive in any order; the revision decides which one shows.
type loadedMsg struct {
	snap cart.Snapshot
	err  error
}

type changedMsg struct {
	op   string
	snap cart.Snapshot
	err  error
}

// snapshotMsg is pushed by the store after every commit, including ones made
// outside this model.
type snapshotMsg struct {
	snap cart.Snapshot
}

// Model is the Bubble Tea model. Every mutation goes straight to the store
// as a command; the list only mirrors the store's snapshots.
type Model struct {
	ctx   context.Context
	store *cart.Store
	newID func() string

	list    list.Model
	loaded  bool
	rev     uint64 // revision of the snapshot on screen
	status  string
	isError bool

	// Inline add
	adding bool
	ti     textinput.Model
	addErr string

	// Undo support (single-level)
	undoItem *model.LineItem
}

var (
	addBind  = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	incBind  = key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more"))
	decBind  = key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less"))
	delBind  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove"))
	undoBind = key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo"))
)

// New builds the model. The store is loaded by Init, so the first frame does
// not wait on storage.
func New(ctx context.Context, s *cart.Store) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Cart (loading…)"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("product", "products")

	binds := func() []key.Binding { return []key.Binding{incBind, decBind, addBind, delBind, undoBind} }
	l.AdditionalShortHelpKeys = binds
	l.AdditionalFullHelpKeys = binds

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Title, price"
	ti.CharLimit = 200

	return Model{
		ctx:   ctx,
		store: s,
		newID: uuid.NewString,
		list:  l,
		ti:    ti,
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, s *cart.Store) error {
	p := tea.NewProgram(New(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
	watch(s, p.Send)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// watch forwards every commit of s to send. Subscribers run under the store
// lock and send blocks until the program reads, so each snapshot goes out on
// its own goroutine.
func watch(s *cart.Store, send func(tea.Msg)) {
	s.Subscribe(func(snap cart.Snapshot) {
		go send(snapshotMsg{snap: snap})
	})
}

func (m Model) Init() tea.Cmd {
	ctx, s := m.ctx, m.store
	return func() tea.Msg {
		err := s.Load(ctx)
		return loadedMsg{snap: s.Snapshot(), err: err}
	}
}

// mutate runs op against the store off the update loop.
func (m Model) mutate(name string, op func(ctx context.Context) error) tea.Cmd {
	ctx, s := m.ctx, m.store
	return func() tea.Msg {
		err := op(ctx)
		return changedMsg{op: name, snap: s.Snapshot(), err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := frameStyle.GetFrameSize()
		listHeight := msg.Height - v - 2
		if m.adding {
			listHeight -= 4
		}
		m.list.SetSize(msg.Width-h, listHeight)
		return m, nil

	case loadedMsg:
		m.loaded = true
		m.setStatus("", msg.err)
		if errors.Is(msg.err, cart.ErrCorruptState) {
			m.setStatus("", errors.New("saved cart was unreadable, starting empty"))
		}
		cmd := m.applySnapshot(msg.snap)
		return m, cmd

	case changedMsg:
		m.setStatus(msg.op, msg.err)
		cmd := m.applySnapshot(msg.snap)
		return m, cmd

	case snapshotMsg:
		cmd := m.applySnapshot(msg.snap)
		return m, cmd
	}

	if m.adding {
		return m.updateAdding(msg)
	}

	km, isKey := msg.(tea.KeyMsg)
	if !isKey || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch km.String() {
	case "q", "esc":
		if m.list.FilterState() == list.FilterApplied && km.String() == "esc" {
			break
		}
		return m, tea.Quit
	case "ctrl+c":
		return m, tea.Quit
	case "+", "=":
		if it, ok := m.selected(); ok {
			return m, m.mutate("increment", func(ctx context.Context) error { return m.store.Increment(ctx, it.ID) })
		}
		return m, nil
	case "-":
		if it, ok := m.selected(); ok {
			if it.Quantity <= 1 {
				m.rememberForUndo(it)
			}
			return m, m.mutate("decrement", func(ctx context.Context) error { return m.store.Decrement(ctx, it.ID) })
		}
		return m, nil
	case "d":
		if it, ok := m.selected(); ok {
			m.rememberForUndo(it)
			return m, m.mutate("remove", func(ctx context.Context) error { return m.store.Remove(ctx, it.ID) })
		}
		return m, nil
	case "u":
		if m.undoItem != nil {
			it := *m.undoItem
			m.undoItem = nil
			return m, m.mutate("undo", func(ctx context.Context) error { return m.store.AddToCart(ctx, it) })
		}
		return m, nil
	case "a":
		m.adding = true
		m.addErr = ""
		m.ti.SetValue("")
		cmd := m.ti.Focus()
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if x, ok := msg.(tea.KeyMsg); ok {
		switch x.String() {
		case "enter":
			item, err := parseAddInput(m.ti.Value(), m.newID)
			if err != nil {
				m.addErr = err.Error()
				return m, nil
			}
			m.adding = false
			m.addErr = ""
			m.ti.SetValue("")
			m.ti.Blur()
			return m, m.mutate("add", func(ctx context.Context) error { return m.store.AddToCart(ctx, item) })
		case "esc":
			m.adding = false
			m.addErr = ""
			m.ti.SetValue("")
			m.ti.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	content := m.list.View()
	if m.adding {
		title := "Add product"
		if m.addErr != "" {
			title += "  " + errorStyle.Render(m.addErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	if m.status != "" {
		style := mutedStyle
		if m.isError {
			style = errorStyle
		}
		content += "\n" + style.Render(m.status)
	}
	return panelString(content)
}

// applySnapshot shows snap unless something newer is already on screen.
func (m *Model) applySnapshot(snap cart.Snapshot) tea.Cmd {
	if snap.Rev < m.rev {
		return nil
	}
	m.rev = snap.Rev
	return m.setItems(snap.Items)
}

func (m *Model) setItems(items []model.LineItem) tea.Cmd {
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, listItem{it})
	}
	idx := m.list.Index()
	cmd := m.list.SetItems(li)
	if idx >= len(li) {
		idx = len(li) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	m.list.Title = m.header(items)
	return cmd
}

func (m *Model) setStatus(op string, err error) {
	switch {
	case errors.Is(err, cart.ErrPersist):
		m.status, m.isError = "not saved: "+err.Error(), true
	case err != nil:
		m.status, m.isError = err.Error(), true
	case op != "":
		m.status, m.isError = successStyle.Render("✔ ")+op, false
	default:
		m.status, m.isError = "", false
	}
}

// header shows the counts of the list on screen, like the cart badge in a
// storefront.
func (m Model) header(items []model.LineItem) string {
	if !m.loaded {
		return "Cart (loading…)"
	}
	var count int
	var total float64
	for _, it := range items {
		count += it.Quantity
		total += it.Subtotal()
	}
	return fmt.Sprintf("%s   %s %d  %s %s",
		titleStyle.Render("Cart"),
		qtyStyle.Render("items"), count,
		accentStyle.Render("total"), priceStyle.Render(ui.Money(total)),
	)
}

func (m Model) selected() (model.LineItem, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.LineItem{}, false
	}
	return li.LineItem, true
}

func (m *Model) rememberForUndo(it model.LineItem) {
	tmp := it
	m.undoItem = &tmp
}

// parseAddInput reads "Title, price". The price is optional and defaults to 0.
func parseAddInput(s string, newID func() string) (model.LineItem, error) {
	s = strings.TrimSpace(s)
	title, price := s, 0.0
	if i := strings.LastIndex(s, ","); i >= 0 {
		raw := strings.TrimSpace(s[i+1:])
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.LineItem{}, fmt.Errorf("price %q is not a number", raw)
		}
		title, price = strings.TrimSpace(s[:i]), p
	}
	switch {
	case title == "":
		return model.LineItem{}, errors.New("title cannot be empty")
	case price < 0:
		return model.LineItem{}, errors.New("price cannot be negative")
	}
	item := model.LineItem{ID: newID(), Title: title, Price: price, Quantity: 1}
	if err := item.Validate(); err != nil {
		return model.LineItem{}, err
	}
	return item, nil
}
