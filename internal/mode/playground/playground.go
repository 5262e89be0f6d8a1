// Package playground provides an interactive demo of the reactive store:
// mutations, reverts, memoized derivations, and state file hot-reload.
package playground

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/strand/internal/config"
	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/pubsub"
	"github.com/zjrosen/strand/internal/statefile"
	"github.com/zjrosen/strand/store"
)

// names the playground cycles through with the 'n' key.
var names = []string{"Ada", "Grace", "Alan", "Edsger"}

// KeyMap defines the playground keybindings.
type KeyMap struct {
	Increment key.Binding
	Decrement key.Binding
	CycleName key.Binding
	CycleLang key.Binding
	Undo      key.Binding
	Save      key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default playground keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Increment: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "increment count"),
		),
		Decrement: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "decrement count"),
		),
		CycleName: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "cycle name"),
		),
		CycleLang: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "cycle language"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "revert last change"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save state file"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload state file"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Increment, k.CycleLang, k.Undo, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Increment, k.Decrement, k.CycleName, k.CycleLang},
		{k.Undo, k.Save, k.Reload, k.Quit},
	}
}

// stateReloadedMsg signals that the state file changed on disk.
type stateReloadedMsg struct{}

// Model holds the playground state.
type Model struct {
	cfg config.PlaygroundConfig
	st  *store.Store

	// Bound selectors demonstrating memoization: greeting only gets a new
	// value when name or language actually change.
	countBinding    *store.Binding
	greetingBinding *store.Binding

	listener *pubsub.ContinuousListener[store.ChangeEvent]
	cancel   context.CancelFunc
	reload   <-chan struct{}

	keys KeyMap
	help help.Model

	lastRevert store.Revert
	lastAction string
	events     []string

	width    int
	height   int
	quitting bool
}

// New creates a playground over the given store.
func New(cfg config.PlaygroundConfig, st *store.Store) Model {
	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		cfg: cfg,
		st:  st,
		countBinding: st.Bind(func(s store.State) any {
			return s["count"]
		}),
		greetingBinding: st.Bind(func(s store.State) any {
			lang, _ := s["language"].(string)
			name, _ := s["name"].(string)
			return Greeting(lang, name)
		}),
		listener: pubsub.NewContinuousListener(ctx, st.Events()),
		cancel:   cancel,
		keys:     DefaultKeyMap(),
		help:     help.New(),
	}
}

// WithReloadChannel attaches the watcher's change channel for hot-reload.
func (m Model) WithReloadChannel(ch <-chan struct{}) Model {
	m.reload = ch
	return m
}

// Close releases the model's bindings and broker subscription.
func (m *Model) Close() {
	m.countBinding.Close()
	m.greetingBinding.Close()
	m.cancel()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listener.Listen(), waitReload(m.reload))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case pubsub.Event[store.ChangeEvent]:
		m.events = append(m.events, formatChange(msg))
		if len(m.events) > 5 {
			m.events = m.events[len(m.events)-5:]
		}
		return m, m.listener.Listen()

	case stateReloadedMsg:
		m.rehydrate()
		return m, waitReload(m.reload)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Increment):
		m.applyMutation("increment", func(draft store.State) {
			n, _ := draft["count"].(int)
			draft["count"] = n + 1
		})
		return m, nil

	case key.Matches(msg, m.keys.Decrement):
		m.applyMutation("decrement", func(draft store.State) {
			n, _ := draft["count"].(int)
			draft["count"] = n - 1
		})
		return m, nil

	case key.Matches(msg, m.keys.CycleName):
		current, _ := m.st.GetSnapshot().(store.State)["name"].(string)
		m.applyPatch("cycle name", store.State{"name": nextName(current)})
		return m, nil

	case key.Matches(msg, m.keys.CycleLang):
		current, _ := m.st.GetSnapshot().(store.State)["language"].(string)
		m.applyPatch("cycle language", store.State{"language": NextLanguage(current)})
		return m, nil

	case key.Matches(msg, m.keys.Undo):
		if m.lastRevert != nil {
			m.lastRevert()
			m.lastRevert = nil
			m.lastAction = "reverted last change"
		} else {
			m.lastAction = "nothing to revert"
		}
		return m, nil

	case key.Matches(msg, m.keys.Save):
		state, _ := m.st.GetSnapshot().(store.State)
		if err := statefile.Save(m.cfg.StateFile, state); err != nil {
			log.ErrorErr(log.CatUI, "Failed to save state", err, "path", m.cfg.StateFile)
			m.lastAction = "save failed: " + err.Error()
		} else {
			m.lastAction = "saved " + m.cfg.StateFile
		}
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		m.rehydrate()
		return m, nil
	}

	return m, nil
}

func (m *Model) applyMutation(action string, fn store.Mutator) {
	revert, err := m.st.Mutate(fn)
	if err != nil {
		log.ErrorErr(log.CatUI, "Mutation failed", err, "action", action)
		m.lastAction = action + " failed: " + err.Error()
		return
	}
	m.lastRevert = revert
	m.lastAction = action
}

func (m *Model) applyPatch(action string, partial store.State) {
	revert, err := m.st.Patch(partial)
	if err != nil {
		log.ErrorErr(log.CatUI, "Patch failed", err, "action", action)
		m.lastAction = action + " failed: " + err.Error()
		return
	}
	m.lastRevert = revert
	m.lastAction = action
}

// rehydrate re-loads the state file into the store. The shared instance
// keeps its identity, so bindings and subscriptions survive the reload.
func (m *Model) rehydrate() {
	state, err := statefile.Load(m.cfg.StateFile)
	if err != nil {
		log.ErrorErr(log.CatUI, "Failed to reload state", err, "path", m.cfg.StateFile)
		m.lastAction = "reload failed: " + err.Error()
		return
	}
	if _, err := m.st.Patch(state); err != nil {
		m.lastAction = "reload failed: " + err.Error()
		return
	}
	m.lastRevert = nil
	m.lastAction = "reloaded " + m.cfg.StateFile
}

func nextName(current string) string {
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func formatChange(event pubsub.Event[store.ChangeEvent]) string {
	label := "commit"
	if event.Type == pubsub.StateRevertedEvent {
		label = "revert"
	}
	return fmt.Sprintf("r%d %s (%d patches)", event.Payload.Revision, label, len(event.Payload.Patches))
}

func waitReload(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; ok {
			return stateReloadedMsg{}
		}
		return nil
	}
}
