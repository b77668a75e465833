package ui

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Cyclone1070/dockerws/internal/bridge"
	"github.com/Cyclone1070/dockerws/internal/config"
	"github.com/Cyclone1070/dockerws/internal/remote"
	"github.com/Cyclone1070/dockerws/internal/ui/models"
	"github.com/Cyclone1070/dockerws/internal/ui/services"
	"github.com/Cyclone1070/dockerws/internal/ui/views"
)

// BubbleTeaModel implements tea.Model
type BubbleTeaModel struct {
	state models.State

	ctx      context.Context
	fs       fileSystem
	cfg      config.ExplorerConfig
	excludes *services.ExcludeMatcher
	renderer services.MarkdownRenderer

	changes <-chan []bridge.FileChange
}

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// DefaultSpinner is the spinner shown while remote calls run.
func DefaultSpinner() spinner.Model {
	return spinner.New(spinner.WithSpinner(spinner.Dot))
}

func newBubbleTeaModel(
	ctx context.Context,
	fs fileSystem,
	root bridge.URI,
	cfg config.ExplorerConfig,
	changes <-chan []bridge.FileChange,
	renderer services.MarkdownRenderer,
	spinnerFactory SpinnerFactory,
) BubbleTeaModel {
	ti := textinput.New()
	ti.Placeholder = "directory name"
	ti.CharLimit = 255

	return BubbleTeaModel{
		state: models.State{
			Root:     root,
			Dir:      root,
			Input:    ti,
			Viewport: viewport.New(80, 20),
			Spinner:  spinnerFactory(),
		},
		ctx:      ctx,
		fs:       fs,
		cfg:      cfg,
		excludes: services.NewExcludeMatcher(cfg.Exclude),
		renderer: renderer,
		changes:  changes,
	}
}

// Internal messages
type dirLoadedMsg struct {
	dir     bridge.URI
	entries []remote.DirEntry
	err     error
}

type previewLoadedMsg struct {
	uri     bridge.URI
	content []byte
	err     error
}

type opDoneMsg struct {
	status string
	err    error
}

type changesMsg []bridge.FileChange

// Init loads the root directory and starts listening for changes.
func (m BubbleTeaModel) Init() tea.Cmd {
	return tea.Batch(
		m.state.Spinner.Tick,
		m.loadDirectory(m.state.Dir),
		listenForChanges(m.changes),
	)
}

// View renders the UI
func (m BubbleTeaModel) View() string {
	return views.RenderRoot(m.state)
}

// Update handles messages
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.state.Viewport.Width = max(msg.Width-max(msg.Width/3, 20)-2, 10)
		m.state.Viewport.Height = max(msg.Height-3, 1)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd

	case dirLoadedMsg:
		m.state.Pending = max(m.state.Pending-1, 0)
		if msg.dir != m.state.Dir {
			// A newer navigation superseded this load.
			return m, nil
		}
		if msg.err != nil {
			m.state.Err = msg.err
			return m, nil
		}
		m.state.Err = nil
		m.setEntries(msg.entries)
		return m, nil

	case previewLoadedMsg:
		m.state.Pending = max(m.state.Pending-1, 0)
		if msg.err != nil {
			m.state.Err = msg.err
			return m, nil
		}
		m.state.Err = nil
		m.state.StatusMessage = ""
		m.state.PreviewURI = msg.uri
		p := services.RenderPreview(msg.uri.Path, msg.content, int(m.cfg.MaxPreviewSize), m.state.Viewport.Width, m.renderer)
		m.state.Viewport.SetContent(p.Body)
		m.state.Viewport.GotoTop()
		return m, nil

	case opDoneMsg:
		m.state.Pending = max(m.state.Pending-1, 0)
		m.state.Err = msg.err
		if msg.err == nil {
			m.state.StatusMessage = msg.status
		}
		return m, nil

	case changesMsg:
		next := listenForChanges(m.changes)
		if affects(msg, m.state.Dir) {
			cmd := m.reload()
			return m, tea.Batch(cmd, next)
		}
		return m, next
	}

	if m.state.Mode == models.ModeNewDirectory {
		var cmd tea.Cmd
		m.state.Input, cmd = m.state.Input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyPress handles keyboard input
func (m BubbleTeaModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state.Mode {
	case models.ModeConfirmDelete:
		return m.handleConfirmKey(msg)
	case models.ModeNewDirectory:
		return m.handleInputKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.state.Cursor > 0 {
			m.state.Cursor--
		}

	case "down", "j":
		if m.state.Cursor < len(m.state.Entries)-1 {
			m.state.Cursor++
		}

	case "pgup":
		m.state.Viewport.HalfViewUp()

	case "pgdown":
		m.state.Viewport.HalfViewDown()

	case "enter", "right", "l":
		e, ok := m.state.Selected()
		if !ok {
			return m, nil
		}
		if e.IsDirectory() {
			return m.navigate(e.URI)
		}
		m.state.Pending++
		m.state.StatusMessage = "reading " + e.URI.Base()
		return m, tea.Batch(m.state.Spinner.Tick, m.loadPreview(e.URI))

	case "backspace", "left", "h":
		if m.state.Dir.Path == "/" {
			return m, nil
		}
		return m.navigate(m.state.Dir.Parent())

	case "r":
		m.state.StatusMessage = ""
		cmd := m.reload()
		return m, cmd

	case "d":
		if _, ok := m.state.Selected(); ok {
			m.state.Mode = models.ModeConfirmDelete
		}

	case "n":
		m.state.Mode = models.ModeNewDirectory
		m.state.Input.SetValue("")
		cmd := m.state.Input.Focus()
		return m, cmd
	}

	return m, nil
}

func (m BubbleTeaModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.state.Mode = models.ModeBrowse
		e, ok := m.state.Selected()
		if !ok {
			return m, nil
		}
		m.state.Pending++
		m.state.StatusMessage = "deleting " + e.URI.Base()
		return m, tea.Batch(m.state.Spinner.Tick, m.deleteEntry(e.URI))
	case "n", "esc":
		m.state.Mode = models.ModeBrowse
	}
	return m, nil
}

func (m BubbleTeaModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state.Mode = models.ModeBrowse
		m.state.Input.Blur()
		return m, nil

	case "enter":
		name := strings.TrimSpace(m.state.Input.Value())
		m.state.Mode = models.ModeBrowse
		m.state.Input.Blur()
		if name == "" {
			return m, nil
		}
		if strings.Contains(name, "/") {
			m.state.Err = errors.New("directory name must not contain /")
			return m, nil
		}
		m.state.Pending++
		m.state.StatusMessage = "creating " + name
		return m, tea.Batch(m.state.Spinner.Tick, m.createDirectory(m.state.Dir.Join(name)))
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

func (m BubbleTeaModel) navigate(dir bridge.URI) (tea.Model, tea.Cmd) {
	m.state.Dir = dir
	m.state.Entries = nil
	m.state.Cursor = 0
	m.state.Hidden = 0
	m.state.PreviewURI = bridge.URI{}
	m.state.StatusMessage = ""
	cmd := m.reload()
	return m, cmd
}

func (m *BubbleTeaModel) reload() tea.Cmd {
	m.state.Pending++
	return tea.Batch(m.state.Spinner.Tick, m.loadDirectory(m.state.Dir))
}

// setEntries applies exclusion and ordering, keeping the cursor on the same
// name when it survives a refresh.
func (m *BubbleTeaModel) setEntries(entries []remote.DirEntry) {
	var selected string
	if e, ok := m.state.Selected(); ok {
		selected = e.URI.Path
	}

	visible := make([]models.Entry, 0, len(entries))
	hidden := 0
	for _, de := range entries {
		e := models.Entry{URI: m.state.Dir.WithPath(de.Name), Kind: de.Kind}
		if m.excludes.ShouldExclude(m.relative(de.Name), e.IsDirectory()) {
			hidden++
			continue
		}
		visible = append(visible, e)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsDirectory() != visible[j].IsDirectory() {
			return visible[i].IsDirectory()
		}
		return visible[i].URI.Path < visible[j].URI.Path
	})

	m.state.Entries = visible
	m.state.Hidden = hidden
	m.state.Cursor = 0
	for i, e := range visible {
		if e.URI.Path == selected {
			m.state.Cursor = i
			break
		}
	}
}

func (m BubbleTeaModel) relative(p string) string {
	root := m.state.Root.Path
	if root == "/" {
		return strings.TrimPrefix(p, "/")
	}
	if rel, ok := strings.CutPrefix(p, root+"/"); ok {
		return rel
	}
	return path.Base(p)
}

// affects reports whether any change touches an entry listed in dir.
func affects(changes []bridge.FileChange, dir bridge.URI) bool {
	for _, c := range changes {
		if c.URI == dir || c.URI.Parent() == dir {
			return true
		}
	}
	return false
}

// Commands running remote calls off the UI loop.

func (m BubbleTeaModel) loadDirectory(dir bridge.URI) tea.Cmd {
	return func() tea.Msg {
		entries, err := m.fs.ReadDirectory(m.ctx, dir)
		return dirLoadedMsg{dir: dir, entries: entries, err: err}
	}
}

func (m BubbleTeaModel) loadPreview(uri bridge.URI) tea.Cmd {
	return func() tea.Msg {
		content, err := m.fs.ReadFile(m.ctx, uri)
		return previewLoadedMsg{uri: uri, content: content, err: err}
	}
}

func (m BubbleTeaModel) deleteEntry(uri bridge.URI) tea.Cmd {
	return func() tea.Msg {
		err := m.fs.Delete(m.ctx, uri, bridge.DeleteOptions{Recursive: true})
		return opDoneMsg{status: "deleted " + uri.Base(), err: err}
	}
}

func (m BubbleTeaModel) createDirectory(uri bridge.URI) tea.Cmd {
	return func() tea.Msg {
		err := m.fs.CreateDirectory(m.ctx, uri)
		return opDoneMsg{status: "created " + uri.Base(), err: err}
	}
}

func listenForChanges(ch <-chan []bridge.FileChange) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		batch, ok := <-ch
		if !ok {
			return nil
		}
		return changesMsg(batch)
	}
}
