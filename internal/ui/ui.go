// Package ui implements the terminal file explorer over the container bridge.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Cyclone1070/dockerws/internal/bridge"
	"github.com/Cyclone1070/dockerws/internal/config"
	"github.com/Cyclone1070/dockerws/internal/events"
	"github.com/Cyclone1070/dockerws/internal/ui/services"
)

// changeBuffer bounds change batches waiting for the UI loop.
const changeBuffer = 16

// UI runs the explorer as a Bubble Tea program.
type UI struct {
	fs       fileSystem
	root     bridge.URI
	cfg      config.ExplorerConfig
	renderer services.MarkdownRenderer
	spinners SpinnerFactory
}

// NewUI creates the explorer rooted at root.
func NewUI(
	fs fileSystem,
	root bridge.URI,
	cfg config.ExplorerConfig,
	renderer services.MarkdownRenderer,
	spinnerFactory SpinnerFactory,
) *UI {
	if fs == nil {
		panic("fs is required")
	}
	if spinnerFactory == nil {
		panic("spinnerFactory is required")
	}
	return &UI{
		fs:       fs,
		root:     root,
		cfg:      cfg,
		renderer: renderer,
		spinners: spinnerFactory,
	}
}

// Start runs the program until the user quits or ctx is cancelled.
func (u *UI) Start(ctx context.Context, opts ...tea.ProgramOption) error {
	changes := make(chan []bridge.FileChange, changeBuffer)
	sub := subscribe(u.fs, changes)
	defer sub.Dispose()

	model := newBubbleTeaModel(ctx, u.fs, u.root, u.cfg, changes, u.renderer, u.spinners)

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(model, opts...).Run()
	return err
}

// subscribe forwards bridge change batches into ch, dropping batches when
// the UI falls behind.
func subscribe(fs fileSystem, ch chan<- []bridge.FileChange) events.Disposable {
	return fs.OnDidChangeFile(func(batch []bridge.FileChange) {
		select {
		case ch <- batch:
		default:
		}
	})
}
