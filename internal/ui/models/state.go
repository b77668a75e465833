package models

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/Cyclone1070/dockerws/internal/bridge"
	"github.com/Cyclone1070/dockerws/internal/filetype"
)

// Mode selects how key presses are interpreted.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeConfirmDelete
	ModeNewDirectory
)

// Entry is one visible row of the listing.
type Entry struct {
	URI  bridge.URI
	Kind filetype.Kind
}

// Name is the label shown for the entry.
func (e Entry) Name() string {
	name := e.URI.Base()
	if filetype.HasType(e.Kind, filetype.Directory) {
		name += "/"
	}
	if filetype.HasType(e.Kind, filetype.SymbolicLink) {
		name += " @"
	}
	return name
}

// IsDirectory reports whether entering the row navigates into it.
func (e Entry) IsDirectory() bool {
	return filetype.HasType(e.Kind, filetype.Directory)
}

// State holds everything the views render.
type State struct {
	Width  int
	Height int

	Root    bridge.URI
	Dir     bridge.URI
	Entries []Entry
	Cursor  int
	Hidden  int

	Mode  Mode
	Input textinput.Model

	PreviewURI bridge.URI
	Viewport   viewport.Model
	Spinner    spinner.Model

	Pending       int
	StatusMessage string
	Err           error
}

// Selected returns the entry under the cursor.
func (s State) Selected() (Entry, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Entries) {
		return Entry{}, false
	}
	return s.Entries[s.Cursor], true
}

// Loading reports whether a remote call is in flight.
func (s State) Loading() bool {
	return s.Pending > 0
}
