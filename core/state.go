package core

import (
	"errors"
	"fmt"
)

var ErrUnknownFile = errors.New("unknown file")

// DefaultFile is preferred as the initial selection when present.
const DefaultFile = "main.tf"

// Selection tracks the file shown in the result view. A non-empty selection
// is always a key of the infrastructure it was built from.
type Selection struct {
	infra    *Infrastructure
	selected string
}

// NewSelection selects main.tf if present, else the first file, else nothing.
func NewSelection(infra *Infrastructure) Selection {
	s := Selection{infra: infra}
	if infra == nil || infra.Len() == 0 {
		return s
	}
	if infra.Has(DefaultFile) {
		s.selected = DefaultFile
	} else {
		s.selected = infra.names[0]
	}
	return s
}

func (s Selection) Selected() string {
	return s.selected
}

func (s Selection) Empty() bool {
	return s.selected == ""
}

// Select switches to name. Unknown names leave the selection unchanged.
func (s *Selection) Select(name string) error {
	if s.infra == nil || !s.infra.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownFile, name)
	}
	s.selected = name
	return nil
}

// Content returns the content of the selected file, or "" with no selection.
func (s Selection) Content() string {
	if s.selected == "" {
		return ""
	}
	entry, _ := s.infra.Get(s.selected)
	return entry.Content
}

// Entry returns the selected entry.
func (s Selection) Entry() (FileEntry, bool) {
	if s.selected == "" {
		return FileEntry{}, false
	}
	return s.infra.Get(s.selected)
}

type PanelState int

const (
	Closed PanelState = iota
	Open
)

func (p PanelState) Toggle() PanelState {
	if p == Open {
		return Closed
	}
	return Open
}

func (p PanelState) IsOpen() bool { return p == Open }

func (p PanelState) String() string {
	if p == Open {
		return "open"
	}
	return "closed"
}

// Panels holds the visibility of the result view's side panels.
type Panels struct {
	Sidebar  PanelState
	Terminal PanelState
}

func DefaultPanels() Panels {
	return Panels{Sidebar: Open, Terminal: Open}
}

// RequestState is the lifecycle of a submission in the request view.
type RequestState int

const (
	Idle RequestState = iota
	Submitting
	Error
	Success
)

func (s RequestState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Error:
		return "error"
	case Success:
		return "success"
	default:
		return fmt.Sprintf("RequestState(%d)", int(s))
	}
}
