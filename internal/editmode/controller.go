// Package editmode holds the global edit toggle shared by the record
// fields and the line table.
package editmode

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/rfqedit/internal/binding"
	"github.com/muurk/rfqedit/internal/logging"
)

// SlotSource provides the slots whose editability follows the toggle.
type SlotSource interface {
	Slots() []*binding.Slot
}

// Controller owns the edit flag.
type Controller struct {
	on       bool
	slots    SlotSource
	rerender func() error
}

// New creates a controller in read-only mode. rerender rebuilds the line
// table after each toggle; it may be nil.
func New(slots SlotSource, rerender func() error) *Controller {
	return &Controller{slots: slots, rerender: rerender}
}

// Enabled reports whether edit mode is on.
func (c *Controller) Enabled() bool {
	return c.on
}

// Marker is the state attribute of the toggle control: "1" or "0".
func (c *Controller) Marker() string {
	if c.on {
		return "1"
	}
	return "0"
}

// Toggle flips edit mode, applies it to every slot and re-renders the line
// table. It never fails: a re-render error or panic is logged and dropped.
func (c *Controller) Toggle() bool {
	c.on = !c.on

	if c.slots != nil {
		for _, s := range c.slots.Slots() {
			s.Editable = c.on
			if c.on {
				s.Spellcheck = binding.SpellcheckOff
			} else {
				s.Spellcheck = binding.SpellcheckAbsent
			}
		}
	}

	if err := c.safeRerender(); err != nil {
		logging.Debug("Re-render after edit toggle skipped", zap.Bool("edit_on", c.on), zap.Error(err))
	}
	return c.on
}

func (c *Controller) safeRerender() (err error) {
	if c.rerender == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("re-render panicked: %v", r)
		}
	}()
	return c.rerender()
}

// Focus is the kind of control that currently has keyboard focus.
type Focus int

const (
	// FocusNone means nothing has focus.
	FocusNone Focus = iota
	// FocusField is a navigable field slot that is not being typed into.
	FocusField
	// FocusInput is a single-line text input.
	FocusInput
	// FocusTextArea is a multi-line text input.
	FocusTextArea
	// FocusSelect is a choice list.
	FocusSelect
)

// IsTextEntry reports whether keystrokes belong to the focused control.
func (f Focus) IsTextEntry() bool {
	switch f {
	case FocusInput, FocusTextArea, FocusSelect:
		return true
	}
	return false
}

// Modifiers are the modifier keys held with a keystroke.
type Modifiers struct {
	Ctrl  bool
	Alt   bool
	Meta  bool
	Shift bool
}

// IsShortcut reports whether key toggles edit mode: the letter "e" in
// either case with no ctrl, alt or meta held, and focus outside any
// text-entry control.
func IsShortcut(key string, mods Modifiers, focus Focus) bool {
	if mods.Ctrl || mods.Alt || mods.Meta {
		return false
	}
	if focus.IsTextEntry() {
		return false
	}
	return strings.EqualFold(key, "e")
}
