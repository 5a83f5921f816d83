package binding

import (
	"github.com/muurk/rfqedit/internal/rfq"
)

// Spellcheck is the tri-state spellcheck attribute of a slot.
type Spellcheck int

const (
	// SpellcheckAbsent means the attribute is not set at all
	SpellcheckAbsent Spellcheck = iota
	// SpellcheckOff means the attribute is present with value "false"
	SpellcheckOff
)

// String returns the attribute value, or "" when absent.
func (s Spellcheck) String() string {
	if s == SpellcheckOff {
		return "false"
	}
	return ""
}

// Slot is one visible position bound to a record field.
type Slot struct {
	Field      string
	Label      string
	Text       string
	Editable   bool
	Spellcheck Spellcheck
}

// Registry binds slots to keys of a cached record.
type Registry struct {
	slots []*Slot
	cache rfq.Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Bind adds a slot for field. Several slots may bind the same field.
func (r *Registry) Bind(field, label string) *Slot {
	slot := &Slot{Field: field, Label: label}
	r.slots = append(r.slots, slot)
	return slot
}

// Slots returns every bound slot in binding order.
func (r *Registry) Slots() []*Slot {
	return r.slots
}

// Fields returns the distinct bound field keys in binding order.
func (r *Registry) Fields() []string {
	seen := make(map[string]bool, len(r.slots))
	var fields []string
	for _, s := range r.slots {
		if !seen[s.Field] {
			seen[s.Field] = true
			fields = append(fields, s.Field)
		}
	}
	return fields
}

// Loaded reports whether a record has been cached.
func (r *Registry) Loaded() bool {
	return r.cache != nil
}

// Cached returns the cached value of a bound field. Unbound keys are never
// read.
func (r *Registry) Cached(field string) (rfq.Value, bool) {
	if !r.bound(field) || r.cache == nil {
		return nil, false
	}
	v, ok := r.cache[field]
	return v, ok
}

// Load replaces the cache with rec and renders every slot whose key is
// present with a non-nil value. Other slots keep their text.
func (r *Registry) Load(rec rfq.Record) {
	r.cache = rec
	for _, s := range r.slots {
		v, ok := rec[s.Field]
		if !ok {
			continue
		}
		if text, render := rfq.FormatField(s.Field, v); render {
			s.Text = text
		}
	}
}

// ReplaceCache stores an authoritative record without touching slot text.
// Server-side reformatting shows up on the next Load.
func (r *Registry) ReplaceCache(rec rfq.Record) {
	r.cache = rec
}

// Blur handles focus leaving slot with the given text. It returns the
// field and value to patch, or ok=false when edit mode is off or the
// normalized text equals the cached value.
func (r *Registry) Blur(slot *Slot, text string, editOn bool) (field, value string, ok bool) {
	if !editOn || slot == nil {
		return "", "", false
	}
	normalized := rfq.Normalize(text)
	slot.Text = normalized
	if r.cache.Clean(slot.Field, normalized) {
		return "", "", false
	}
	return slot.Field, normalized, true
}

func (r *Registry) bound(field string) bool {
	for _, s := range r.slots {
		if s.Field == field {
			return true
		}
	}
	return false
}
