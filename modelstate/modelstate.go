// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

/*
Package modelstate records what happened to every key a model binder touched: the raw
submitted values, the string it tried to convert, and whether the result passed validation.

A ModelState belongs to a single request and is written by a single binder, so it does
no locking. Entries are created lazily, keys never attempted are simply absent.
*/
package modelstate

import "strings"

// State is the validation state of one entry.
type State int

const (
	Unvalidated State = iota
	Valid
	Invalid
	Skipped
)

func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Skipped:
		return "skipped"
	default:
		return "unvalidated"
	}
}

// Error is a single validation failure attached to an entry.
type Error struct {
	Code    string
	Message string
}

func (e Error) Error() string {
	return e.Message
}

// Entry is the ledger record for one binding key.
type Entry struct {
	Key string
	// RawValue holds the submitted values or nil when nothing was submitted.
	RawValue       []string
	AttemptedValue string
	State          State
	Errors         []Error
}

// ModelState maps binding keys to entries and keeps them in discovery order.
type ModelState struct {
	entries map[string]*Entry
	order   []string
}

// New creates an empty ModelState.
func New() *ModelState {
	return &ModelState{entries: make(map[string]*Entry)}
}

func (m *ModelState) entry(key string) *Entry {
	if m.entries == nil {
		m.entries = make(map[string]*Entry)
	}
	e, ok := m.entries[key]
	if !ok {
		e = &Entry{Key: key}
		m.entries[key] = e
		m.order = append(m.order, key)
	}
	return e
}

// SetModelValue records the raw and attempted values for key.
// The state of an existing entry is left untouched.
func (m *ModelState) SetModelValue(key string, raw []string, attempted string) {
	e := m.entry(key)
	if raw != nil {
		e.RawValue = append([]string(nil), raw...)
	} else {
		e.RawValue = nil
	}
	e.AttemptedValue = attempted
}

// AddError attaches an error to key and marks it Invalid.
func (m *ModelState) AddError(key, code, message string) {
	e := m.entry(key)
	e.Errors = append(e.Errors, Error{Code: code, Message: message})
	e.State = Invalid
}

// MarkValid marks key Valid unless it already carries errors.
func (m *ModelState) MarkValid(key string) {
	e := m.entry(key)
	if len(e.Errors) == 0 {
		e.State = Valid
	}
}

// MarkSkipped marks key as deliberately not validated.
func (m *ModelState) MarkSkipped(key string) {
	e := m.entry(key)
	if e.State == Unvalidated {
		e.State = Skipped
	}
}

// Get returns the entry stored under key.
func (m *ModelState) Get(key string) (Entry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Contains reports whether key has an entry.
func (m *ModelState) Contains(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Keys returns all keys in discovery order.
func (m *ModelState) Keys() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Entries returns all entries in discovery order.
func (m *ModelState) Entries() []Entry {
	out := make([]Entry, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, *m.entries[k])
	}
	return out
}

// Invalid returns the Invalid entries in discovery order.
func (m *ModelState) Invalid() []Entry {
	var out []Entry
	for _, k := range m.order {
		if e := m.entries[k]; e.State == Invalid {
			out = append(out, *e)
		}
	}
	return out
}

// Len returns the number of entries.
func (m *ModelState) Len() int {
	return len(m.order)
}

// IsValid reports whether no entry is Invalid.
func (m *ModelState) IsValid() bool {
	for _, e := range m.entries {
		if e.State == Invalid {
			return false
		}
	}
	return true
}

// ErrorCount returns the number of errors over all entries.
func (m *ModelState) ErrorCount() int {
	n := 0
	for _, e := range m.entries {
		n += len(e.Errors)
	}
	return n
}

// HasPrefix reports whether any entry lives under prefix.
func (m *ModelState) HasPrefix(prefix string) bool {
	if prefix == "" {
		return len(m.order) > 0
	}
	for _, k := range m.order {
		if k == prefix || strings.HasPrefix(k, prefix+".") || strings.HasPrefix(k, prefix+"[") {
			return true
		}
	}
	return false
}

// Merge copies the entries of other into m. Entries present in both are replaced by other's.
func (m *ModelState) Merge(other *ModelState) {
	if other == nil {
		return
	}
	for _, k := range other.order {
		src := other.entries[k]
		dst := m.entry(k)
		dst.RawValue = src.RawValue
		dst.AttemptedValue = src.AttemptedValue
		dst.State = src.State
		dst.Errors = append([]Error(nil), src.Errors...)
	}
}
