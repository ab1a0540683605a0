// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package modelbind

import "reflect"

// Collection is a growable collection of E. Declare a parameter as Collection[E] and
// register List[E] as its default with RegisterList.
type Collection[E any] interface {
	Add(v E)
	Len() int
	Items() []E
}

// Sequence is a read-only ordered view of E.
type Sequence[E any] interface {
	Len() int
	At(i int) E
}

// List is the insertion-ordered default collection.
type List[E any] struct {
	items []E
}

// Add appends v.
func (l *List[E]) Add(v E) {
	l.items = append(l.items, v)
}

// Len returns the number of elements.
func (l *List[E]) Len() int {
	return len(l.items)
}

// At returns the element at i.
func (l *List[E]) At(i int) E {
	return l.items[i]
}

// Items returns a copy of the elements in insertion order.
func (l *List[E]) Items() []E {
	out := make([]E, len(l.items))
	copy(out, l.items)
	return out
}

// RegisterList registers *List[E] as the default for Collection[E] and Sequence[E] in f.
func RegisterList[E any](f *CollectionFactory) error {
	concrete := reflect.TypeOf(&List[E]{})
	if err := f.RegisterDefault(reflect.TypeOf((*Collection[E])(nil)).Elem(), concrete); err != nil {
		return err
	}
	return f.RegisterDefault(reflect.TypeOf((*Sequence[E])(nil)).Elem(), concrete)
}
