// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package modelbind

import (
	"strconv"

	"github.com/labstack/echo-modelbind/internal/helpers"
	"github.com/labstack/echo-modelbind/valueprovider"
)

// IndexMode tells how the elements of a collection were discovered.
type IndexMode int

const (
	// IndexNone means no element was found.
	IndexNone IndexMode = iota
	// IndexExplicit means the elements were listed by a `prefix.index` directive.
	IndexExplicit
	// IndexFlat means every value of `prefix` (or `prefix[]`) is one element.
	IndexFlat
	// IndexPositional means `prefix[0]`, `prefix[1]`, ... up to the first gap.
	IndexPositional
)

func (m IndexMode) String() string {
	switch m {
	case IndexExplicit:
		return "explicit"
	case IndexFlat:
		return "flat"
	case IndexPositional:
		return "positional"
	default:
		return "none"
	}
}

// ElementIndex identifies one collection element, either by position or by a
// caller-chosen token.
type ElementIndex struct {
	position int
	token    string
	custom   bool
}

// Positional returns the zero-based index i.
func Positional(i int) ElementIndex {
	return ElementIndex{position: i}
}

// Custom returns the index named by token.
func Custom(token string) ElementIndex {
	return ElementIndex{token: token, custom: true}
}

// IsCustom reports whether the index came from an index directive.
func (i ElementIndex) IsCustom() bool {
	return i.custom
}

// Position returns the position of a positional index.
func (i ElementIndex) Position() int {
	return i.position
}

func (i ElementIndex) String() string {
	if i.custom {
		return i.token
	}
	return strconv.Itoa(i.position)
}

// Key returns the binding key of the element under prefix.
func (i ElementIndex) Key(prefix string) string {
	return helpers.IndexKey(prefix, i.String())
}

// resolution is the outcome of index resolution for one prefix.
type resolution struct {
	mode    IndexMode
	indices []ElementIndex
	// flat holds the submitted values in IndexFlat mode, one per index.
	flat []string
}

// resolveIndices decides the element indices for prefix. An index directive always wins,
// then a flat multi-value submission (scalar elements only), then a positional scan.
func resolveIndices(vp valueprovider.ValueProvider, prefix string, scalarElems bool, max int) (resolution, error) {
	if tokens := vp.GetValue(helpers.IndexDirectiveKey(prefix)); len(tokens) > 0 {
		if len(tokens) > max {
			return resolution{}, ErrTooManyElements
		}
		res := resolution{mode: IndexExplicit, indices: make([]ElementIndex, len(tokens))}
		for i, token := range tokens {
			res.indices[i] = Custom(token)
		}
		return res, nil
	}

	if scalarElems {
		flat := append(append([]string(nil), vp.GetValue(prefix)...), vp.GetValue(helpers.FlatKey(prefix))...)
		if len(flat) > 0 {
			if len(flat) > max {
				return resolution{}, ErrTooManyElements
			}
			res := resolution{mode: IndexFlat, flat: flat, indices: make([]ElementIndex, len(flat))}
			for i := range flat {
				res.indices[i] = Positional(i)
			}
			return res, nil
		}
	}

	var indices []ElementIndex
	for i := 0; vp.ContainsPrefix(helpers.IndexKey(prefix, strconv.Itoa(i))); i++ {
		if i >= max {
			return resolution{}, ErrTooManyElements
		}
		indices = append(indices, Positional(i))
	}
	if len(indices) == 0 {
		return resolution{mode: IndexNone}, nil
	}
	return resolution{mode: IndexPositional, indices: indices}, nil
}
