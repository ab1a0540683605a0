// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

/*
Package valueprovider exposes request data (query string, form body) as a flat,
read-only key space for model binders.

Keys such as `items[0].Name` are matched case-insensitively. A provider answers two
questions only: which values were submitted for a key, and whether any key lives
under a given prefix.

	vp := valueprovider.Query(c)
	vp.GetValue("items[0]")        // []string{"10"}
	vp.ContainsPrefix("items[1]")  // true when items[1] or items[1].X was submitted
*/
package valueprovider

import (
	"net/url"
	"sort"
	"strings"
)

// ValueProvider is a read-only view over submitted key/value data.
type ValueProvider interface {
	// GetValue returns the values submitted for key, in submission order.
	GetValue(key string) []string

	// ContainsPrefix reports whether any key equals prefix or is nested under it.
	ContainsPrefix(prefix string) bool
}

// Store is a ValueProvider over url.Values.
type Store struct {
	values map[string][]string
	// sorted lower-cased keys, used for prefix searches
	sorted []string
	keys   []string
}

// New creates a Store from values. The values are copied. Keys differing only in case
// are merged in the sorted order of their original spelling.
func New(values url.Values) *Store {
	s := &Store{
		values: make(map[string][]string, len(values)),
		sorted: make([]string, 0, len(values)),
		keys:   make([]string, 0, len(values)),
	}
	for k := range values {
		s.keys = append(s.keys, k)
	}
	sort.Strings(s.keys)
	for _, k := range s.keys {
		lk := strings.ToLower(k)
		if _, exists := s.values[lk]; !exists {
			s.sorted = append(s.sorted, lk)
		}
		s.values[lk] = append(s.values[lk], values[k]...)
	}
	sort.Strings(s.sorted)
	return s
}

// ParseQuery creates a Store from a raw query string such as `a[0]=1&a[1]=2`.
func ParseQuery(query string) (*Store, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return nil, err
	}
	return New(values), nil
}

// GetValue implements ValueProvider.
func (s *Store) GetValue(key string) []string {
	return s.values[strings.ToLower(key)]
}

// ContainsPrefix implements ValueProvider.
func (s *Store) ContainsPrefix(prefix string) bool {
	if prefix == "" {
		return len(s.sorted) > 0
	}
	prefix = strings.ToLower(prefix)
	i := sort.SearchStrings(s.sorted, prefix)
	for ; i < len(s.sorted); i++ {
		k := s.sorted[i]
		if !strings.HasPrefix(k, prefix) {
			return false
		}
		if len(k) == len(prefix) {
			return true
		}
		switch k[len(prefix)] {
		case '.', '[':
			return true
		}
	}
	return false
}

// Keys returns the submitted keys in their original spelling, sorted.
func (s *Store) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of distinct keys.
func (s *Store) Len() int {
	return len(s.sorted)
}

// Composite chains providers. The first provider holding values for a key wins.
type Composite []ValueProvider

// GetValue implements ValueProvider.
func (c Composite) GetValue(key string) []string {
	for _, p := range c {
		if v := p.GetValue(key); len(v) > 0 {
			return v
		}
	}
	return nil
}

// ContainsPrefix implements ValueProvider.
func (c Composite) ContainsPrefix(prefix string) bool {
	for _, p := range c {
		if p.ContainsPrefix(prefix) {
			return true
		}
	}
	return false
}
