// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package modelbind

import (
	"fmt"
	"reflect"
	"sync"
)

// Shape is the construction strategy for a collection type.
type Shape int

const (
	// ShapeList is a slice, filled by append.
	ShapeList Shape = iota + 1
	// ShapeArray is a fixed size array, filled in order.
	ShapeArray
	// ShapeSet is a map[K]struct{} or map[K]bool, one key per element.
	ShapeSet
	// ShapeCustom is a type whose pointer has `Add(E)` and `Len() int` methods.
	ShapeCustom
	// ShapeDefault is an interface type, built through a registered or fallback concrete type.
	ShapeDefault
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeArray:
		return "array"
	case ShapeSet:
		return "set"
	case ShapeCustom:
		return "custom"
	case ShapeDefault:
		return "default"
	default:
		return "unknown"
	}
}

var (
	emptyInterfaceType = reflect.TypeOf((*interface{})(nil)).Elem()
	stringSliceType    = reflect.TypeOf([]string(nil))
	intType            = reflect.TypeOf(0)
)

// Plan describes how to construct one declared collection type.
type Plan struct {
	Shape    Shape
	Declared reflect.Type
	// Concrete is the type actually constructed. It differs from Declared for ShapeDefault.
	Concrete reflect.Type
	Elem     reflect.Type

	build func(elems []reflect.Value) (reflect.Value, int)
}

// Build constructs the collection from elems in order. It returns the value, assignable
// to Declared, and the number of elements that did not fit (arrays only).
func (p *Plan) Build(elems []reflect.Value) (reflect.Value, int) {
	v, dropped := p.build(elems)
	if p.Concrete != p.Declared {
		out := reflect.New(p.Declared).Elem()
		out.Set(v)
		return out, dropped
	}
	return v, dropped
}

// CollectionFactory resolves declared collection types to construction plans. Plans, and
// the errors of types that are not collections, are computed once per type. It is safe for
// concurrent use.
type CollectionFactory struct {
	plans    sync.Map // reflect.Type -> planEntry
	mu       sync.RWMutex
	defaults map[reflect.Type]reflect.Type
}

type planEntry struct {
	plan *Plan
	err  error
}

// NewCollectionFactory creates a factory with no interface defaults registered.
func NewCollectionFactory() *CollectionFactory {
	return &CollectionFactory{defaults: make(map[reflect.Type]reflect.Type)}
}

// RegisterDefault makes concrete the type constructed for the interface type iface.
func (f *CollectionFactory) RegisterDefault(iface, concrete reflect.Type) error {
	if iface.Kind() != reflect.Interface {
		return &ConfigurationError{Type: iface, Reason: "default can only be registered for interface types"}
	}
	if !concrete.Implements(iface) {
		return &ConfigurationError{Type: concrete, Reason: fmt.Sprintf("does not implement %v", iface)}
	}
	if _, err := f.Plan(concrete); err != nil {
		return err
	}
	f.mu.Lock()
	f.defaults[iface] = concrete
	f.mu.Unlock()
	f.plans.Delete(iface)
	return nil
}

// Plan returns the construction plan for declared.
func (f *CollectionFactory) Plan(declared reflect.Type) (*Plan, error) {
	if e, ok := f.plans.Load(declared); ok {
		return e.(planEntry).plan, e.(planEntry).err
	}
	p, err := f.newPlan(declared)
	actual, _ := f.plans.LoadOrStore(declared, planEntry{plan: p, err: err})
	return actual.(planEntry).plan, actual.(planEntry).err
}

// IsCollection reports whether t can be bound as a collection.
func (f *CollectionFactory) IsCollection(t reflect.Type) bool {
	if isScalar(t) {
		return false
	}
	_, err := f.Plan(t)
	return err == nil
}

func (f *CollectionFactory) newPlan(t reflect.Type) (*Plan, error) {
	if isScalar(t) {
		return nil, &ConfigurationError{Type: t, Reason: "scalar types are not collections"}
	}
	if p, ok := customPlan(t); ok {
		return p, nil
	}

	switch t.Kind() {
	case reflect.Slice:
		return &Plan{
			Shape: ShapeList, Declared: t, Concrete: t, Elem: t.Elem(),
			build: func(elems []reflect.Value) (reflect.Value, int) {
				s := reflect.MakeSlice(t, 0, len(elems))
				for _, e := range elems {
					s = reflect.Append(s, e)
				}
				return s, 0
			},
		}, nil
	case reflect.Array:
		return &Plan{
			Shape: ShapeArray, Declared: t, Concrete: t, Elem: t.Elem(),
			build: func(elems []reflect.Value) (reflect.Value, int) {
				a := reflect.New(t).Elem()
				n := len(elems)
				if n > t.Len() {
					n = t.Len()
				}
				for i := 0; i < n; i++ {
					a.Index(i).Set(elems[i])
				}
				return a, len(elems) - n
			},
		}, nil
	case reflect.Map:
		vt := t.Elem()
		if !(vt.Kind() == reflect.Bool || (vt.Kind() == reflect.Struct && vt.NumField() == 0)) {
			return nil, &ConfigurationError{Type: t, Reason: "maps are only bound as sets (map[K]struct{} or map[K]bool)"}
		}
		member := reflect.Zero(vt)
		if vt.Kind() == reflect.Bool {
			member = reflect.ValueOf(true).Convert(vt)
		}
		return &Plan{
			Shape: ShapeSet, Declared: t, Concrete: t, Elem: t.Key(),
			build: func(elems []reflect.Value) (reflect.Value, int) {
				m := reflect.MakeMapWithSize(t, len(elems))
				for _, e := range elems {
					m.SetMapIndex(e, member)
				}
				return m, 0
			},
		}, nil
	case reflect.Interface:
		f.mu.RLock()
		concrete, ok := f.defaults[t]
		f.mu.RUnlock()
		if !ok && t == emptyInterfaceType {
			concrete, ok = stringSliceType, true
		}
		if !ok {
			return nil, &ConfigurationError{Type: t, Reason: "no default collection registered for interface"}
		}
		inner, err := f.Plan(concrete)
		if err != nil {
			return nil, err
		}
		return &Plan{
			Shape: ShapeDefault, Declared: t, Concrete: concrete, Elem: inner.Elem,
			build: inner.build,
		}, nil
	}
	return nil, &ConfigurationError{Type: t, Reason: "not a collection type"}
}

// customPlan matches types whose pointer has an Add method taking one argument and a
// `Len() int` method, and pointers to such types. Structs with only an Add method are
// bound property by property.
func customPlan(t reflect.Type) (*Plan, bool) {
	base := t
	if t.Kind() == reflect.Ptr {
		base = t.Elem()
	}
	if base.Kind() == reflect.Interface || base.Kind() == reflect.Ptr {
		return nil, false
	}
	pt := reflect.PtrTo(base)
	m, ok := pt.MethodByName("Add")
	if !ok || m.Type.NumIn() != 2 {
		return nil, false
	}
	l, ok := pt.MethodByName("Len")
	if !ok || l.Type.NumIn() != 1 || l.Type.NumOut() != 1 || l.Type.Out(0) != intType {
		return nil, false
	}
	return &Plan{
		Shape: ShapeCustom, Declared: t, Concrete: t, Elem: m.Type.In(1),
		build: func(elems []reflect.Value) (reflect.Value, int) {
			p := reflect.New(base)
			add := p.MethodByName("Add")
			for _, e := range elems {
				add.Call([]reflect.Value{e})
			}
			if t.Kind() == reflect.Ptr {
				return p, 0
			}
			return p.Elem(), 0
		},
	}, true
}
