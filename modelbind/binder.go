// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

/*
Package modelbind binds collections from flat request data.

Keys follow the `prefix[index].Property` convention. Elements are discovered in one of
three ways, checked in this order:

	items.index=a&items.index=b&items[a]=1&items[b]=2   explicit tokens, in submitted order
	items=1&items=2  (or items[]=1&items[]=2)            one element per value, scalar elements only
	items[0]=1&items[1]=2                                 positions 0,1,2,... up to the first gap

Every key the binder reads is recorded in a modelstate.ModelState together with its
validation outcome. Conversion and validation failures never fail the bind, they mark the
entry Invalid:

	b := modelbind.New(modelbind.DefaultConfig)
	vp, _ := valueprovider.ParseQuery("parameter[0]=10&parameter[1]=11")

	var ids []int
	res, err := b.BindCollection(ctx, "parameter", &ids, vp)
	// ids == []int{10, 11}, res.ModelState.IsValid() == true
*/
package modelbind

import (
	"context"
	"reflect"

	"github.com/labstack/echo-modelbind/modelstate"
	"github.com/labstack/echo-modelbind/valueprovider"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// BindKind is the outcome of binding one node.
type BindKind int

const (
	// NotBound means no data was found for the node.
	NotBound BindKind = iota
	// Bound means a value was produced.
	Bound
	// Failed means data was found but could not be converted.
	Failed
)

// BindResult is the outcome of binding one node.
type BindResult struct {
	Kind  BindKind
	Value reflect.Value
}

// IsModelSet reports whether the node produced a value.
func (r BindResult) IsModelSet() bool {
	return r.Kind == Bound
}

// Result describes a top-level bind.
type Result struct {
	// Prefix is the prefix actually used, empty after falling back.
	Prefix string
	// IsModelSet is true whenever the destination was assigned, including an empty
	// collection when no data was found.
	IsModelSet bool
	Mode       IndexMode
	// Elements is the number of resolved elements.
	Elements int
	// ModelState holds the entries written by this bind only.
	ModelState *modelstate.ModelState
}

// Binder binds collections and their elements. A Binder holds no request state and may
// be shared between goroutines.
type Binder struct {
	config Config
}

// New creates a Binder from config, filling unset fields with defaults.
func New(config Config) *Binder {
	return &Binder{config: config.withDefaults()}
}

// Config returns the effective configuration.
func (b *Binder) Config() Config {
	return b.config
}

// WithMetrics returns a copy of b reporting to m.
func (b *Binder) WithMetrics(m *Metrics) *Binder {
	c := b.config
	c.Metrics = m
	return &Binder{config: c}
}

// Bind is BindCollection returning the bound collection as C.
func Bind[C any](ctx context.Context, b *Binder, prefix string, vp valueprovider.ValueProvider) (C, *Result, error) {
	var out C
	res, err := b.BindCollection(ctx, prefix, &out, vp)
	return out, res, err
}

// BindCollection binds the collection found under prefix into target, a non-nil pointer
// to the collection. When nothing lives under prefix the empty prefix is tried, unless
// disabled. When no element is found target receives an empty collection and
// Result.IsModelSet is still true.
//
// Returned errors are structural only: a bad target, a type that cannot be
// constructed, too many elements, or ctx cancellation. In the last case the partial
// Result is returned along with the error.
func (b *Binder) BindCollection(ctx context.Context, prefix string, target interface{}, vp valueprovider.ValueProvider) (*Result, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, ErrTargetNotPointer
	}
	slot := rv.Elem()
	plan, err := b.planFor(slot)
	if err != nil {
		return nil, err
	}

	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, b.tracer(), "modelbind.BindCollection")
	defer span.Finish()

	used := prefix
	if prefix != "" && !b.config.DisableEmptyPrefixFallback && !vp.ContainsPrefix(prefix) {
		used = ""
	}
	span.SetTag("modelbind.prefix", used)

	bc := &bindContext{ctx: ctx, vp: vp, ms: modelstate.New()}
	result := &Result{Prefix: used, ModelState: bc.ms}

	node, res, err := b.bindCollection(bc, used, plan)
	result.Mode = res.mode
	result.Elements = len(res.indices)
	if err != nil {
		ext.Error.Set(span, true)
		span.LogKV("event", "error", "message", err.Error())
		b.config.Metrics.observe(result, err)
		return result, err
	}

	value := node.Value
	if node.Kind != Bound {
		value, _ = plan.Build(nil)
	}
	slot.Set(value)
	result.IsModelSet = true

	span.SetTag("modelbind.mode", result.Mode.String())
	span.SetTag("modelbind.elements", result.Elements)
	span.SetTag("modelbind.invalid", len(bc.ms.Invalid()))
	b.config.Metrics.observe(result, nil)
	return result, nil
}

// BindModel binds target from the data under prefix. Collections go through
// BindCollection; structs and scalars are bound directly, without prefix fallback.
func (b *Binder) BindModel(ctx context.Context, prefix string, target interface{}, vp valueprovider.ValueProvider) (*Result, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, ErrTargetNotPointer
	}
	slot := rv.Elem()
	if _, err := b.planFor(slot); err == nil {
		return b.BindCollection(ctx, prefix, target, vp)
	}

	bc := &bindContext{ctx: ctx, vp: vp, ms: modelstate.New()}
	result := &Result{Prefix: prefix, ModelState: bc.ms}
	t := slot.Type()
	switch {
	case isScalar(t):
		raw := vp.GetValue(prefix)
		if len(raw) == 0 {
			return result, nil
		}
		res := b.bindScalar(bc, prefix, raw, t, prefix)
		if res.Kind == Bound {
			bc.ms.MarkValid(prefix)
			slot.Set(res.Value)
			result.IsModelSet = true
		}
	case isStruct(t):
		res, err := b.bindStruct(bc, prefix, t)
		if err != nil {
			return result, err
		}
		slot.Set(res.Value)
		result.IsModelSet = true
	default:
		return nil, &ConfigurationError{Type: t, Reason: "not a bindable type"}
	}
	return result, nil
}

// bindCollection resolves the elements under prefix and binds each of them. All resolved
// elements are bound even when earlier ones fail.
func (b *Binder) bindCollection(bc *bindContext, prefix string, plan *Plan) (BindResult, resolution, error) {
	res, err := resolveIndices(bc.vp, prefix, isScalar(plan.Elem), b.config.MaxElements)
	if err != nil {
		return BindResult{}, res, &BindError{Field: prefix, Err: err}
	}
	if res.mode == IndexNone {
		return BindResult{Kind: NotBound}, res, nil
	}
	b.config.Logger.Debugf("modelbind: %q resolved %d elements (%s)", prefix, len(res.indices), res.mode)

	elems := make([]reflect.Value, 0, len(res.indices))
	for i, idx := range res.indices {
		if err := bc.ctx.Err(); err != nil {
			return BindResult{}, res, err
		}
		var raw []string
		if res.mode == IndexFlat {
			raw = res.flat[i : i+1]
		}
		er, err := b.bindElement(bc, idx.Key(prefix), plan.Elem, raw)
		if err != nil {
			return BindResult{}, res, err
		}
		if er.Kind == Bound {
			elems = append(elems, er.Value)
		} else {
			elems = append(elems, reflect.Zero(plan.Elem))
		}
	}

	v, dropped := plan.Build(elems)
	if dropped > 0 {
		b.config.Logger.Warnf("modelbind: %q has %d elements more than %v holds, dropped", prefix, dropped, plan.Declared)
	}
	return BindResult{Kind: Bound, Value: v}, res, nil
}

// planFor picks the plan for the destination slot. An interface slot already holding a
// collection is filled with a new value of the same dynamic type.
func (b *Binder) planFor(slot reflect.Value) (*Plan, error) {
	if slot.Kind() == reflect.Interface && !slot.IsNil() {
		if inner, err := b.config.Factory.Plan(slot.Elem().Type()); err == nil {
			return &Plan{
				Shape:    ShapeDefault,
				Declared: slot.Type(),
				Concrete: inner.Concrete,
				Elem:     inner.Elem,
				build:    inner.build,
			}, nil
		}
	}
	return b.config.Factory.Plan(slot.Type())
}

func (b *Binder) tracer() opentracing.Tracer {
	if b.config.Tracer != nil {
		return b.config.Tracer
	}
	return opentracing.GlobalTracer()
}
