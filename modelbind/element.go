// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package modelbind

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/labstack/echo-modelbind/internal/helpers"
	"github.com/labstack/echo-modelbind/modelstate"
	"github.com/labstack/echo-modelbind/validation"
	"github.com/labstack/echo-modelbind/valueprovider"
)

// CodeConversion is the model state error code for values that failed scalar conversion.
const CodeConversion = "conversion"

// bindContext carries the request-scoped state of one bind pass.
type bindContext struct {
	ctx context.Context
	vp  valueprovider.ValueProvider
	ms  *modelstate.ModelState
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// bindElement binds the node at key. raw, when non-nil, replaces the provider lookup for
// scalar types.
func (b *Binder) bindElement(bc *bindContext, key string, t reflect.Type, raw []string) (BindResult, error) {
	switch {
	case isScalar(t):
		if raw == nil {
			raw = bc.vp.GetValue(key)
		}
		if len(raw) == 0 {
			return BindResult{Kind: NotBound}, nil
		}
		res := b.bindScalar(bc, key, raw, t, key)
		if res.Kind == Bound {
			bc.ms.MarkValid(key)
		}
		return res, nil
	case b.config.Factory.IsCollection(t):
		plan, err := b.config.Factory.Plan(t)
		if err != nil {
			return BindResult{}, err
		}
		res, _, err := b.bindCollection(bc, key, plan)
		return res, err
	case isStruct(t):
		return b.bindStruct(bc, key, t)
	}
	return BindResult{}, &ConfigurationError{Type: t, Reason: "unsupported element type"}
}

// bindScalar converts the first raw value to t and records the attempt under key.
// label names the value in the conversion error message.
func (b *Binder) bindScalar(bc *bindContext, key string, raw []string, t reflect.Type, label string) BindResult {
	bc.ms.SetModelValue(key, raw, raw[0])
	v, err := convertScalar(t, raw[0])
	if err != nil {
		bc.ms.AddError(key, CodeConversion, fmt.Sprintf("The value '%s' is not valid for %s.", raw[0], label))
		b.config.Logger.Debugf("modelbind: %s: %v", key, err)
		return BindResult{Kind: Failed, Value: reflect.Zero(t)}
	}
	return BindResult{Kind: Bound, Value: v}
}

// bindStruct binds every exported property of t under key. The result is always Bound,
// missing or invalid properties are reported through the model state.
func (b *Binder) bindStruct(bc *bindContext, key string, t reflect.Type) (BindResult, error) {
	st := t
	if t.Kind() == reflect.Ptr {
		st = t.Elem()
	}
	if err := b.config.Validators.FromTags(st); err != nil {
		return BindResult{}, &ConfigurationError{Type: st, Reason: err.Error()}
	}

	v := reflect.New(st).Elem()
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		name := b.propertyName(sf)
		if name == "-" {
			continue
		}
		if err := b.bindProperty(bc, st, sf, helpers.PropertyKey(key, name), v.Field(i)); err != nil {
			return BindResult{}, err
		}
	}

	if t.Kind() == reflect.Ptr {
		p := reflect.New(st)
		p.Elem().Set(v)
		return BindResult{Kind: Bound, Value: p}, nil
	}
	return BindResult{Kind: Bound, Value: v}, nil
}

func (b *Binder) propertyName(sf reflect.StructField) string {
	tag := sf.Tag.Get(b.config.TagName)
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" {
		return sf.Name
	}
	return tag
}

func (b *Binder) bindProperty(bc *bindContext, owner reflect.Type, sf reflect.StructField, key string, fv reflect.Value) error {
	fc := validation.FieldContext{Owner: owner, Field: sf.Name, Key: key}
	required := b.config.Validators.Required(owner, sf.Name)
	ft := sf.Type

	switch {
	case isScalar(ft):
		raw := bc.vp.GetValue(key)
		if len(raw) == 0 || (required && allEmpty(raw)) {
			if required {
				if len(raw) > 0 {
					bc.ms.SetModelValue(key, raw, raw[0])
				}
				b.addRequiredError(bc, fc)
			}
			return nil
		}
		res := b.bindScalar(bc, key, raw, ft, sf.Name)
		if res.Kind != Bound {
			return nil
		}
		fv.Set(res.Value)
		b.validate(bc, fc, res.Value)

	case b.config.Factory.IsCollection(ft):
		plan, err := b.config.Factory.Plan(ft)
		if err != nil {
			return err
		}
		res, _, err := b.bindCollection(bc, key, plan)
		if err != nil {
			return err
		}
		if res.Kind == Bound {
			fv.Set(res.Value)
		} else if required {
			b.addRequiredError(bc, fc)
		}

	case isStruct(ft):
		if !bc.vp.ContainsPrefix(key) {
			if required {
				b.addRequiredError(bc, fc)
			}
			return nil
		}
		res, err := b.bindStruct(bc, key, ft)
		if err != nil {
			return err
		}
		fv.Set(res.Value)

	default:
		b.config.Logger.Debugf("modelbind: skipping %s of unsupported type %v", key, ft)
	}
	return nil
}

func (b *Binder) addRequiredError(bc *bindContext, fc validation.FieldContext) {
	e := validation.RequiredError(fc)
	bc.ms.AddError(fc.Key, e.Code, e.Message)
}

// validate runs the registered rules for a bound property and settles its state.
func (b *Binder) validate(bc *bindContext, fc validation.FieldContext, v reflect.Value) {
	errs := b.config.Validators.Validate(fc, v)
	for _, e := range errs {
		bc.ms.AddError(fc.Key, e.Code, e.Message)
	}
	if len(errs) == 0 {
		bc.ms.MarkValid(fc.Key)
	}
}

func allEmpty(raw []string) bool {
	for _, s := range raw {
		if s != "" {
			return false
		}
	}
	return true
}
