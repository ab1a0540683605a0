// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package modelbind

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrTargetNotPointer is returned when the bind destination is not a non-nil pointer.
	ErrTargetNotPointer = errors.New("modelbind: destination must be a non-nil pointer")

	// ErrTooManyElements is returned when a collection resolves more elements than Config.MaxElements.
	ErrTooManyElements = errors.New("modelbind: too many collection elements")
)

// BindError wraps a hard failure with the key being bound when it happened.
type BindError struct {
	Field string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind error on field %s: %v", e.Field, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// ParseError is a failed scalar conversion. It ends up in the model state, never as a
// returned error.
type ParseError struct {
	Value string
	Type  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: cannot parse %q as %s: %v", e.Value, e.Type, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a declared type the binder cannot construct or fill.
type ConfigurationError struct {
	Type   reflect.Type
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("modelbind: cannot bind type %v: %s", e.Type, e.Reason)
}
