// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package modelbind

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	bindUnmarshalerType = reflect.TypeOf((*echo.BindUnmarshaler)(nil)).Elem()
)

// timeFormats are tried in order when converting to time.Time.
var timeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

// isScalar reports whether t converts from a single string value.
func isScalar(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		return isScalar(t.Elem())
	}
	if t == timeType || t == durationType {
		return true
	}
	if reflect.PtrTo(t).Implements(textUnmarshalerType) || reflect.PtrTo(t).Implements(bindUnmarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// convertScalar converts value to a new value of type t. Empty input converts to the
// zero value, and to nil for pointer types.
func convertScalar(t reflect.Type, value string) (reflect.Value, error) {
	if t.Kind() == reflect.Ptr {
		if value == "" {
			return reflect.Zero(t), nil
		}
		elem, err := convertScalar(t.Elem(), value)
		if err != nil {
			return reflect.Zero(t), err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}

	v := reflect.New(t).Elem()
	if err := setWithProperType(v, value); err != nil {
		var pe *ParseError
		if !errors.As(err, &pe) {
			err = &ParseError{Value: value, Type: t.String(), Err: err}
		}
		return reflect.Zero(t), err
	}
	return v, nil
}

// setWithProperType sets field from val with the conversion matching its type.
func setWithProperType(field reflect.Value, val string) error {
	addr := field.Addr().Interface()
	if u, ok := addr.(echo.BindUnmarshaler); ok {
		return u.UnmarshalParam(val)
	}
	if u, ok := addr.(encoding.TextUnmarshaler); ok && field.Type() != timeType {
		return u.UnmarshalText([]byte(val))
	}

	switch field.Type() {
	case timeType:
		return setTimeField(val, field)
	case durationType:
		return setDurationField(val, field)
	}

	switch field.Kind() {
	case reflect.Int:
		return setIntField(val, 0, field)
	case reflect.Int8:
		return setIntField(val, 8, field)
	case reflect.Int16:
		return setIntField(val, 16, field)
	case reflect.Int32:
		return setIntField(val, 32, field)
	case reflect.Int64:
		return setIntField(val, 64, field)
	case reflect.Uint:
		return setUintField(val, 0, field)
	case reflect.Uint8:
		return setUintField(val, 8, field)
	case reflect.Uint16:
		return setUintField(val, 16, field)
	case reflect.Uint32:
		return setUintField(val, 32, field)
	case reflect.Uint64:
		return setUintField(val, 64, field)
	case reflect.Bool:
		return setBoolField(val, field)
	case reflect.Float32:
		return setFloatField(val, 32, field)
	case reflect.Float64:
		return setFloatField(val, 64, field)
	case reflect.String:
		field.SetString(val)
		return nil
	}
	return errors.New("unknown type")
}

func setIntField(value string, bitSize int, field reflect.Value) error {
	if value == "" {
		value = "0"
	}
	intVal, err := strconv.ParseInt(value, 10, bitSize)
	if err == nil {
		field.SetInt(intVal)
	}
	return err
}

func setUintField(value string, bitSize int, field reflect.Value) error {
	if value == "" {
		value = "0"
	}
	uintVal, err := strconv.ParseUint(value, 10, bitSize)
	if err == nil {
		field.SetUint(uintVal)
	}
	return err
}

func setBoolField(value string, field reflect.Value) error {
	if value == "" {
		value = "false"
	}
	boolVal, err := strconv.ParseBool(value)
	if err == nil {
		field.SetBool(boolVal)
	}
	return err
}

func setFloatField(value string, bitSize int, field reflect.Value) error {
	if value == "" {
		value = "0.0"
	}
	floatVal, err := strconv.ParseFloat(value, bitSize)
	if err == nil {
		field.SetFloat(floatVal)
	}
	return err
}

func setDurationField(value string, field reflect.Value) error {
	if value == "" {
		field.SetInt(0)
		return nil
	}
	d, err := time.ParseDuration(value)
	if err == nil {
		field.SetInt(int64(d))
	}
	return err
}

func setTimeField(value string, field reflect.Value) error {
	if value == "" {
		field.Set(reflect.ValueOf(time.Time{}))
		return nil
	}

	for _, format := range timeFormats {
		if t, err := time.Parse(format, value); err == nil {
			field.Set(reflect.ValueOf(t))
			return nil
		}
	}

	return &ParseError{Value: value, Type: "time.Time", Err: fmt.Errorf("unknown time format")}
}
