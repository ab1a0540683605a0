// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package validation

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// TagName is the struct tag read by FromTags.
const TagName = "validate"

// FromTags registers the rules declared in `validate` tags of owner's fields. Tags use
// go-playground/validator syntax. Each type is processed once, later calls return the
// first result.
//
// Some tags become built-in rules so failures carry their codes and messages:
//
//	required                            Required
//	min=n,max=n,len=n on strings        StringLength
//	min=n,max=n,gte=n,lte=n on numbers  Range, either side may be left open
//	pattern=<regexp>                    Pattern
//
// The remaining tags of a field (email, oneof=a b, ...) are checked together by Tag.
func (r *Registry) FromTags(owner reflect.Type) error {
	for owner.Kind() == reflect.Ptr {
		owner = owner.Elem()
	}
	if owner.Kind() != reflect.Struct {
		return nil
	}

	r.mu.RLock()
	err, done := r.tagged[owner]
	r.mu.RUnlock()
	if done {
		return err
	}

	fields, err := parseTags(owner)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err, done := r.tagged[owner]; done {
		return err
	}
	if err == nil {
		for _, f := range fields {
			r.register(owner, f.name, f.rules)
		}
	}
	r.tagged[owner] = err
	return err
}

type fieldRules struct {
	name  string
	rules []Rule
}

func parseTags(owner reflect.Type) ([]fieldRules, error) {
	var fields []fieldRules
	for i := 0; i < owner.NumField(); i++ {
		f := owner.Field(i)
		tag, ok := f.Tag.Lookup(TagName)
		if !ok || tag == "" || tag == "-" {
			continue
		}
		rules, err := parseRules(tag, f.Type)
		if err != nil {
			return nil, fmt.Errorf("validation: field %s.%s: %w", owner.Name(), f.Name, err)
		}
		fields = append(fields, fieldRules{name: f.Name, rules: rules})
	}
	return fields, nil
}

func parseRules(tag string, t reflect.Type) ([]Rule, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	str := t.Kind() == reflect.String
	num := isNumber(t.Kind())

	var (
		rules    []Rule
		rest     []string
		strMin   int
		strMax   int
		strSet   bool
		rangeSet bool
	)
	lo, hi := math.Inf(-1), math.Inf(1)
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, param, _ := strings.Cut(part, "=")
		switch {
		case name == "required":
			rules = append(rules, Required())
		case name == TagPattern:
			re, err := compilePattern(paramUnescaper.Replace(param))
			if err != nil {
				return nil, err
			}
			rules = append(rules, Pattern(re))
		case str && (name == "min" || name == "max" || name == "len"):
			n, err := strconv.Atoi(param)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if name != "max" {
				strMin = n
			}
			if name != "min" {
				strMax = n
			}
			strSet = true
		case num && (name == "min" || name == "gte" || name == "max" || name == "lte"):
			f, err := strconv.ParseFloat(param, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if name == "min" || name == "gte" {
				lo = f
			} else {
				hi = f
			}
			rangeSet = true
		default:
			rest = append(rest, part)
		}
	}
	if strSet {
		rules = append(rules, StringLength(strMin, strMax))
	}
	if rangeSet {
		rules = append(rules, Range(lo, hi))
	}
	if len(rest) > 0 {
		tag := strings.Join(rest, ",")
		if err := checkTag(t, tag); err != nil {
			return nil, err
		}
		rules = append(rules, Tag(tag))
	}
	return rules, nil
}

// checkTag runs tag once against the zero value of t. The validator panics on tags it
// does not know, that is turned into an error here instead of during a request.
func checkTag(t reflect.Type, tag string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("invalid tag %q: %v", tag, rec)
		}
	}()
	_ = Validator().Var(reflect.Zero(t).Interface(), tag)
	return nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
