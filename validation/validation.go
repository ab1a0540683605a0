// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

/*
Package validation holds property validators for model binding.

Rules are registered per (struct type, field name) in a Registry. The binder asks the
registry whether a field is required and which rules to run on a bound value; it never
looks at struct tags itself. Tags, in go-playground/validator syntax, are one way to fill
the registry:

	type Person struct {
		ID   int    `form:"Id"`
		Name string `form:"Name" validate:"required,max=10"`
	}

	r := validation.NewRegistry()
	r.Register(reflect.TypeOf(Person{}), "Name", validation.Required(), validation.StringLength(0, 10))
*/
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Error codes reported by the built-in rules.
const (
	CodeRequired     = "required"
	CodeStringLength = "stringlength"
	CodeRange        = "range"
	CodePattern      = "pattern"
)

// TagPattern is the validator tag registered for regular expressions: `pattern=^[a-z]+$`.
// Commas and pipes inside the expression are written as 0x2C and 0x7C.
const TagPattern = "pattern"

var (
	validateOnce sync.Once
	validate     *validator.Validate

	patterns sync.Map // string -> *regexp.Regexp
)

// Validator returns the shared validator the rules run on. It is safe for concurrent use
// and knows the pattern tag besides the validator built-ins.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		if err := validate.RegisterValidation(TagPattern, matchPattern); err != nil {
			panic(err)
		}
	})
	return validate
}

func compilePattern(expr string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(expr); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patterns.Store(expr, re)
	return re, nil
}

func matchPattern(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	re, err := compilePattern(fl.Param())
	return err == nil && re.MatchString(fl.Field().String())
}

var paramEscaper = strings.NewReplacer(",", "0x2C", "|", "0x7C")
var paramUnescaper = strings.NewReplacer("0x2C", ",", "0x7C", "|")

// Error is a failed rule.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// FieldContext describes the property being validated.
type FieldContext struct {
	// Owner is the struct type declaring the field.
	Owner reflect.Type
	// Field is the Go field name, used in messages.
	Field string
	// Key is the binding key of the value.
	Key string
}

// Rule validates one bound value.
type Rule interface {
	Validate(fc FieldContext, v reflect.Value) *Error
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(fc FieldContext, v reflect.Value) *Error

// Validate implements Rule.
func (f RuleFunc) Validate(fc FieldContext, v reflect.Value) *Error {
	return f(fc, v)
}

type requiredRule struct{}

// Required marks a field as required. It fails only when no value was submitted,
// the binder reports that through RequiredError.
func Required() Rule {
	return requiredRule{}
}

func (requiredRule) Validate(fc FieldContext, v reflect.Value) *Error {
	if !v.IsValid() {
		return RequiredError(fc)
	}
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return RequiredError(fc)
	}
	return nil
}

// RequiredError returns the error reported for a missing required field.
func RequiredError(fc FieldContext) *Error {
	return &Error{
		Code:    CodeRequired,
		Message: fmt.Sprintf("The %s field is required.", fc.Field),
	}
}

type stringLengthRule struct {
	min, max int
}

// StringLength limits the rune count of a string. A max of 0 or less means unbounded.
func StringLength(min, max int) Rule {
	return stringLengthRule{min: min, max: max}
}

func (r stringLengthRule) tag() string {
	var parts []string
	if r.min > 0 {
		parts = append(parts, "min="+strconv.Itoa(r.min))
	}
	if r.max > 0 {
		parts = append(parts, "max="+strconv.Itoa(r.max))
	}
	return strings.Join(parts, ",")
}

func (r stringLengthRule) Validate(fc FieldContext, v reflect.Value) *Error {
	v = indirect(v)
	if !v.IsValid() || v.Kind() != reflect.String {
		return nil
	}
	tag := r.tag()
	if tag == "" || Validator().Var(v.String(), tag) == nil {
		return nil
	}
	var msg string
	switch {
	case r.min > 0 && r.max > 0:
		msg = fmt.Sprintf("The field %s must be a string with a minimum length of %d and a maximum length of %d.", fc.Field, r.min, r.max)
	case r.max > 0:
		msg = fmt.Sprintf("The field %s must be a string with a maximum length of %d.", fc.Field, r.max)
	default:
		msg = fmt.Sprintf("The field %s must be a string with a minimum length of %d.", fc.Field, r.min)
	}
	return &Error{Code: CodeStringLength, Message: msg}
}

type rangeRule struct {
	min, max float64
}

// Range bounds a numeric value, inclusive on both ends. Pass math.Inf(-1) or
// math.Inf(1) to leave a side open.
func Range(min, max float64) Rule {
	return rangeRule{min: min, max: max}
}

func (r rangeRule) tag() string {
	var parts []string
	if !math.IsInf(r.min, 0) {
		parts = append(parts, "gte="+strconv.FormatFloat(r.min, 'f', -1, 64))
	}
	if !math.IsInf(r.max, 0) {
		parts = append(parts, "lte="+strconv.FormatFloat(r.max, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

func (r rangeRule) Validate(fc FieldContext, v reflect.Value) *Error {
	v = indirect(v)
	if !v.IsValid() {
		return nil
	}
	var f float64
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		f = v.Float()
	default:
		return nil
	}
	tag := r.tag()
	if tag == "" || Validator().Var(f, tag) == nil {
		return nil
	}
	var msg string
	switch {
	case math.IsInf(r.max, 0):
		msg = fmt.Sprintf("The field %s must be at least %v.", fc.Field, r.min)
	case math.IsInf(r.min, 0):
		msg = fmt.Sprintf("The field %s must be at most %v.", fc.Field, r.max)
	default:
		msg = fmt.Sprintf("The field %s must be between %v and %v.", fc.Field, r.min, r.max)
	}
	return &Error{Code: CodeRange, Message: msg}
}

type patternRule struct {
	re *regexp.Regexp
}

// Pattern requires a string value to match re.
func Pattern(re *regexp.Regexp) Rule {
	patterns.LoadOrStore(re.String(), re)
	return patternRule{re: re}
}

func (r patternRule) Validate(fc FieldContext, v reflect.Value) *Error {
	v = indirect(v)
	if !v.IsValid() || v.Kind() != reflect.String {
		return nil
	}
	if Validator().Var(v.String(), TagPattern+"="+paramEscaper.Replace(r.re.String())) == nil {
		return nil
	}
	return &Error{
		Code:    CodePattern,
		Message: fmt.Sprintf("The field %s must match the regular expression '%s'.", fc.Field, r.re.String()),
	}
}

type tagRule struct {
	tag string
}

// Tag runs a validator tag such as "email" or "omitempty,oneof=red green" on the value.
func Tag(tag string) Rule {
	return tagRule{tag: tag}
}

func (r tagRule) Validate(fc FieldContext, v reflect.Value) *Error {
	v = indirect(v)
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	err := Validator().Var(v.Interface(), r.tag)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return &Error{Code: r.tag, Message: fmt.Sprintf("The field %s is invalid.", fc.Field)}
	}
	fe := fes[0]
	msg := fmt.Sprintf("The field %s is not a valid %s.", fc.Field, fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("The field %s does not satisfy %s=%s.", fc.Field, fe.Tag(), fe.Param())
	}
	return &Error{Code: codeFor(fe), Message: msg}
}

// codeFor maps a validator tag onto the model state codes of the built-in rules.
func codeFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max", "len":
		if fe.Kind() == reflect.String {
			return CodeStringLength
		}
		return CodeRange
	case "gt", "gte", "lt", "lte":
		return CodeRange
	case TagPattern:
		return CodePattern
	case "required":
		return CodeRequired
	}
	return fe.Tag()
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

type fieldKey struct {
	owner reflect.Type
	field string
}

// Registry maps struct fields to their rules. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	rules  map[fieldKey][]Rule
	tagged map[reflect.Type]error
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rules:  make(map[fieldKey][]Rule),
		tagged: make(map[reflect.Type]error),
	}
}

// Register appends rules to the field of owner.
func (r *Registry) Register(owner reflect.Type, field string, rules ...Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(owner, field, rules)
}

func (r *Registry) register(owner reflect.Type, field string, rules []Rule) {
	k := fieldKey{owner: owner, field: field}
	r.rules[k] = append(r.rules[k], rules...)
}

// RulesFor returns the rules registered for the field of owner.
func (r *Registry) RulesFor(owner reflect.Type, field string) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules[fieldKey{owner: owner, field: field}]
}

// Required reports whether a Required rule is registered for the field of owner.
func (r *Registry) Required(owner reflect.Type, field string) bool {
	for _, rule := range r.RulesFor(owner, field) {
		if _, ok := rule.(requiredRule); ok {
			return true
		}
	}
	return false
}

// Validate runs every rule except Required against v and returns the failures.
func (r *Registry) Validate(fc FieldContext, v reflect.Value) []*Error {
	var errs []*Error
	for _, rule := range r.RulesFor(fc.Owner, fc.Field) {
		if _, ok := rule.(requiredRule); ok {
			continue
		}
		if err := rule.Validate(fc, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
