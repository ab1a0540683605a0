package validation

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stringType = reflect.TypeOf("")
	intType    = reflect.TypeOf(0)
)

func TestFromTags(t *testing.T) {
	owner := reflect.TypeOf(person{})
	r := NewRegistry()

	require.NoError(t, r.FromTags(owner))
	require.NoError(t, r.FromTags(reflect.PtrTo(owner)))

	assert.True(t, r.Required(owner, "Name"))
	assert.Len(t, r.RulesFor(owner, "Name"), 2, "second call must not register twice")
	assert.Empty(t, r.RulesFor(owner, "ID"))

	fc := func(field string) FieldContext { return FieldContext{Owner: owner, Field: field} }

	assert.Empty(t, r.Validate(fc("Alias"), reflect.ValueOf("abc")))
	assert.Len(t, r.Validate(fc("Alias"), reflect.ValueOf("abcde")), 1)
	assert.Len(t, r.Validate(fc("Age"), reflect.ValueOf(0)), 1)
	assert.Empty(t, r.Validate(fc("Code"), reflect.ValueOf("ab,1")))
	assert.Len(t, r.Validate(fc("Code"), reflect.ValueOf("ab1")), 1)
	assert.Empty(t, r.Validate(fc("Email"), reflect.ValueOf("")))

	errs := r.Validate(fc("Email"), reflect.ValueOf("nope"))
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Code)
}

func TestFromTagsOpenRange(t *testing.T) {
	owner := reflect.TypeOf(person{})
	r := NewRegistry()
	require.NoError(t, r.FromTags(owner))

	fc := FieldContext{Owner: owner, Field: "Adult"}
	assert.Empty(t, r.Validate(fc, reflect.ValueOf(30)))
	assert.Empty(t, r.Validate(fc, reflect.ValueOf(18)))
	assert.Equal(t, []*Error{{Code: CodeRange, Message: "The field Adult must be at least 18."}}, r.Validate(fc, reflect.ValueOf(17)))
}

func TestFromTagsErrors(t *testing.T) {
	type unknownRule struct {
		A string `validate:"bogus"`
	}
	type badBounds struct {
		A int `validate:"min=x"`
	}
	type badPattern struct {
		A string `validate:"pattern=("`
	}

	r := NewRegistry()
	err := r.FromTags(reflect.TypeOf(unknownRule{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `validation: field unknownRule.A: invalid tag "bogus"`)
	assert.Error(t, r.FromTags(reflect.TypeOf(badBounds{})))
	assert.Error(t, r.FromTags(reflect.TypeOf(badPattern{})))

	// errors are cached with the type
	assert.Error(t, r.FromTags(reflect.TypeOf(unknownRule{})))
	assert.Empty(t, r.RulesFor(reflect.TypeOf(unknownRule{}), "A"))

	assert.NoError(t, r.FromTags(reflect.TypeOf(0)))
}

func TestFromTagsConcurrentFirstUse(t *testing.T) {
	owner := reflect.TypeOf(person{})

	for round := 0; round < 50; round++ {
		r := NewRegistry()
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				assert.NoError(t, r.FromTags(owner))
			}()
		}
		close(start)
		wg.Wait()

		assert.Len(t, r.RulesFor(owner, "Name"), 2)
		assert.Len(t, r.RulesFor(owner, "Adult"), 1)
	}
}

func TestParseRules(t *testing.T) {
	testCases := []struct {
		name   string
		tag    string
		typ    reflect.Type
		expect []Rule
	}{
		{
			name:   "ok, required and max length",
			tag:    " required , max=5,",
			typ:    stringType,
			expect: []Rule{Required(), StringLength(0, 5)},
		},
		{
			name:   "ok, min length only",
			tag:    "min=3",
			typ:    stringType,
			expect: []Rule{StringLength(3, 0)},
		},
		{
			name:   "ok, exact length",
			tag:    "len=4",
			typ:    reflect.PtrTo(stringType),
			expect: []Rule{StringLength(4, 4)},
		},
		{
			name:   "ok, closed range",
			tag:    "min=1,max=9",
			typ:    intType,
			expect: []Rule{Range(1, 9)},
		},
		{
			name:   "ok, range without upper bound",
			tag:    "gte=18",
			typ:    intType,
			expect: []Rule{Range(18, math.Inf(1))},
		},
		{
			name:   "ok, range without lower bound",
			tag:    "lte=0.5",
			typ:    reflect.TypeOf(float64(0)),
			expect: []Rule{Range(math.Inf(-1), 0.5)},
		},
		{
			name:   "ok, other tags kept together",
			tag:    "required,omitempty,email",
			typ:    stringType,
			expect: []Rule{Required(), Tag("omitempty,email")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rules, err := parseRules(tc.tag, tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, rules)
		})
	}

	_, err := parseRules("max=x", stringType)
	assert.Error(t, err)
}
