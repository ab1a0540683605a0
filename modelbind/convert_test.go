package modelbind

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](value T) *T {
	return &value
}

// upper implements echo.BindUnmarshaler.
type upper string

func (u *upper) UnmarshalParam(param string) error {
	*u = upper(strings.ToUpper(param))
	return nil
}

func TestIsScalar(t *testing.T) {
	testCases := []struct {
		value    interface{}
		expected bool
	}{
		{value: 0, expected: true},
		{value: int8(0), expected: true},
		{value: uint64(0), expected: true},
		{value: float32(0), expected: true},
		{value: true, expected: true},
		{value: "", expected: true},
		{value: ptr(0), expected: true},
		{value: time.Time{}, expected: true},
		{value: time.Duration(0), expected: true},
		{value: net.IP{}, expected: true},
		{value: upper(""), expected: true},
		{value: []int{}, expected: false},
		{value: struct{ A int }{}, expected: false},
		{value: map[string]bool{}, expected: false},
		{value: complex64(0), expected: false},
	}

	for _, tc := range testCases {
		t.Run(reflect.TypeOf(tc.value).String(), func(t *testing.T) {
			assert.Equal(t, tc.expected, isScalar(reflect.TypeOf(tc.value)))
		})
	}
}

func TestConvertScalar(t *testing.T) {
	testCases := []struct {
		name      string
		typ       reflect.Type
		input     string
		expected  interface{}
		expectErr string
	}{
		{name: "ok, int", typ: reflect.TypeOf(0), input: "10", expected: 10},
		{name: "ok, empty int is zero", typ: reflect.TypeOf(0), input: "", expected: 0},
		{name: "ok, int8", typ: reflect.TypeOf(int8(0)), input: "-128", expected: int8(-128)},
		{name: "nok, int8 overflow", typ: reflect.TypeOf(int8(0)), input: "128", expectErr: "value out of range"},
		{name: "nok, int syntax", typ: reflect.TypeOf(0), input: "abc", expectErr: "invalid syntax"},
		{name: "ok, uint16", typ: reflect.TypeOf(uint16(0)), input: "65535", expected: uint16(65535)},
		{name: "nok, negative uint", typ: reflect.TypeOf(uint(0)), input: "-1", expectErr: "invalid syntax"},
		{name: "ok, bool", typ: reflect.TypeOf(false), input: "true", expected: true},
		{name: "ok, empty bool", typ: reflect.TypeOf(false), input: "", expected: false},
		{name: "ok, float32", typ: reflect.TypeOf(float32(0)), input: "1.5", expected: float32(1.5)},
		{name: "ok, float64 empty", typ: reflect.TypeOf(float64(0)), input: "", expected: float64(0)},
		{name: "ok, string", typ: reflect.TypeOf(""), input: "x", expected: "x"},
		{name: "ok, duration", typ: reflect.TypeOf(time.Duration(0)), input: "1m30s", expected: 90 * time.Second},
		{name: "nok, duration", typ: reflect.TypeOf(time.Duration(0)), input: "soon", expectErr: "invalid duration"},
		{name: "ok, pointer", typ: reflect.TypeOf(ptr(0)), input: "1", expected: ptr(1)},
		{name: "ok, empty pointer is nil", typ: reflect.TypeOf(ptr(0)), input: "", expected: (*int)(nil)},
		{name: "ok, text unmarshaler", typ: reflect.TypeOf(net.IP{}), input: "10.0.0.1", expected: net.ParseIP("10.0.0.1")},
		{name: "ok, bind unmarshaler", typ: reflect.TypeOf(upper("")), input: "abc", expected: upper("ABC")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := convertScalar(tc.typ, tc.input)
			if tc.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectErr)

				var parseErr *ParseError
				assert.ErrorAs(t, err, &parseErr)
				assert.Equal(t, tc.input, parseErr.Value)
				assert.True(t, v.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v.Interface())
		})
	}
}

func TestSetWithProperTypeUnsupported(t *testing.T) {
	var target complex64
	field := reflect.ValueOf(&target).Elem()
	err := setWithProperType(field, "1+2i")
	assert.EqualError(t, err, "unknown type")
}

func TestSetTimeField(t *testing.T) {
	target := struct {
		Time time.Time `form:"time"`
	}{}
	field := reflect.ValueOf(&target).Elem().Field(0)

	t.Run("empty time value", func(t *testing.T) {
		err := setTimeField("", field)
		assert.NoError(t, err)
		assert.Equal(t, time.Time{}, target.Time)
	})

	t.Run("time format variations", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected time.Time
		}{
			{"2023-12-25T14:30:00Z", time.Date(2023, 12, 25, 14, 30, 0, 0, time.UTC)},
			{"2023-01-01T15:04:05", time.Date(2023, 1, 1, 15, 4, 5, 0, time.UTC)},
			{"2023-01-01 15:04:05", time.Date(2023, 1, 1, 15, 4, 5, 0, time.UTC)},
			{"2023-01-01", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
			{"15:04:05", time.Date(0, 1, 1, 15, 4, 5, 0, time.UTC)},
		}

		for _, tc := range testCases {
			err := setTimeField(tc.input, field)
			assert.NoError(t, err)
			assert.True(t, tc.expected.Equal(target.Time), "expected %v, got %v", tc.expected, target.Time)
		}
	})

	t.Run("invalid time format", func(t *testing.T) {
		err := setTimeField("invalid-time-format", field)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "invalid-time-format", parseErr.Value)
		assert.Equal(t, "time.Time", parseErr.Type)
	})

	t.Run("pointer to time through convertScalar", func(t *testing.T) {
		v, err := convertScalar(reflect.TypeOf(ptr(time.Time{})), "2023-02-20")
		require.NoError(t, err)
		assert.True(t, time.Date(2023, 2, 20, 0, 0, 0, 0, time.UTC).Equal(*v.Interface().(*time.Time)))
	})
}
