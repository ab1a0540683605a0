package modelbind

import (
	"testing"

	"github.com/labstack/echo-modelbind/valueprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustQuery(t *testing.T, query string) *valueprovider.Store {
	t.Helper()
	s, err := valueprovider.ParseQuery(query)
	require.NoError(t, err)
	return s
}

func TestResolveIndices(t *testing.T) {
	testCases := []struct {
		name         string
		query        string
		prefix       string
		scalar       bool
		expectMode   IndexMode
		expectKeys   []string
		expectValues []string
	}{
		{
			name:       "ok, positional",
			query:      "parameter[0]=10&parameter[1]=11",
			prefix:     "parameter",
			scalar:     true,
			expectMode: IndexPositional,
			expectKeys: []string{"parameter[0]", "parameter[1]"},
		},
		{
			name:       "ok, positional stops at first gap",
			query:      "parameter[0]=10&parameter[1]=11&parameter[3]=13",
			prefix:     "parameter",
			scalar:     true,
			expectMode: IndexPositional,
			expectKeys: []string{"parameter[0]", "parameter[1]"},
		},
		{
			name:       "ok, positional not starting at zero finds nothing",
			query:      "parameter[1]=11",
			prefix:     "parameter",
			scalar:     true,
			expectMode: IndexNone,
		},
		{
			name:       "ok, positional complex elements",
			query:      "parameter[0].Id=1&parameter[1].Name=b",
			prefix:     "parameter",
			expectMode: IndexPositional,
			expectKeys: []string{"parameter[0]", "parameter[1]"},
		},
		{
			name:       "ok, explicit keeps submission order",
			query:      "index=low&index=high&[high]=11&[low]=10",
			prefix:     "",
			scalar:     true,
			expectMode: IndexExplicit,
			expectKeys: []string{"[low]", "[high]"},
		},
		{
			name:       "ok, explicit preserves duplicates",
			query:      "p.index=a&p.index=a&p[a]=1",
			prefix:     "p",
			scalar:     true,
			expectMode: IndexExplicit,
			expectKeys: []string{"p[a]", "p[a]"},
		},
		{
			name:       "ok, explicit wins over positional",
			query:      "p.index=b&p[0]=1&p[1]=2&p[b]=3",
			prefix:     "p",
			scalar:     true,
			expectMode: IndexExplicit,
			expectKeys: []string{"p[b]"},
		},
		{
			name:       "ok, explicit wins over flat",
			query:      "p.index=b&p=1&p[b]=3",
			prefix:     "p",
			scalar:     true,
			expectMode: IndexExplicit,
			expectKeys: []string{"p[b]"},
		},
		{
			name:         "ok, flat values",
			query:        "key=a&key=b",
			prefix:       "key",
			scalar:       true,
			expectMode:   IndexFlat,
			expectKeys:   []string{"key[0]", "key[1]"},
			expectValues: []string{"a", "b"},
		},
		{
			name:         "ok, flat bracket values",
			query:        "[]=a&[]=b",
			prefix:       "",
			scalar:       true,
			expectMode:   IndexFlat,
			expectKeys:   []string{"[0]", "[1]"},
			expectValues: []string{"a", "b"},
		},
		{
			name:         "ok, flat empty key",
			query:        "=a&=b",
			prefix:       "",
			scalar:       true,
			expectMode:   IndexFlat,
			expectKeys:   []string{"[0]", "[1]"},
			expectValues: []string{"a", "b"},
		},
		{
			name:       "ok, flat values ignored for complex elements",
			query:      "key=a&key=b",
			prefix:     "key",
			expectMode: IndexNone,
		},
		{
			name:       "ok, no data",
			query:      "other=1",
			prefix:     "parameter",
			scalar:     true,
			expectMode: IndexNone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := resolveIndices(mustQuery(t, tc.query), tc.prefix, tc.scalar, 100)
			require.NoError(t, err)

			assert.Equal(t, tc.expectMode, res.mode)
			var keys []string
			for _, idx := range res.indices {
				keys = append(keys, idx.Key(tc.prefix))
			}
			assert.Equal(t, tc.expectKeys, keys)
			assert.Equal(t, tc.expectValues, res.flat)
		})
	}
}

func TestResolveIndicesLimit(t *testing.T) {
	vp := mustQuery(t, "p[0]=1&p[1]=2&p[2]=3")
	_, err := resolveIndices(vp, "p", true, 2)
	assert.ErrorIs(t, err, ErrTooManyElements)

	res, err := resolveIndices(vp, "p", true, 3)
	assert.NoError(t, err)
	assert.Len(t, res.indices, 3)

	_, err = resolveIndices(mustQuery(t, "p.index=a&p.index=b&p.index=c"), "p", true, 2)
	assert.ErrorIs(t, err, ErrTooManyElements)

	_, err = resolveIndices(mustQuery(t, "p=a&p=b&p=c"), "p", true, 2)
	assert.ErrorIs(t, err, ErrTooManyElements)
}

func TestElementIndex(t *testing.T) {
	p := Positional(3)
	assert.False(t, p.IsCustom())
	assert.Equal(t, 3, p.Position())
	assert.Equal(t, "3", p.String())
	assert.Equal(t, "items[3]", p.Key("items"))

	c := Custom("low")
	assert.True(t, c.IsCustom())
	assert.Equal(t, "low", c.String())
	assert.Equal(t, "[low]", c.Key(""))

	assert.Equal(t, "explicit", IndexExplicit.String())
	assert.Equal(t, "flat", IndexFlat.String())
	assert.Equal(t, "positional", IndexPositional.String())
	assert.Equal(t, "none", IndexNone.String())
}
