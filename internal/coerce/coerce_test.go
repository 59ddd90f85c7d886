package coerce

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimal(t *testing.T) {
	tests := map[string]struct {
		raw    string
		want   string
		wantOK bool
	}{
		"number":          {raw: `12.5`, want: "12.5", wantOK: true},
		"numeric string":  {raw: `"19.90"`, want: "19.9", wantOK: true},
		"padded string":   {raw: `" 7 "`, want: "7", wantOK: true},
		"empty string":    {raw: `""`},
		"null":            {raw: `null`},
		"word":            {raw: `"abc"`},
		"bool":            {raw: `true`},
		"object":          {raw: `{}`},
		"missing":         {raw: ``},
		"negative number": {raw: `-3`, want: "-3", wantOK: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := Decimal(json.RawMessage(tt.raw))
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestInt(t *testing.T) {
	v, ok := Int(json.RawMessage(`"3"`))
	require.True(t, ok)
	assert.Equal(t, int64(3), v)

	v, ok = Int(json.RawMessage(`4.0`))
	require.True(t, ok)
	assert.Equal(t, int64(4), v)

	_, ok = Int(json.RawMessage(`2.5`))
	assert.False(t, ok, "fractional values are not integers")

	_, ok = Int(json.RawMessage(`"x"`))
	assert.False(t, ok)
}

func TestIntRange(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{`9223372036854775807`, math.MaxInt64, true},
		{`-9223372036854775808`, math.MinInt64, true},
		{`9223372036854775808`, 0, false},
		{`-9223372036854775809`, 0, false},
		{`18446744073709551621`, 0, false},
		{`"18446744073709551621"`, 0, false},
		{`1e30`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, ok := Int(json.RawMessage(tt.raw))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestNullable(t *testing.T) {
	nd, ok := NullDecimal(json.RawMessage(`null`))
	require.True(t, ok)
	assert.False(t, nd.Valid)

	nd, ok = NullDecimal(json.RawMessage(`"15.00"`))
	require.True(t, ok)
	require.True(t, nd.Valid)
	assert.Equal(t, "15", nd.Decimal.String())

	_, ok = NullDecimal(json.RawMessage(`"cheap"`))
	assert.False(t, ok)

	ni, ok := NullInt(json.RawMessage(`""`))
	require.True(t, ok)
	assert.Nil(t, ni)

	ni, ok = NullInt(json.RawMessage(`12`))
	require.True(t, ok)
	require.NotNil(t, ni)
	assert.Equal(t, int64(12), *ni)
}

func TestBool(t *testing.T) {
	for _, raw := range []string{`true`, `1`, `"1"`, `"true"`, `2`} {
		assert.True(t, Bool(json.RawMessage(raw)), raw)
	}
	for _, raw := range []string{`false`, `0`, `"0"`, `null`, `"no"`, ``} {
		assert.False(t, Bool(json.RawMessage(raw)), raw)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "camiseta", String(json.RawMessage(`"camiseta"`)))
	assert.Equal(t, "42", String(json.RawMessage(`42`)))
	assert.Equal(t, "", String(json.RawMessage(`null`)))
	assert.Equal(t, "", String(json.RawMessage(`[1]`)))

	assert.Nil(t, NullString(json.RawMessage(`null`)))
	s := NullString(json.RawMessage(`"Primera"`))
	require.NotNil(t, s)
	assert.Equal(t, "Primera", *s)
}
