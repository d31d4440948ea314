package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCellClassifiesCells(t *testing.T) {
	cases := []struct {
		raw  string
		kind Kind
	}{
		{"", Null},
		{"   ", Null},
		{"TRUE", Bool},
		{"false", Bool},
		{"True", Bool},
		{"tRuE", String},
		{"5", Number},
		{"1.0", Number},
		{"-3", Number},
		{"NaN", String},
		{"inf", String},
		{"WebTier", String},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, ParseCell(tc.raw).Kind(), "cell %q", tc.raw)
	}
}

func TestValueBoolCoercion(t *testing.T) {
	truthy := []Value{
		ParseCell("true"),
		ParseCell("TRUE"),
		ParseCell("True"),
		ParseCell("1"),
		ParseCell("1.0"),
		BoolValue(true),
		StringValue("tRuE"),
		NumberValue(1),
	}
	for _, v := range truthy {
		assert.True(t, v.Bool(), "expected %q to coerce to true", v.Text())
	}

	falsy := []Value{
		ParseCell("0"),
		ParseCell("false"),
		ParseCell(""),
		NullValue(),
		StringValue("yes"),
		NumberValue(2),
		NumberValue(0.5),
		BoolValue(false),
	}
	for _, v := range falsy {
		assert.False(t, v.Bool(), "expected %q (%s) to coerce to false", v.Text(), v.Kind())
	}
}

func TestValueTextFormatsIntegralNumbers(t *testing.T) {
	assert.Equal(t, "5", NumberValue(5).Text())
	assert.Equal(t, "2.5", NumberValue(2.5).Text())
	assert.Equal(t, "", NullValue().Text())
	assert.Equal(t, "true", BoolValue(true).Text())
}

func TestParseCellKeepsSourceText(t *testing.T) {
	for _, raw := range []string{"007", "1e3", "5.0", "TRUE", "False", " 12 "} {
		assert.Equal(t, raw, ParseCell(raw).Text(), "cell %q", raw)
	}

	v := ParseCell("007")
	assert.Equal(t, Number, v.Kind())
	n, ok := v.Int()
	require.True(t, ok)
	assert.Equal(t, 7, n)

	n, ok = ParseCell("1e3").Int()
	require.True(t, ok)
	assert.Equal(t, 1000, n)
}

func TestValueInt(t *testing.T) {
	n, ok := ParseCell("7.9").Int()
	require.True(t, ok)
	assert.Equal(t, 7, n)

	n, ok = StringValue(" 12 ").Int()
	require.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = StringValue("twelve").Int()
	assert.False(t, ok)
	_, ok = NullValue().Int()
	assert.False(t, ok)
	_, ok = BoolValue(true).Int()
	assert.False(t, ok)
}

func TestFromJSON(t *testing.T) {
	assert.Equal(t, Null, FromJSON(nil).Kind())
	assert.Equal(t, Null, FromJSON("  ").Kind())
	assert.Equal(t, Bool, FromJSON(true).Kind())
	assert.Equal(t, Number, FromJSON(float64(3)).Kind())
	assert.Equal(t, String, FromJSON("WebTier").Kind())
	assert.Equal(t, Null, FromJSON([]any{"a"}).Kind())
}
