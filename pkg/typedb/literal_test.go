package typedb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSanitizeEscapesBackslashBeforeQuote(t *testing.T) {
	require.Equal(t, `x\\\"; drop`, Sanitize(`x\"; drop`))
	require.Equal(t, `plain`, Sanitize(`plain`))
	require.Equal(t, `a\\b`, Sanitize(`a\b`))
}

func TestFormatValueText(t *testing.T) {
	lit, err := FormatValue(`a\b"c`)
	require.NoError(t, err)
	require.Equal(t, `"a\\b\"c"`, lit)
}

func TestFormatValueScalars(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"uuid", uuid.MustParse("0b126b50-3f3c-4f7a-9a5e-111111111111"), `"0b126b50-3f3c-4f7a-9a5e-111111111111"`},
		{"int", 42, "42"},
		{"int64", int64(7), "7"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"float", 2.5, "2.5"},
		{"list", []string{"X", "Y"}, `["X", "Y"]`},
		{"nested list", []any{1, "a"}, `[1, "a"]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lit, err := FormatValue(tc.value)
			require.NoError(t, err)
			require.Equal(t, tc.want, lit)
		})
	}
}

func TestFormatValueDatetimeAlwaysUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2025, 6, 1, 13, 30, 0, 250000000, loc)

	lit, err := FormatValue(ts)
	require.NoError(t, err)
	require.Equal(t, "2025-06-01T12:30:00.250000+0000", lit)
}

func TestFormatValueDate(t *testing.T) {
	lit, err := FormatValue(Date(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, "2025-06-01", lit)
}

func TestFormatValueRejectsNil(t *testing.T) {
	_, err := FormatValue(nil)
	require.IsType(t, &NullLiteralError{}, err)

	var s *string
	_, err = FormatValue(s)
	require.IsType(t, &NullLiteralError{}, err)
}

func TestFormatValuePointerDereference(t *testing.T) {
	v := "hello"
	lit, err := FormatValue(&v)
	require.NoError(t, err)
	require.Equal(t, `"hello"`, lit)
}
