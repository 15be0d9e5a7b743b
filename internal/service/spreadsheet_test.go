package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCellDate(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-02": time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		"2025.03.02": time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		"2025/03/02": time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got, ok := parseCellDate(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	// Excel stores dates as serial numbers; 45719 is 2025-03-03.
	got, ok := parseCellDate("45719")
	require.True(t, ok)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.March, got.Month())

	_, ok = parseCellDate("")
	assert.False(t, ok)
	_, ok = parseCellDate("not a date")
	assert.False(t, ok)
}

func TestMapHeaders_IgnoresUnknownColumns(t *testing.T) {
	columns := mapHeaders([]string{" 의뢰번호 ", "비고", "자재코드"}, usageHeaderAliases)
	assert.Equal(t, map[int]string{0: "request_number", 2: "material_code"}, columns)

	values := rowValues([]string{" REQ-1 ", "unused", "MAT-001"}, columns)
	assert.Equal(t, "REQ-1", values["request_number"])
	assert.Equal(t, "MAT-001", values["material_code"])
}
