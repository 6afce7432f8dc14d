package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_Monday(t *testing.T) {
	tests := []struct {
		day  Date
		want Date
	}{
		{NewDate(2025, time.March, 3), NewDate(2025, time.March, 3)},
		{NewDate(2025, time.March, 6), NewDate(2025, time.March, 3)},
		{NewDate(2025, time.March, 9), NewDate(2025, time.March, 3)},
		{NewDate(2025, time.January, 1), NewDate(2024, time.December, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.day.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.day.Monday())
			assert.Equal(t, time.Monday, tt.day.Monday().Weekday())
		})
	}
}

func TestDate_Between(t *testing.T) {
	start, end := NewDate(2025, time.March, 3), NewDate(2025, time.March, 9)

	assert.True(t, start.Between(start, end))
	assert.True(t, end.Between(start, end))
	assert.True(t, NewDate(2025, time.March, 5).Between(start, end))
	assert.False(t, start.AddDays(-1).Between(start, end))
	assert.False(t, end.AddDays(1).Between(start, end))
}

func TestDate_Scan(t *testing.T) {
	want := NewDate(2025, time.March, 4)

	tests := []struct {
		name string
		src  any
	}{
		{"time", time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)},
		{"text", "2025-03-04"},
		{"text with time", "2025-03-04T00:00:00Z"},
		{"bytes", []byte("2025-03-04")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, want, d)
		})
	}

	var d Date
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("yesterday"))
}

func TestDate_ValueAndJSON(t *testing.T) {
	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	d := NewDate(2025, time.March, 4)
	v, err = d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", v)

	raw, err := json.Marshal(PlanningEntry{Date: d})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"planningDate":"2025-03-04"`)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" approved ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("PENDING")
	assert.Error(t, err)
}
