package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteFilter_NormalizeDefaults(t *testing.T) {
	f := NoteFilter{}.Normalize()

	assert.Equal(t, SortByUpdated, f.SortBy)
	assert.Equal(t, SortDesc, f.SortOrder)
	assert.Equal(t, DateAll, f.DateFilter)
	require.NoError(t, f.Validate())
}

func TestNoteFilter_Validate(t *testing.T) {
	base := NoteFilter{}.Normalize()

	bad := base
	bad.SortBy = "owner"
	assert.Error(t, bad.Validate())

	bad = base
	bad.SortOrder = "sideways"
	assert.Error(t, bad.Validate())

	bad = base
	bad.DateFilter = "year"
	assert.Error(t, bad.Validate())
}

func TestNoteFilter_Since(t *testing.T) {
	now := time.Date(2024, time.March, 15, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		filter DateFilter
		want   time.Time
		ok     bool
	}{
		{DateAll, time.Time{}, false},
		{DateToday, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), true},
		{DateWeek, time.Date(2024, time.March, 8, 13, 45, 0, 0, time.UTC), true},
		{DateMonth, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got, ok := NoteFilter{DateFilter: tt.filter}.Since(now)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
		})
	}
}
