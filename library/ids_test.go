package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence_Parse(t *testing.T) {
	tests := []struct {
		id   string
		want int
		ok   bool
	}{
		{"GDL-001", 1, true},
		{"gdl-042", 42, true},
		{" GDL-1000 ", 1000, true},
		{"GDL-", 0, false},
		{"GDL-12a", 0, false},
		{"MEM-001", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		n, ok := BookIDs.Parse(tt.id)
		assert.Equal(t, tt.ok, ok, "Parse(%q)", tt.id)
		assert.Equal(t, tt.want, n, "Parse(%q)", tt.id)
	}
}

func TestSequence_Next(t *testing.T) {
	assert.Equal(t, "GDL-001", BookIDs.Next(nil))
	assert.Equal(t, "GDL-006", BookIDs.Next([]string{"GDL-002", "GDL-005", "legacy", "MEM-009"}))
	assert.Equal(t, "MEM-1000", MemberIDs.Next([]string{"MEM-999"}))
	assert.Equal(t, []string{"GDL-004", "GDL-005", "GDL-006"}, BookIDs.NextN([]string{"GDL-003"}, 3))
}

func TestRenumber_DenseAfterGap(t *testing.T) {
	rows := books("GDL-005", "GDL-002", "GDL-003", "GDL-004")

	moved := Renumber(BookIDs, rows, bookID)

	assert.Equal(t, map[string]string{
		"GDL-002": "GDL-001",
		"GDL-003": "GDL-002",
		"GDL-004": "GDL-003",
		"GDL-005": "GDL-004",
	}, moved)
	assert.Equal(t, []string{"GDL-001", "GDL-002", "GDL-003", "GDL-004"}, ids(rows, bookID))
	// Rows travel with their ids.
	assert.Equal(t, "Title GDL-005", rows[3].Title)
}

func TestRenumber_UnparseableSortLast(t *testing.T) {
	rows := books("old-b", "GDL-003", "old-a", "GDL-001")

	moved := Renumber(BookIDs, rows, bookID)

	assert.Equal(t, []string{"Title GDL-001", "Title GDL-003", "Title old-b", "Title old-a"},
		[]string{rows[0].Title, rows[1].Title, rows[2].Title, rows[3].Title})
	assert.Equal(t, "GDL-002", moved["GDL-003"])
	assert.Equal(t, "GDL-003", moved["old-b"])
	assert.Equal(t, "GDL-004", moved["old-a"])
	assert.NotContains(t, moved, "GDL-001")
}

func TestRenumber_Idempotent(t *testing.T) {
	rows := books("GDL-004", "GDL-009", "GDL-001")
	first := Renumber(BookIDs, rows, bookID)
	assert.NotEmpty(t, first)

	second := Renumber(BookIDs, rows, bookID)
	assert.Empty(t, second)
	assert.Equal(t, []string{"GDL-001", "GDL-002", "GDL-003"}, ids(rows, bookID))
}
