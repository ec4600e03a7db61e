package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		total int64
		want  int
	}{
		{"missing page", "", 13, 1},
		{"non numeric page", "abc", 13, 1},
		{"first page", "1", 13, 1},
		{"second page", "2", 13, 2},
		{"beyond last page", "99", 13, 2},
		{"zero page", "0", 13, 2},
		{"negative page", "-3", 13, 2},
		{"empty listing", "5", 0, 1},
		{"exact multiple", "2", 20, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.raw, tt.total, 10))
		})
	}
}

func TestNumPagesFor(t *testing.T) {
	assert.Equal(t, 1, NumPagesFor(0, 10))
	assert.Equal(t, 1, NumPagesFor(10, 10))
	assert.Equal(t, 2, NumPagesFor(11, 10))
	assert.Equal(t, 2, NumPagesFor(13, 10))
}

func TestPageNavigation(t *testing.T) {
	p := New([]int{11, 12, 13}, 2, 10, 13)

	assert.Equal(t, 2, p.NumPages)
	assert.True(t, p.HasPrevious())
	assert.False(t, p.HasNext())
	assert.True(t, p.HasOtherPages())
	assert.Equal(t, 1, p.PreviousNumber())
	assert.Equal(t, []int{1, 2}, p.PageRange())
	assert.Equal(t, 10, Offset(p.Number, p.PerPage))

	single := New([]int{}, 1, 10, 0)
	assert.False(t, single.HasOtherPages())
}
