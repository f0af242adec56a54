package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantFirst int
		wantLen   int
	}{
		{"first", 1, 1, 0, 10},
		{"last partial", 3, 3, 20, 3},
		{"zero clamps up", 0, 1, 0, 10},
		{"past end clamps down", 9, 3, 20, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, 0)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, 23, p.Total)
			assert.Equal(t, 3, p.TotalPages)
			assert.Equal(t, 10, p.PageSize)
			assert.Len(t, p.Items, tt.wantLen)
			assert.Equal(t, tt.wantFirst, p.Items[0])
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate([]string(nil), 4, 10)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalPages)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}
