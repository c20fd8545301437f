package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageOf(t *testing.T) {
	tests := []struct {
		name          string
		content       []int
		req           PageRequest
		countResult   int64
		expectCounted bool
		expectedTotal int64
	}{
		{
			name:          "short first page skips count",
			content:       []int{1, 2},
			req:           NewPageRequest(0, 3),
			expectedTotal: 2,
		},
		{
			name:          "full first page counts",
			content:       []int{1, 2, 3},
			req:           NewPageRequest(0, 3),
			countResult:   4,
			expectCounted: true,
			expectedTotal: 4,
		},
		{
			name:          "short last page skips count",
			content:       []int{4},
			req:           NewPageRequest(1, 3),
			expectedTotal: 4,
		},
		{
			name:          "full middle page counts",
			content:       []int{4, 5, 6},
			req:           NewPageRequest(1, 3),
			countResult:   10,
			expectCounted: true,
			expectedTotal: 10,
		},
		{
			name:          "empty page past the end counts",
			content:       []int{},
			req:           NewPageRequest(5, 3),
			countResult:   4,
			expectCounted: true,
			expectedTotal: 4,
		},
		{
			name:          "empty first page skips count",
			content:       nil,
			req:           NewPageRequest(0, 3),
			expectedTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counted := false
			page, err := PageOf(context.Background(), tt.content, tt.req, func(context.Context) (int64, error) {
				counted = true
				return tt.countResult, nil
			})
			require.NoError(t, err)

			assert.Equal(t, tt.expectCounted, counted)
			assert.Equal(t, tt.expectedTotal, page.Total)
			assert.Equal(t, tt.req.Page, page.Page)
			assert.Equal(t, tt.req.Size, page.Size)
			assert.NotNil(t, page.Content)
		})
	}
}

func TestPageOf_CountError(t *testing.T) {
	_, err := PageOf(context.Background(), []int{1, 2, 3}, NewPageRequest(0, 3), func(context.Context) (int64, error) {
		return 0, errors.New("db error")
	})
	assert.Error(t, err)
}

func TestPage_Navigation(t *testing.T) {
	tests := []struct {
		name       string
		page       *Page[int]
		totalPages int
		hasNext    bool
	}{
		{name: "first of two", page: NewPage([]int{1, 2, 3}, NewPageRequest(0, 3), 4), totalPages: 2, hasNext: true},
		{name: "last of two", page: NewPage([]int{4}, NewPageRequest(1, 3), 4), totalPages: 2, hasNext: false},
		{name: "exact fit", page: NewPage([]int{1, 2}, NewPageRequest(0, 2), 2), totalPages: 1, hasNext: false},
		{name: "empty", page: NewPage([]int{}, NewPageRequest(0, 2), 0), totalPages: 0, hasNext: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.totalPages, tt.page.TotalPages())
			assert.Equal(t, tt.hasNext, tt.page.HasNext())
			assert.Equal(t, !tt.hasNext, tt.page.IsLast())
		})
	}
}

func TestMap(t *testing.T) {
	p := NewPage([]int{1, 2}, NewPageRequest(1, 2), 4)
	mapped := Map(p, func(i int) string { return string(rune('a' + i)) })

	assert.Equal(t, []string{"b", "c"}, mapped.Content)
	assert.Equal(t, int64(4), mapped.Total)
	assert.Equal(t, 1, mapped.Page)
	assert.Equal(t, 2, mapped.NumberOfElements())
}

func TestPageRequest_Offset(t *testing.T) {
	assert.Equal(t, int64(0), NewPageRequest(0, 10).Offset())
	assert.Equal(t, int64(30), NewPageRequest(3, 10).Offset())
}
