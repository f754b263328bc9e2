package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzePagination(t *testing.T) {
	tests := []struct {
		name       string
		links      []int
		current    int
		pages      []int
		gaps       []Gap
		duplicates []int
		outOfOrder bool
		passed     bool
		warnings   int
	}{
		{
			name:    "contiguous from one",
			links:   []int{2, 3, 4},
			current: 1,
			pages:   []int{1, 2, 3, 4},
			passed:  true,
		},
		{
			name:     "ellipsis gap",
			links:    []int{2, 3, 9, 10},
			current:  1,
			pages:    []int{1, 2, 3, 9, 10},
			gaps:     []Gap{{After: 3, Before: 9}},
			passed:   true,
			warnings: 1,
		},
		{
			name:     "window not starting at one",
			links:    []int{6, 7},
			current:  5,
			pages:    []int{5, 6, 7},
			passed:   true,
			warnings: 1,
		},
		{
			name:       "pager above and below the list",
			links:      []int{2, 3, 2, 3},
			current:    1,
			pages:      []int{1, 2, 3},
			duplicates: []int{2, 3},
			passed:     true,
		},
		{
			name:       "out of order",
			links:      []int{3, 2},
			current:    1,
			pages:      []int{1, 2, 3},
			outOfOrder: true,
		},
		{
			name:    "single page",
			current: 1,
			pages:   []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := AnalyzePagination(tt.links, tt.current)
			assert.Equal(t, tt.pages, r.Pages)
			assert.Equal(t, tt.gaps, r.Gaps)
			assert.Equal(t, tt.duplicates, r.Duplicates)
			assert.Equal(t, tt.outOfOrder, r.OutOfOrder)
			assert.Equal(t, tt.passed, r.Passed())
			assert.Len(t, r.Warnings(), tt.warnings)
		})
	}
}

func TestPaginationReport_Summary(t *testing.T) {
	r := AnalyzePagination([]int{2, 3}, 1)
	assert.Equal(t, "Pagination validation PASSED - 3 pages (1, 2, 3), current page 1", r.Summary())

	r.Broken = []int{3}
	assert.Equal(t, "Pagination validation FAILED - 1 broken links (3)", r.Summary())

	r = AnalyzePagination(nil, 1)
	assert.Equal(t, "Pagination is not displayed", r.Summary())
	assert.Equal(t, 1, r.First())
	assert.Equal(t, 1, r.Last())
}

func TestParsePageNumbers(t *testing.T) {
	got := ParsePageNumbers([]string{"Previous", " 2 ", "3", "...", "0", "10", "Next"})
	assert.Equal(t, []int{2, 3, 10}, got)
}
