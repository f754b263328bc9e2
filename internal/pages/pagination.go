package pages

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Gap is a run of page numbers missing between two linked pages, as left
// by "1 2 ... 9 10" style pagers.
type Gap struct {
	After  int
	Before int
}

func (g Gap) String() string {
	return fmt.Sprintf("%d..%d", g.After, g.Before)
}

// PaginationReport is the outcome of inspecting a result pager.
type PaginationReport struct {
	Displayed bool
	// Pages holds every distinct page number seen, ascending, including the
	// current page.
	Pages      []int
	Current    int
	Duplicates []int
	Gaps       []Gap
	// OutOfOrder is set when the links, in document order, do not ascend.
	OutOfOrder bool
	Working    []int
	Broken     []int
}

// AnalyzePagination builds a report from the numeric page links in document
// order and the current page. Page numbers need not start at 1 or be
// contiguous; gaps are reported, not treated as errors. Repeats are
// recorded too since pagers are often rendered above and below the list.
func AnalyzePagination(links []int, current int) PaginationReport {
	r := PaginationReport{Displayed: len(links) > 0, Current: current}

	seen := map[int]bool{}
	highest := 0
	for _, n := range links {
		if seen[n] {
			r.Duplicates = append(r.Duplicates, n)
			continue
		}
		if n < highest {
			r.OutOfOrder = true
		}
		seen[n] = true
		highest = max(highest, n)
	}
	if current > 0 {
		seen[current] = true
	}

	for n := range seen {
		r.Pages = append(r.Pages, n)
	}
	sort.Ints(r.Pages)
	for i := 1; i < len(r.Pages); i++ {
		if r.Pages[i] != r.Pages[i-1]+1 {
			r.Gaps = append(r.Gaps, Gap{After: r.Pages[i-1], Before: r.Pages[i]})
		}
	}
	return r
}

// First is the lowest page number, or 0 without pages.
func (r PaginationReport) First() int {
	if len(r.Pages) == 0 {
		return 0
	}
	return r.Pages[0]
}

// Last is the highest page number, or 0 without pages.
func (r PaginationReport) Last() int {
	if len(r.Pages) == 0 {
		return 0
	}
	return r.Pages[len(r.Pages)-1]
}

// Passed reports whether the pager is shown, ordered, and every link that
// was tried led to its page.
func (r PaginationReport) Passed() bool {
	return r.Displayed && len(r.Pages) > 0 && !r.OutOfOrder && len(r.Broken) == 0
}

// Warnings lists tolerated irregularities.
func (r PaginationReport) Warnings() []string {
	var out []string
	if len(r.Gaps) > 0 {
		gaps := make([]string, len(r.Gaps))
		for i, g := range r.Gaps {
			gaps[i] = g.String()
		}
		out = append(out, "page numbers skip "+strings.Join(gaps, ", "))
	}
	if first := r.First(); first > 1 {
		out = append(out, fmt.Sprintf("first linked page is %d", first))
	}
	return out
}

// Summary is a one-line description for the report.
func (r PaginationReport) Summary() string {
	if !r.Displayed {
		return "Pagination is not displayed"
	}
	if r.Passed() {
		return fmt.Sprintf("Pagination validation PASSED - %d pages (%s), current page %d",
			len(r.Pages), joinInts(r.Pages), r.Current)
	}
	var why []string
	if r.OutOfOrder {
		why = append(why, "page links are out of order")
	}
	if len(r.Broken) > 0 {
		why = append(why, fmt.Sprintf("%d broken links (%s)", len(r.Broken), joinInts(r.Broken)))
	}
	return fmt.Sprintf("Pagination validation FAILED - %s", strings.Join(why, "; "))
}

// ParsePageNumbers keeps the numeric labels of pager links, in order.
func ParsePageNumbers(labels []string) []int {
	var out []int
	for _, l := range labels {
		n, err := strconv.Atoi(strings.TrimSpace(l))
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}

func joinInts(ns []int) string {
	s := make([]string, len(ns))
	for i, n := range ns {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ", ")
}
