// Package stats computes descriptive statistics over task attributes.
package stats

import (
	"cmp"
	"errors"
	"slices"

	"github.com/aristath/htse/internal/scheduler"
)

// ErrEmpty is returned for operations that are undefined on an empty input.
var ErrEmpty = errors.New("empty collection")

// Number is the set of types Sum and Mean accept.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Max returns the largest element.
func Max[T cmp.Ordered](items []T) (T, error) {
	if len(items) == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return slices.Max(items), nil
}

// Min returns the smallest element.
func Min[T cmp.Ordered](items []T) (T, error) {
	if len(items) == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return slices.Min(items), nil
}

// Sum adds every element. The sum of nothing is zero.
func Sum[T Number](items []T) T {
	var total T
	for _, v := range items {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean.
func Mean[T Number](items []T) (float64, error) {
	if len(items) == 0 {
		return 0, ErrEmpty
	}
	return float64(Sum(items)) / float64(len(items)), nil
}

// Median returns the middle element of the sorted input, or the mean of the
// two middle elements for an even count. items is not modified.
func Median[T Number](items []T) (float64, error) {
	if len(items) == 0 {
		return 0, ErrEmpty
	}
	sorted := slices.Clone(items)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid]), nil
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2, nil
}

// CountAbove counts elements strictly greater than threshold.
func CountAbove[T cmp.Ordered](items []T, threshold T) int {
	n := 0
	for _, v := range items {
		if v > threshold {
			n++
		}
	}
	return n
}

// Summary describes one integer attribute across a task set.
type Summary struct {
	Count  int
	Sum    int
	Min    int
	Max    int
	Mean   float64
	Median float64
}

// Range is Max - Min.
func (s Summary) Range() int { return s.Max - s.Min }

// Summarize computes a Summary over values.
func Summarize(values []int) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrEmpty
	}

	s := Summary{Count: len(values), Sum: Sum(values)}
	s.Min, _ = Min(values)
	s.Max, _ = Max(values)
	s.Mean, _ = Mean(values)
	s.Median, _ = Median(values)
	return s, nil
}

// GraphSummary aggregates statistics for a task graph.
type GraphSummary struct {
	Graph        scheduler.GraphStats
	Priority     Summary
	Deadline     Summary
	Cost         Summary
	HighPriority int // Tasks with priority above 7
}

// SummarizeGraph computes per-attribute summaries over every task in g.
func SummarizeGraph(g *scheduler.Graph) (GraphSummary, error) {
	tasks := g.Tasks()
	if len(tasks) == 0 {
		return GraphSummary{}, ErrEmpty
	}

	priorities := make([]int, len(tasks))
	deadlines := make([]int, len(tasks))
	costs := make([]int, len(tasks))
	for i, t := range tasks {
		priorities[i] = t.Priority()
		deadlines[i] = t.Deadline
		costs[i] = t.Cost
	}

	out := GraphSummary{
		Graph:        g.Stats(),
		HighPriority: CountAbove(priorities, 7),
	}
	out.Priority, _ = Summarize(priorities)
	out.Deadline, _ = Summarize(deadlines)
	out.Cost, _ = Summarize(costs)
	return out, nil
}
