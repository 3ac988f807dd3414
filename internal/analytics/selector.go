package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Selector chooses the statistic applied to a slippage sample set: the mean,
// or a percentile between 1 and 99.
type Selector struct {
	// percentile is 0 for the average
	percentile int
}

// Average selects the arithmetic mean.
func Average() Selector {
	return Selector{}
}

// Percentile selects the nth percentile, 1 <= n <= 99.
func Percentile(n int) (Selector, error) {
	if n < 1 || n > 99 {
		return Selector{}, fmt.Errorf("percentile out of range: %d", n)
	}
	return Selector{percentile: n}, nil
}

// ParseSelector accepts "avg", "average", "p95" or a bare number.
func ParseSelector(s string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "avg", "average":
		return Average(), nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "p"))
	if err != nil {
		return Selector{}, fmt.Errorf("invalid percentile selector %q", s)
	}
	return Percentile(n)
}

// IsAverage reports whether the selector is the mean.
func (s Selector) IsAverage() bool {
	return s.percentile == 0
}

func (s Selector) String() string {
	if s.IsAverage() {
		return "avg"
	}
	return fmt.Sprintf("p%d", s.percentile)
}

// Apply computes the selected statistic. ok is false when values is empty,
// the caller's no-data signal.
func (s Selector) Apply(values []float64) (result float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	if s.IsAverage() {
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), true
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	// linear interpolation between closest ranks
	rank := float64(s.percentile) / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], true
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), true
}
