package output

import (
	"time"

	"github.com/jacoelho/crator/internal/crates"
)

// CrateResult is the outcome of looking up one crate.
type CrateResult struct {
	Crate    string
	Info     crates.Info
	Duration time.Duration
	Error    error
}

// Summary collects the results of a run.
type Summary struct {
	Results       []CrateResult
	Succeeded     int
	Failed        int
	TotalDuration time.Duration
}

// NewSummary creates a Summary sized for n crates.
func NewSummary(n int) *Summary {
	return &Summary{
		Results: make([]CrateResult, 0, n),
	}
}

// Add records a single crate result.
func (s *Summary) Add(result CrateResult) {
	s.Results = append(s.Results, result)
	if result.Error != nil {
		s.Failed++
	} else {
		s.Succeeded++
	}
}

// SetTotalDuration sets the wall time of the whole run.
func (s *Summary) SetTotalDuration(d time.Duration) {
	s.TotalDuration = d
}

// HasErrors reports whether any lookup failed.
func (s *Summary) HasErrors() bool {
	return s.Failed > 0
}

// SuccessPercentage returns the share of successful lookups.
func (s *Summary) SuccessPercentage() float64 {
	total := s.Succeeded + s.Failed
	if total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(total) * 100
}
