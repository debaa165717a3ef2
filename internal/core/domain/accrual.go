package domain

import "time"

// AccrualFailure records one loan that could not be accrued during a run.
type AccrualFailure struct {
	LoanID string
	Err    error
}

// AccrualReport summarizes one accrual run.
type AccrualReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Candidates int
	Accrued    int
	Failures   []AccrualFailure
}

// HasFailures reports whether any loan failed during the run.
func (r AccrualReport) HasFailures() bool {
	return len(r.Failures) > 0
}
