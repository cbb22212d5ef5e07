package healthcheck

import "context"

// Report is the combined result of every registered checker.
type Report struct {
	Status string        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

// Aggregator runs several checkers and folds their results into one Report.
type Aggregator struct {
	checkers []Checker
}

// NewAggregator creates an aggregator. Nil checkers are skipped.
func NewAggregator(checkers ...Checker) *Aggregator {
	items := make([]Checker, 0, len(checkers))
	for _, c := range checkers {
		if c != nil {
			items = append(items, c)
		}
	}
	return &Aggregator{checkers: items}
}

// Run evaluates all checkers. The overall status is the worst item status.
func (a *Aggregator) Run(ctx context.Context) Report {
	report := Report{Status: StatusOK, Checks: []CheckResult{}}
	if a == nil {
		return report
	}
	for _, checker := range a.checkers {
		for _, item := range checker.ListChecks(ctx) {
			if item.Status == "" {
				item.Status = StatusUnknown
			}
			report.Checks = append(report.Checks, item)
			if severity(item.Status) > severity(report.Status) {
				report.Status = item.Status
			}
		}
	}
	return report
}

// Healthy reports whether no check failed.
func (r Report) Healthy() bool {
	return r.Status != StatusError
}

func severity(status string) int {
	switch status {
	case StatusOK:
		return 0
	case StatusWarn:
		return 1
	case StatusUnknown:
		return 2
	case StatusError:
		return 3
	default:
		return 2
	}
}
