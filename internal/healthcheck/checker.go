package healthcheck

import "context"

// Check statuses, ordered from best to worst by the aggregator.
const (
	StatusOK      = "ok"
	StatusWarn    = "warn"
	StatusUnknown = "unknown"
	StatusError   = "error"
)

// CheckResult is one runtime check item produced by a checker.
type CheckResult struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Subtitle string         `json:"subtitle,omitempty"`
	Status   string         `json:"status"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Checker evaluates one or more runtime checks of the service.
type Checker interface {
	ListChecks(ctx context.Context) []CheckResult
}
