package driven

import (
	"time"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// Metrics records operational counters for the pipeline.
type Metrics interface {
	// ConsolidationCompleted records a successful consolidation.
	ConsolidationCompleted(strategy domain.ConsolidationStrategy, sessions int, elapsed time.Duration)

	// ConsolidationFailed records a consolidation that returned an error.
	ConsolidationFailed(strategy domain.ConsolidationStrategy)

	// CacheLookup records a cache read against store ("consolidated" or "export").
	CacheLookup(store string, hit bool)

	// ExportCompleted records an export attempt and its outcome.
	ExportCompleted(format domain.ExportFormat, outcome string)

	// ReviewRouted records how a review submission was routed.
	ReviewRouted(action string)
}
