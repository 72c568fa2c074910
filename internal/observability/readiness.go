package observability

import (
	"context"
	"fmt"
	"maps"
	"slices"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// ReadinessChecks combines several checkers; the service is ready only when
// every check passes.
type ReadinessChecks map[string]sharedobs.ReadinessChecker

// CheckReadiness runs each check in name order and reports the first failure.
func (c ReadinessChecks) CheckReadiness(ctx context.Context) error {
	for _, name := range slices.Sorted(maps.Keys(c)) {
		check := c[name]
		if check == nil {
			continue
		}
		if err := check.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
