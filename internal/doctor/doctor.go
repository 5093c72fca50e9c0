// Package doctor provides health checks for the kiln configuration: the
// config home, the global store, the active pointers, and any legacy
// repositories awaiting migration.
package doctor

import (
	"github.com/kiln-ml/kiln/internal/config"
	"github.com/kiln-ml/kiln/internal/profile"
)

// Status is the outcome of a single check.
type Status string

const (
	// StatusOK means the check passed.
	StatusOK Status = "ok"

	// StatusWarning means something is off but kiln still works.
	StatusWarning Status = "warning"

	// StatusError means the configuration is broken.
	StatusError Status = "error"
)

// CheckContext carries everything a check may need.
type CheckContext struct {
	// ConfigHome is the kiln config home directory.
	ConfigHome string

	// Settings are the loaded global settings.
	Settings *config.Settings

	// Profiles is the global profile registry.
	Profiles *profile.Registry

	// WorkDir is the invocation working directory.
	WorkDir string
}

// CheckResult is the outcome of running one check.
type CheckResult struct {
	Name    string
	Status  Status
	Message string
	FixHint string
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Description() string
	Run(ctx *CheckContext) *CheckResult
}

// BaseCheck supplies Name and Description for concrete checks.
type BaseCheck struct {
	CheckName        string
	CheckDescription string
}

// Name returns the check's identifier.
func (c *BaseCheck) Name() string { return c.CheckName }

// Description returns what the check verifies.
func (c *BaseCheck) Description() string { return c.CheckDescription }

// DefaultChecks returns the standard check set in run order.
func DefaultChecks() []Check {
	return []Check{
		NewGlobalStoreCheck(),
		NewActivePointerCheck(),
		NewLegacyRepositoryCheck(),
	}
}

// RunAll runs each check and collects the results.
func RunAll(ctx *CheckContext, checks []Check) []*CheckResult {
	results := make([]*CheckResult, 0, len(checks))
	for _, c := range checks {
		results = append(results, c.Run(ctx))
	}
	return results
}
