package doctor

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/config"
	"github.com/kiln-ml/kiln/internal/legacy"
	"github.com/kiln-ml/kiln/internal/profile"
	"github.com/kiln-ml/kiln/internal/stack"
	"github.com/kiln-ml/kiln/internal/store"
)

// GlobalStoreCheck verifies the global registry store is reachable and
// lockable.
type GlobalStoreCheck struct {
	BaseCheck
}

// NewGlobalStoreCheck creates the global store check.
func NewGlobalStoreCheck() *GlobalStoreCheck {
	return &GlobalStoreCheck{
		BaseCheck: BaseCheck{
			CheckName:        "global-store",
			CheckDescription: "Verify the global store is reachable and lockable",
		},
	}
}

// Run opens the store root and takes the cross-process lock once.
func (c *GlobalStoreCheck) Run(ctx *CheckContext) *CheckResult {
	root := config.StoreRoot(ctx.ConfigHome, ctx.Settings)
	s, err := store.NewFileStore(root)
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: fmt.Sprintf("Global store at %s is not reachable: %v", root, err),
			FixHint: "Check permissions on the kiln config home",
		}
	}

	unlock, err := s.Lock()
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: fmt.Sprintf("Cannot lock the global store: %v", err),
			FixHint: "Another process may hold the lock, or the store is read-only",
		}
	}
	unlock()

	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("Global store at %s is healthy", root),
	}
}

// ActivePointerCheck verifies the global active pointer and each profile's
// active-stack pointer reference records that exist.
type ActivePointerCheck struct {
	BaseCheck
}

// NewActivePointerCheck creates the active pointer check.
func NewActivePointerCheck() *ActivePointerCheck {
	return &ActivePointerCheck{
		BaseCheck: BaseCheck{
			CheckName:        "active-pointers",
			CheckDescription: "Verify active profile and stack pointers are valid",
		},
	}
}

// Run walks the registry checking every pointer.
func (c *ActivePointerCheck) Run(ctx *CheckContext) *CheckResult {
	active, err := ctx.Profiles.ActiveName()
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: fmt.Sprintf("Cannot read the active profile pointer: %v", err),
		}
	}

	profiles, err := ctx.Profiles.List()
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: fmt.Sprintf("Cannot list profiles: %v", err),
		}
	}

	for _, p := range profiles {
		if p.StoreType != profile.StoreTypeLocal {
			continue
		}
		st, err := p.OpenStore()
		if err != nil {
			return &CheckResult{
				Name:    c.Name(),
				Status:  StatusWarning,
				Message: fmt.Sprintf("Profile %q store is not reachable: %v", p.Name, err),
			}
		}
		if _, err := stack.NewRegistry(st).ActiveName(); err != nil {
			return &CheckResult{
				Name:    c.Name(),
				Status:  StatusWarning,
				Message: fmt.Sprintf("Profile %q active-stack pointer is unreadable: %v", p.Name, err),
			}
		}
	}

	msg := "No active profile set (the default profile will be used)"
	if active != "" {
		msg = fmt.Sprintf("Active profile is %q", active)
	}
	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: msg,
	}
}

// LegacyRepositoryCheck reports a legacy repository above the working
// directory that has not been migrated yet.
type LegacyRepositoryCheck struct {
	BaseCheck
}

// NewLegacyRepositoryCheck creates the legacy repository check.
func NewLegacyRepositoryCheck() *LegacyRepositoryCheck {
	return &LegacyRepositoryCheck{
		BaseCheck: BaseCheck{
			CheckName:        "legacy-repository",
			CheckDescription: "Detect unmigrated legacy repository configuration",
		},
	}
}

// Run looks upward from the working directory for a legacy marker.
func (c *LegacyRepositoryCheck) Run(ctx *CheckContext) *CheckResult {
	root, ok := legacy.FindRoot(ctx.WorkDir)
	if !ok {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusOK,
			Message: "No legacy repository configuration found",
		}
	}

	repo, err := legacy.Detect(root)
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: fmt.Sprintf("Legacy configuration at %s is unreadable: %v", root, err),
		}
	}
	if repo == nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusOK,
			Message: "No legacy repository configuration found",
		}
	}
	if repo.Migrated() {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusOK,
			Message: fmt.Sprintf("Legacy repository at %s already migrated to profile %q", root, repo.Migration.Profile),
		}
	}

	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusWarning,
		Message: fmt.Sprintf("Legacy repository at %s has not been migrated", root),
		FixHint: "Run any kiln command from that directory to migrate it",
	}
}
