// Package profile provides the global registry of named configuration
// profiles. Each profile owns a store location holding its stacks and an
// active-stack pointer; the registry itself persists in the global store.
package profile

import (
	"time"
)

// DefaultName is the profile used when no active profile is set.
const DefaultName = "default"

// SourceManual indicates the profile was created by a user command.
const SourceManual = "manual"

// SourceMigration indicates the profile was created by legacy migration.
const SourceMigration = "migration"

// StoreType enumerates where a profile's stacks are persisted.
type StoreType string

const (
	// StoreTypeLocal stores the profile's stacks in a local directory.
	StoreTypeLocal StoreType = "local"

	// StoreTypeRemote stores the profile's stacks in a remote service.
	// Remote access is an external interface; a remote profile's store
	// cannot be opened by this process.
	StoreTypeRemote StoreType = "remote"
)

// Profile is a globally registered, uniquely named configuration scope.
type Profile struct {
	// ID is a stable unique identifier, assigned at creation.
	ID string `json:"id"`

	// Name is the unique registry key for this profile.
	Name string `json:"name"`

	// StoreType says whether the profile's stacks live locally or remotely.
	StoreType StoreType `json:"store_type"`

	// StoreURL locates the profile's stack store. For local profiles this
	// is a directory path.
	StoreURL string `json:"store_url"`

	// ActiveStack is the name of the profile's active stack, or empty.
	ActiveStack string `json:"active_stack,omitempty"`

	// ActiveUser is the user name recorded for this profile, or empty.
	ActiveUser string `json:"active_user,omitempty"`

	// Source indicates how the profile was created.
	Source string `json:"source"`

	// Created is when the profile was registered.
	Created time.Time `json:"created"`
}
