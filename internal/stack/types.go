// Package stack provides the per-profile registry of named stacks. A stack
// maps component categories to component references; the set of categories
// is open, so unknown categories round-trip untouched.
package stack

import (
	"time"
)

// Category tags one kind of infrastructure component inside a stack. The
// well-known categories below are not exhaustive; any non-empty string is a
// valid category.
type Category string

const (
	// CategoryArtifactStore holds pipeline artifacts.
	CategoryArtifactStore Category = "artifact_store"

	// CategoryOrchestrator runs pipeline steps.
	CategoryOrchestrator Category = "orchestrator"

	// CategoryMetadataStore tracks runs and lineage.
	CategoryMetadataStore Category = "metadata_store"

	// CategoryContainerRegistry hosts step images. Optional in most stacks.
	CategoryContainerRegistry Category = "container_registry"
)

// Stack is a named set of component references, one per category.
type Stack struct {
	// Name is the unique key for this stack within its profile.
	Name string `json:"name"`

	// Components maps category to a component reference name. Not every
	// category is required.
	Components map[Category]string `json:"components"`

	// Created is when the stack was registered.
	Created time.Time `json:"created"`
}
