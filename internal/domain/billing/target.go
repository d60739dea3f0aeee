package billing

import (
	"fmt"

	"github.com/google/uuid"
)

// TargetKind discriminates the two kinds of billable targets
type TargetKind string

const (
	TargetKindFicheItem  TargetKind = "FICHE_ITEM"
	TargetKindDependency TargetKind = "DEPENDENCY"
)

// IsValid checks if the target kind is valid
func (k TargetKind) IsValid() bool {
	return k == TargetKindFicheItem || k == TargetKindDependency
}

// String returns the string representation of TargetKind
func (k TargetKind) String() string {
	return string(k)
}

// TargetRef identifies exactly one billable target: either a fiche navette
// item or one of its dependencies. It is resolved once by the target
// resolution service and passed as an opaque value through the payment
// pipeline.
type TargetRef struct {
	Kind TargetKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// FicheItemRef creates a reference to a fiche navette item
func FicheItemRef(id uuid.UUID) TargetRef {
	return TargetRef{Kind: TargetKindFicheItem, ID: id}
}

// DependencyRef creates a reference to an item dependency
func DependencyRef(id uuid.UUID) TargetRef {
	return TargetRef{Kind: TargetKindDependency, ID: id}
}

// IsZero returns true if the reference is empty
func (r TargetRef) IsZero() bool {
	return r.Kind == "" && r.ID == uuid.Nil
}

// IsFicheItem returns true if the reference points at a fiche item
func (r TargetRef) IsFicheItem() bool {
	return r.Kind == TargetKindFicheItem
}

// IsDependency returns true if the reference points at a dependency
func (r TargetRef) IsDependency() bool {
	return r.Kind == TargetKindDependency
}

// Equals returns true if both references identify the same target
func (r TargetRef) Equals(other TargetRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}

// String returns a human-readable representation of the reference
func (r TargetRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}
