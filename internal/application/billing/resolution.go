package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
)

// TargetSelector carries the raw target fields of an incoming payment
// request. The three ids are overloaded for historical reasons: PatientID may
// hold a real patient id, a dependency-discriminator prestation id, or a
// legacy prestation id, depending on which other fields are present.
type TargetSelector struct {
	FicheNavetteItemID *uuid.UUID
	ItemDependencyID   *uuid.UUID
	PatientID          *uuid.UUID
}

// IsEmpty returns true when no selector field is set
func (s TargetSelector) IsEmpty() bool {
	return s.FicheNavetteItemID == nil && s.ItemDependencyID == nil && s.PatientID == nil
}

// ResolvedTarget is the outcome of target resolution: exactly one billable
// target and the patient owning it. PatientID always comes from the resolved
// target's parent document, never from the caller.
type ResolvedTarget struct {
	Ref          billing.TargetRef `json:"ref"`
	PatientID    uuid.UUID         `json:"patient_id"`
	ParentItemID *uuid.UUID        `json:"parent_item_id,omitempty"` // set for dependency targets
	Label        string            `json:"label"`
	Balance      billing.Balance   `json:"balance"`
}

// TargetResolutionService resolves ambiguous payment request payloads to a
// single billable target without changing any monetary state
type TargetResolutionService struct {
	uow billing.UnitOfWork
}

// NewTargetResolutionService creates a new TargetResolutionService
func NewTargetResolutionService(uow billing.UnitOfWork) *TargetResolutionService {
	return &TargetResolutionService{uow: uow}
}

// Resolve maps the selector to exactly one billable target. Resolution is
// read-only and idempotent: the same payload resolves to the same target as
// long as no intervening writes occur.
func (s *TargetResolutionService) Resolve(ctx context.Context, selector TargetSelector) (*ResolvedTarget, error) {
	var resolved *ResolvedTarget
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		var err error
		resolved, err = resolveTarget(ctx, repos, selector)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// resolveTarget applies the resolution ladder, first match wins:
//
//  1. An explicit dependency id resolves to that dependency.
//  2. A fiche item id resolves to that item, unless a patient id is also
//     present that is not a real patient, in which case it is reinterpreted
//     as a dependent prestation id and may switch the target to a dependency
//     of the item.
//  3. A bare patient id that is not a real patient is treated as a legacy
//     prestation id and matched against items first, then dependencies.
//
// The resolved patient is always the one owning the target's parent document.
func resolveTarget(ctx context.Context, repos billing.Repositories, selector TargetSelector) (*ResolvedTarget, error) {
	if selector.ItemDependencyID != nil {
		return resolveDependencyByID(ctx, repos, *selector.ItemDependencyID)
	}

	if selector.FicheNavetteItemID != nil {
		item, err := repos.FicheItems().FindByID(ctx, *selector.FicheNavetteItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to load fiche item: %w", err)
		}
		if item == nil {
			return nil, billing.ErrTargetNotFound
		}

		if selector.PatientID != nil {
			isPatient, err := isRealPatient(ctx, repos, *selector.PatientID)
			if err != nil {
				return nil, err
			}
			if !isPatient {
				// Not a patient id: reinterpret as the dependent prestation
				// discriminator and look for a matching dependency of the item.
				dep, err := repos.Dependencies().FindByParentAndPrestation(ctx, item.ID, *selector.PatientID)
				if err != nil {
					return nil, fmt.Errorf("failed to look up dependency: %w", err)
				}
				if dep != nil {
					return dependencyTarget(dep, item), nil
				}
			}
		}

		return itemTarget(item), nil
	}

	if selector.PatientID != nil {
		isPatient, err := isRealPatient(ctx, repos, *selector.PatientID)
		if err != nil {
			return nil, err
		}
		if isPatient {
			// A real patient id alone names no billable line.
			return nil, billing.ErrAmbiguousTarget
		}
		return resolveLegacyPrestation(ctx, repos, *selector.PatientID)
	}

	return nil, billing.ErrAmbiguousTarget
}

func resolveDependencyByID(ctx context.Context, repos billing.Repositories, id uuid.UUID) (*ResolvedTarget, error) {
	dep, err := repos.Dependencies().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependency: %w", err)
	}
	if dep == nil {
		return nil, billing.ErrTargetNotFound
	}

	parent, err := repos.FicheItems().FindByID(ctx, dep.ParentItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent item: %w", err)
	}
	if parent == nil {
		return nil, billing.ErrOrphanedDependency
	}

	return dependencyTarget(dep, parent), nil
}

// resolveLegacyPrestation handles the oldest request shape, where the only
// selector is a prestation id sent in the patient field. Items are searched
// before dependencies.
func resolveLegacyPrestation(ctx context.Context, repos billing.Repositories, prestationID uuid.UUID) (*ResolvedTarget, error) {
	item, err := repos.FicheItems().FindByPrestationOrPackage(ctx, prestationID)
	if err != nil {
		return nil, fmt.Errorf("failed to search items by prestation: %w", err)
	}
	if item != nil {
		return itemTarget(item), nil
	}

	dep, err := repos.Dependencies().FindByDependentPrestation(ctx, prestationID)
	if err != nil {
		return nil, fmt.Errorf("failed to search dependencies by prestation: %w", err)
	}
	if dep == nil {
		return nil, billing.ErrTargetNotFound
	}

	parent, err := repos.FicheItems().FindByID(ctx, dep.ParentItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent item: %w", err)
	}
	if parent == nil {
		return nil, billing.ErrOrphanedDependency
	}

	return dependencyTarget(dep, parent), nil
}

func isRealPatient(ctx context.Context, repos billing.Repositories, id uuid.UUID) (bool, error) {
	p, err := repos.Patients().FindByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to look up patient: %w", err)
	}
	return p != nil, nil
}

func itemTarget(item *billing.FicheNavetteItem) *ResolvedTarget {
	return &ResolvedTarget{
		Ref:       item.Ref(),
		PatientID: item.PatientID,
		Label:     item.Label,
		Balance:   item.Balance,
	}
}

func dependencyTarget(dep *billing.ItemDependency, parent *billing.FicheNavetteItem) *ResolvedTarget {
	parentID := parent.ID
	return &ResolvedTarget{
		Ref:          dep.Ref(),
		PatientID:    parent.PatientID,
		ParentItemID: &parentID,
		Label:        dep.Label,
		Balance:      dep.Balance,
	}
}
