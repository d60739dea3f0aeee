package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RefundAuthorizationService drives the refund pre-approval lifecycle: a
// cashier requests an authorization for a fiche item, a supervisor approves
// or rejects it, and an approved authorization is later consumed by the
// refund transaction that references it.
type RefundAuthorizationService struct {
	uow billing.UnitOfWork
}

// NewRefundAuthorizationService creates a new RefundAuthorizationService
func NewRefundAuthorizationService(uow billing.UnitOfWork) *RefundAuthorizationService {
	return &RefundAuthorizationService{uow: uow}
}

// RequestRefundAuthorizationRequest represents a request for refund pre-approval
type RequestRefundAuthorizationRequest struct {
	ItemID          uuid.UUID
	RequestedAmount decimal.Decimal
	Reason          string
}

// Request creates a pending authorization for a refund against a fiche item
func (s *RefundAuthorizationService) Request(ctx context.Context, req RequestRefundAuthorizationRequest) (*billing.RefundAuthorization, error) {
	var auth *billing.RefundAuthorization
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		item, err := repos.FicheItems().FindByID(ctx, req.ItemID)
		if err != nil {
			return fmt.Errorf("failed to load fiche item: %w", err)
		}
		if item == nil {
			return billing.ErrTargetNotFound
		}

		auth, err = billing.NewRefundAuthorization(req.ItemID, req.RequestedAmount, req.Reason)
		if err != nil {
			return err
		}
		if err := repos.RefundAuthorizations().Create(ctx, auth); err != nil {
			return fmt.Errorf("failed to create refund authorization: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// Approve authorizes a pending refund for the given amount, which may be
// lower than the requested amount
func (s *RefundAuthorizationService) Approve(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*billing.RefundAuthorization, error) {
	return s.transition(ctx, id, func(auth *billing.RefundAuthorization) error {
		return auth.Approve(amount)
	})
}

// Reject refuses a refund authorization
func (s *RefundAuthorizationService) Reject(ctx context.Context, id uuid.UUID, reason string) (*billing.RefundAuthorization, error) {
	return s.transition(ctx, id, func(auth *billing.RefundAuthorization) error {
		return auth.Reject(reason)
	})
}

// Get returns a refund authorization by ID
func (s *RefundAuthorizationService) Get(ctx context.Context, id uuid.UUID) (*billing.RefundAuthorization, error) {
	var auth *billing.RefundAuthorization
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		var err error
		auth, err = repos.RefundAuthorizations().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load refund authorization: %w", err)
		}
		if auth == nil {
			return shared.NewDomainError("AUTHORIZATION_NOT_FOUND", "Refund authorization not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// transition loads the authorization under lock, applies the state change,
// and saves it in one transaction
func (s *RefundAuthorizationService) transition(ctx context.Context, id uuid.UUID, apply func(*billing.RefundAuthorization) error) (*billing.RefundAuthorization, error) {
	var auth *billing.RefundAuthorization
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		var err error
		auth, err = repos.RefundAuthorizations().FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load refund authorization: %w", err)
		}
		if auth == nil {
			return shared.NewDomainError("AUTHORIZATION_NOT_FOUND", "Refund authorization not found")
		}
		if err := apply(auth); err != nil {
			return err
		}
		if err := repos.RefundAuthorizations().Save(ctx, auth); err != nil {
			return fmt.Errorf("failed to save refund authorization: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return auth, nil
}
