package caisse

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TransferRepository manages cash drawer transfer persistence
type TransferRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	FindByToken(ctx context.Context, token string) (*Transfer, error)
	// FindOpenForPair returns non-done, non-terminal transfers for a
	// (caisse, session) pair; used to enforce the single-active invariant
	FindOpenForPair(ctx context.Context, caisseID, sessionID uuid.UUID) ([]Transfer, error)
	// FindExpiredPending returns pending transfers whose token lapsed before
	// the cutoff; used by the expiry sweep
	FindExpiredPending(ctx context.Context, cutoff time.Time) ([]Transfer, error)
	FindByCashier(ctx context.Context, cashierID uuid.UUID) ([]Transfer, error)
	Create(ctx context.Context, t *Transfer) error
	Save(ctx context.Context, t *Transfer) error
}

// UnitOfWork runs a function atomically over a transaction-bound transfer
// repository
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(transfers TransferRepository) error) error
}
