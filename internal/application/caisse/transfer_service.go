package caisse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/caisse"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTokenTTL is how long a transfer token stays valid when the
// configuration does not override it
const DefaultTokenTTL = 30 * time.Minute

// TransferService manages cash drawer hand-offs between operators
type TransferService struct {
	uow      caisse.UnitOfWork
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(uow caisse.UnitOfWork, tokenTTL time.Duration, logger *zap.Logger) *TransferService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &TransferService{
		uow:      uow,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// CreateTransferRequest represents a request to hand off a cash drawer
type CreateTransferRequest struct {
	CaisseID      uuid.UUID
	SessionID     uuid.UUID
	FromCashierID uuid.UUID
	ToCashierID   uuid.UUID
	AmountSent    decimal.Decimal
	Notes         string
}

// Create opens a pending transfer. Any prior open transfer for the same
// (caisse, session) pair is marked done first, so at most one non-done
// transfer exists per pair.
func (s *TransferService) Create(ctx context.Context, req CreateTransferRequest) (*caisse.Transfer, error) {
	transfer, err := caisse.NewTransfer(
		req.CaisseID, req.SessionID,
		req.FromCashierID, req.ToCashierID,
		req.AmountSent, s.tokenTTL, req.Notes,
	)
	if err != nil {
		return nil, err
	}

	err = s.uow.Execute(ctx, func(transfers caisse.TransferRepository) error {
		open, err := transfers.FindOpenForPair(ctx, req.CaisseID, req.SessionID)
		if err != nil {
			return fmt.Errorf("failed to load open transfers: %w", err)
		}
		for i := range open {
			prior := &open[i]
			prior.MarkDone(transfer.ID)
			if err := transfers.Save(ctx, prior); err != nil {
				return fmt.Errorf("failed to close prior transfer: %w", err)
			}
			s.logger.Info("superseded open transfer",
				zap.String("transfer_id", prior.ID.String()),
				zap.String("superseded_by", transfer.ID.String()),
			)
		}

		return transfers.Create(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// Accept completes a hand-off by token. The received amount defaults to the
// sent amount when the receiver does not recount the drawer.
func (s *TransferService) Accept(ctx context.Context, token string, amountReceived *decimal.Decimal) (*caisse.Transfer, error) {
	var transfer *caisse.Transfer
	err := s.uow.Execute(ctx, func(transfers caisse.TransferRepository) error {
		var err error
		transfer, err = s.findByToken(ctx, transfers, token)
		if err != nil {
			return err
		}
		if err := transfer.Accept(token, amountReceived); err != nil {
			return err
		}
		if !transfer.MismatchAmount().IsZero() {
			s.logger.Warn("drawer count mismatch on transfer acceptance",
				zap.String("transfer_id", transfer.ID.String()),
				zap.String("amount_sent", valueobject.NewMoneyDZD(transfer.AmountSent).String()),
				zap.String("amount_received", valueobject.NewMoneyDZD(*transfer.AmountReceived).String()),
				zap.String("mismatch", valueobject.NewMoneyDZD(transfer.MismatchAmount()).String()),
			)
		}
		return transfers.Save(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// Reject refuses a hand-off by token
func (s *TransferService) Reject(ctx context.Context, token string) (*caisse.Transfer, error) {
	var transfer *caisse.Transfer
	err := s.uow.Execute(ctx, func(transfers caisse.TransferRepository) error {
		var err error
		transfer, err = s.findByToken(ctx, transfers, token)
		if err != nil {
			return err
		}
		if err := transfer.Reject(token); err != nil {
			return err
		}
		return transfers.Save(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *TransferService) findByToken(ctx context.Context, transfers caisse.TransferRepository, token string) (*caisse.Transfer, error) {
	if token == "" {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Transfer token is required")
	}
	transfer, err := transfers.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load transfer: %w", err)
	}
	if transfer == nil {
		return nil, shared.NewDomainError("TRANSFER_NOT_FOUND", "No transfer matches this token")
	}
	return transfer, nil
}

// GetTransfer returns a transfer by id
func (s *TransferService) GetTransfer(ctx context.Context, id uuid.UUID) (*caisse.Transfer, error) {
	var transfer *caisse.Transfer
	err := s.uow.Execute(ctx, func(transfers caisse.TransferRepository) error {
		var err error
		transfer, err = transfers.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load transfer: %w", err)
		}
		if transfer == nil {
			return shared.NewDomainError("TRANSFER_NOT_FOUND", "Transfer not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// ListByCashier returns the transfers a cashier sent or received
func (s *TransferService) ListByCashier(ctx context.Context, cashierID uuid.UUID) ([]caisse.Transfer, error) {
	var transfers []caisse.Transfer
	err := s.uow.Execute(ctx, func(repo caisse.TransferRepository) error {
		var err error
		transfers, err = repo.FindByCashier(ctx, cashierID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transfers, nil
}

// ExpirePending sweeps pending transfers whose token lapsed and moves them to
// expired. Returns the number of transfers expired.
func (s *TransferService) ExpirePending(ctx context.Context) (int, error) {
	expired := 0
	err := s.uow.Execute(ctx, func(transfers caisse.TransferRepository) error {
		pending, err := transfers.FindExpiredPending(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to load expired transfers: %w", err)
		}
		for i := range pending {
			t := &pending[i]
			if err := t.Expire(); err != nil {
				// Raced with a concurrent accept or reject; skip it.
				continue
			}
			if err := transfers.Save(ctx, t); err != nil {
				return fmt.Errorf("failed to save expired transfer: %w", err)
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info("expired pending transfers", zap.Int("count", expired))
	}
	return expired, nil
}
