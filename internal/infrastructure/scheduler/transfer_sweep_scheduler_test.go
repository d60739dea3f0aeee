package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	caisseapp "github.com/hms/backend/internal/application/caisse"
	"github.com/hms/backend/internal/domain/caisse"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sweepStore is a minimal in-memory transfer store for scheduler tests
type sweepStore struct {
	mu        sync.Mutex
	transfers map[uuid.UUID]caisse.Transfer
}

func newSweepStore() *sweepStore {
	return &sweepStore{transfers: make(map[uuid.UUID]caisse.Transfer)}
}

func (s *sweepStore) put(t *caisse.Transfer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers[t.ID] = *t
}

func (s *sweepStore) get(id uuid.UUID) *caisse.Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil
	}
	return &t
}

func (s *sweepStore) FindByID(ctx context.Context, id uuid.UUID) (*caisse.Transfer, error) {
	return s.get(id), nil
}

func (s *sweepStore) FindByToken(ctx context.Context, token string) (*caisse.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transfers {
		if t.Token == token {
			copied := t
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *sweepStore) FindOpenForPair(ctx context.Context, caisseID, sessionID uuid.UUID) ([]caisse.Transfer, error) {
	return nil, nil
}

func (s *sweepStore) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]caisse.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []caisse.Transfer
	for _, t := range s.transfers {
		if t.Status == caisse.TransferStatusPending && t.TokenExpiresAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *sweepStore) FindByCashier(ctx context.Context, cashierID uuid.UUID) ([]caisse.Transfer, error) {
	return nil, nil
}

func (s *sweepStore) Create(ctx context.Context, t *caisse.Transfer) error {
	s.put(t)
	return nil
}

func (s *sweepStore) Save(ctx context.Context, t *caisse.Transfer) error {
	s.put(t)
	return nil
}

type sweepUow struct {
	store *sweepStore
}

func (u *sweepUow) Execute(ctx context.Context, fn func(transfers caisse.TransferRepository) error) error {
	return fn(u.store)
}

func TestTransferSweepScheduler(t *testing.T) {
	newService := func(store *sweepStore) *caisseapp.TransferService {
		return caisseapp.NewTransferService(&sweepUow{store: store}, time.Minute, zap.NewNop())
	}

	t.Run("expires lapsed transfers on tick", func(t *testing.T) {
		store := newSweepStore()
		lapsed, err := caisse.NewTransfer(uuid.New(), uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(100), time.Millisecond, "")
		require.NoError(t, err)
		store.put(lapsed)

		sched := NewTransferSweepScheduler(newService(store), zap.NewNop(), TransferSweepConfig{
			Enabled:      true,
			Interval:     10 * time.Millisecond,
			SweepTimeout: time.Second,
		})

		require.NoError(t, sched.Start(context.Background()))
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			require.NoError(t, sched.Stop(stopCtx))
		}()

		assert.Eventually(t, func() bool {
			got := store.get(lapsed.ID)
			return got != nil && got.Status == caisse.TransferStatusExpired
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("disabled scheduler does not sweep", func(t *testing.T) {
		store := newSweepStore()
		lapsed, err := caisse.NewTransfer(uuid.New(), uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(100), time.Millisecond, "")
		require.NoError(t, err)
		store.put(lapsed)

		sched := NewTransferSweepScheduler(newService(store), zap.NewNop(), TransferSweepConfig{
			Enabled:  false,
			Interval: 5 * time.Millisecond,
		})

		require.NoError(t, sched.Start(context.Background()))
		time.Sleep(30 * time.Millisecond)

		got := store.get(lapsed.ID)
		require.NotNil(t, got)
		assert.Equal(t, caisse.TransferStatusPending, got.Status)

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, sched.Stop(stopCtx))
	})

	t.Run("start is idempotent and stop waits for the loop", func(t *testing.T) {
		store := newSweepStore()
		sched := NewTransferSweepScheduler(newService(store), zap.NewNop(), TransferSweepConfig{
			Enabled:      true,
			Interval:     5 * time.Millisecond,
			SweepTimeout: time.Second,
		})

		ctx := context.Background()
		require.NoError(t, sched.Start(ctx))
		require.NoError(t, sched.Start(ctx))

		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		require.NoError(t, sched.Stop(stopCtx))
		require.NoError(t, sched.Stop(stopCtx))
	})
}
