package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/hms/backend/internal/application/caisse"
	"go.uber.org/zap"
)

// TransferSweepScheduler periodically expires pending cash drawer transfers
// whose hand-off token has lapsed
type TransferSweepScheduler struct {
	service   *caisse.TransferService
	logger    *zap.Logger
	config    TransferSweepConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// TransferSweepConfig holds configuration for the transfer expiry sweep
type TransferSweepConfig struct {
	// Enabled determines if the sweep is active
	Enabled bool

	// Interval is how often the sweep runs
	Interval time.Duration

	// SweepTimeout is the maximum time for a single sweep run
	SweepTimeout time.Duration
}

// DefaultTransferSweepConfig returns default configuration
func DefaultTransferSweepConfig() TransferSweepConfig {
	return TransferSweepConfig{
		Enabled:      true,
		Interval:     5 * time.Minute,
		SweepTimeout: time.Minute,
	}
}

// NewTransferSweepScheduler creates a new transfer sweep scheduler
func NewTransferSweepScheduler(
	service *caisse.TransferService,
	logger *zap.Logger,
	config TransferSweepConfig,
) *TransferSweepScheduler {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = time.Minute
	}
	return &TransferSweepScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the sweep loop
func (s *TransferSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Transfer sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Transfer sweep scheduler started",
		zap.Duration("interval", s.config.Interval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *TransferSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Transfer sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Transfer sweep scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *TransferSweepScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Transfer sweep loop stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *TransferSweepScheduler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	expired, err := s.service.ExpirePending(sweepCtx)
	if err != nil {
		s.logger.Error("Transfer expiry sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		s.logger.Info("Transfer expiry sweep completed", zap.Int("expired", expired))
	}
}
