package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/store"
)

// HousekeepingService prunes expired codes and tokens on an interval.
// Expiry is always enforced at read time as well; pruning just keeps
// the tables from growing without bound.
type HousekeepingService struct {
	codes    store.Codes
	tokens   store.Tokens
	logger   *slog.Logger
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewHousekeepingService(codes store.Codes, tokens store.Tokens, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	return &HousekeepingService{
		codes:    codes,
		tokens:   tokens,
		logger:   logger,
		interval: interval,
	}
}

// Start launches the pruning loop in the background.
func (s *HousekeepingService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.prune(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight prune to finish.
func (s *HousekeepingService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *HousekeepingService) prune(ctx context.Context) {
	now := time.Now().UTC()

	codes, err := s.codes.DeleteExpiredCodes(ctx, now)
	if err != nil {
		s.logger.Error("failed to prune expired codes", "err", err)
	}

	tokens, err := s.tokens.DeleteExpiredTokens(ctx, now)
	if err != nil {
		s.logger.Error("failed to prune expired tokens", "err", err)
	}

	if codes > 0 || tokens > 0 {
		s.logger.Info("housekeeping pruned expired grants",
			slog.Int64("codes", codes),
			slog.Int64("tokens", tokens),
		)
	}
}
