package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"draws-api/internal/domain"
	"draws-api/internal/repository"
	"draws-api/pkg/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// selectionRetries bounds retries of commit-time conflicts. Guard failures
// are never retried; they require a corrected request.
const selectionRetries = 3

// SelectionService runs the winner-selection-and-reset operation and
// publishes the WinnerSelected event once it commits.
type SelectionService struct {
	draws  repository.DrawRepository
	redis  *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewSelectionService(draws repository.DrawRepository, redisClient *redis.Client, logger *zap.Logger) *SelectionService {
	return &SelectionService{
		draws:  draws,
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}
}

// SelectWinnerAndReset validates the claimed ticket, persists the winner
// record and rolls the draw into its next cycle as one atomic unit. The
// guard chain runs inside the repository transaction against the locked
// snapshot, so a grant racing this call lands strictly before the snapshot
// or after the reset, never in between.
func (s *SelectionService) SelectWinnerAndReset(ctx context.Context, drawID, operatorID string, req *domain.SelectWinnerRequest) (*domain.Winner, error) {
	if err := s.validate(drawID, operatorID, req); err != nil {
		return nil, err
	}

	// Idempotency lock: a duplicate submission inside the window is
	// rejected instead of drawing a second winner.
	var lockKey string
	if s.redis != nil {
		lockKey = s.redis.KeyBuilder.KeySelectionLock(drawID)
		acquired, err := s.redis.SetNX(ctx, lockKey, operatorID, redis.TTLSelectionLock)
		if err == nil && !acquired {
			return nil, &domain.InvalidDrawStateError{
				DrawID: drawID,
				Status: domain.StatusFrozen,
				Reason: "a winner selection is already in progress for this draw",
			}
		}
	}

	winner, err := s.selectWithRetry(ctx, drawID, operatorID, req)
	if err != nil {
		if lockKey != "" {
			// Release so a corrected request is not blocked for the TTL
			_ = s.redis.Delete(ctx, lockKey)
		}
		return nil, err
	}

	s.afterCommit(ctx, winner)
	return winner, nil
}

func (s *SelectionService) selectWithRetry(ctx context.Context, drawID, operatorID string, req *domain.SelectWinnerRequest) (*domain.Winner, error) {
	var lastErr error
	for attempt := 1; attempt <= selectionRetries; attempt++ {
		winner, err := s.draws.SelectWinnerAndReset(ctx, drawID, func(d *domain.Draw) (*domain.Winner, error) {
			return s.buildWinner(d, operatorID, req)
		})
		if err == nil {
			return winner, nil
		}
		if !errors.Is(err, domain.ErrTxConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("selection commit conflict, retrying",
			zap.String("draw_id", drawID),
			zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("winner selection failed after %d attempts: %w", selectionRetries, lastErr)
}

// buildWinner runs the guard chain against the locked snapshot and
// produces the immutable winner record. Cycle is the pre-increment value:
// the winner belongs to the cycle that just closed.
func (s *SelectionService) buildWinner(d *domain.Draw, operatorID string, req *domain.SelectWinnerRequest) (*domain.Winner, error) {
	now := s.now()

	if err := d.ReadyForSelection(now); err != nil {
		return nil, err
	}
	if err := domain.ValidateClaim(d, req.ParticipantID, req.EntryNumber); err != nil {
		return nil, err
	}

	return &domain.Winner{
		ID:              uuid.New().String(),
		DrawID:          d.ID,
		DrawType:        d.Type,
		ParticipantID:   req.ParticipantID,
		EntryNumber:     req.EntryNumber,
		Cycle:           d.Cycle,
		SelectedAt:      now,
		SelectionMethod: req.SelectionMethod,
		SelectedBy:      operatorID,
		PrizeSnapshot:   d.Prize.Snapshot(),
		ImageURL:        req.ImageURL,
	}, nil
}

// afterCommit invalidates caches and publishes the WinnerSelected event.
// Both are best-effort: the selection is already durable.
func (s *SelectionService) afterCommit(ctx context.Context, winner *domain.Winner) {
	s.logger.Info("winner selected",
		zap.String("draw_id", winner.DrawID),
		zap.String("winner_id", winner.ID),
		zap.Int64("entry_number", winner.EntryNumber),
		zap.Int("cycle", winner.Cycle),
		zap.String("selected_by", winner.SelectedBy))

	if s.redis == nil {
		return
	}

	_ = s.redis.Delete(ctx,
		s.redis.KeyBuilder.KeyDrawStatus(winner.DrawID),
		s.redis.KeyBuilder.KeyDrawParticipants(winner.DrawID),
		s.redis.KeyBuilder.KeyCurrentMajor(),
		s.redis.KeyBuilder.KeySelectionLock(winner.DrawID))

	event := domain.WinnerSelectedEvent{
		DrawID:        winner.DrawID,
		WinnerID:      winner.ID,
		ParticipantID: winner.ParticipantID,
		Cycle:         winner.Cycle,
		OccurredAt:    winner.SelectedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal winner event", zap.Error(err))
		return
	}
	if err := s.redis.Publish(ctx, redis.ChannelWinnerSelected, payload); err != nil {
		s.logger.Error("failed to publish winner event",
			zap.String("winner_id", winner.ID),
			zap.Error(err))
	}
}

func (s *SelectionService) validate(drawID, operatorID string, req *domain.SelectWinnerRequest) error {
	if drawID == "" {
		return fmt.Errorf("draw id is required")
	}
	if req.ParticipantID == "" {
		return fmt.Errorf("participant id is required")
	}
	if req.EntryNumber < 1 {
		return fmt.Errorf("entry number must be at least 1, got %d", req.EntryNumber)
	}
	if operatorID == "" {
		return fmt.Errorf("operator id is required")
	}
	switch req.SelectionMethod {
	case domain.SelectionManual, domain.SelectionCertifiedRandom:
	default:
		return fmt.Errorf("unknown selection method %q", req.SelectionMethod)
	}
	return nil
}
