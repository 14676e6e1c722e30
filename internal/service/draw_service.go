package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"draws-api/internal/domain"
	"draws-api/internal/repository"
	"draws-api/internal/schedule"
	"draws-api/pkg/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DrawService struct {
	draws          repository.DrawRepository
	winners        repository.WinnerRepository
	participations repository.ParticipationRepository
	redis          *redis.Client
	cacheService   *CacheService
	logger         *zap.Logger
	now            func() time.Time
}

func NewDrawService(draws repository.DrawRepository, winners repository.WinnerRepository, participations repository.ParticipationRepository, redisClient *redis.Client, logger *zap.Logger) *DrawService {
	return &DrawService{
		draws:          draws,
		winners:        winners,
		participations: participations,
		redis:          redisClient,
		cacheService:   NewCacheService(redisClient, logger),
		logger:         logger,
		now:            time.Now,
	}
}

// CreateMajorDraw validates the schedule, enforces the one-live-major-per-
// civil-month rule and persists the new draw. Conflicts name the draw that
// already occupies the month so the operator can resolve it.
func (s *DrawService) CreateMajorDraw(ctx context.Context, req *domain.CreateMajorDrawRequest) (*domain.Draw, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("draw name is required")
	}

	freeze := schedule.FreezeTime(req.DrawDate)
	if req.FreezeEntriesAt != nil {
		freeze = *req.FreezeEntriesAt
	}
	activation := schedule.ActivationDate(req.DrawDate)
	if req.ActivationDate != nil {
		activation = *req.ActivationDate
	}

	if err := schedule.Validate(req.StartDate, freeze, req.DrawDate, activation); err != nil {
		return nil, err
	}

	monthStart, monthNext := schedule.MonthBounds(req.DrawDate)
	existing, err := s.draws.FindMajorInMonth(ctx, monthStart, monthNext)
	if err != nil {
		return nil, fmt.Errorf("failed to check monthly conflict: %w", err)
	}
	if existing != nil {
		return nil, &domain.DrawConflictError{
			ConflictingID:   existing.ID,
			ConflictingName: existing.Name,
			Status:          existing.DerivedStatus(s.now()),
			DrawDate:        *existing.DrawDate,
		}
	}

	status := domain.StatusActive
	if req.StartDate != nil && s.now().Before(*req.StartDate) {
		status = domain.StatusQueued
	}

	draw := &domain.Draw{
		ID:              uuid.New().String(),
		Type:            domain.DrawTypeMajor,
		Name:            req.Name,
		Description:     req.Description,
		Status:          status,
		Prize:           req.Prize,
		Cycle:           1,
		DrawDate:        &req.DrawDate,
		ActivationDate:  &activation,
		FreezeEntriesAt: &freeze,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MonthBucket:     &monthStart,
	}

	if err := s.draws.Create(ctx, draw); err != nil {
		// The pre-insert check races against concurrent creators; the
		// unique month index is the authority. Map its rejection onto the
		// same conflict error, naming whichever draw won the month.
		if errors.Is(err, domain.ErrMonthOccupied) {
			occupying, lookupErr := s.draws.FindMajorInMonth(ctx, monthStart, monthNext)
			if lookupErr == nil && occupying != nil && occupying.DrawDate != nil {
				return nil, &domain.DrawConflictError{
					ConflictingID:   occupying.ID,
					ConflictingName: occupying.Name,
					Status:          occupying.DerivedStatus(s.now()),
					DrawDate:        *occupying.DrawDate,
				}
			}
			return nil, &domain.DrawConflictError{DrawDate: req.DrawDate}
		}
		return nil, err
	}

	if s.redis != nil {
		s.cacheService.Invalidate(ctx, s.redis.KeyBuilder.KeyCurrentMajor())
	}

	s.logger.Info("major draw created",
		zap.String("draw_id", draw.ID),
		zap.String("name", draw.Name),
		zap.Time("draw_date", req.DrawDate),
		zap.Time("freeze_entries_at", freeze))

	return draw, nil
}

// CreateMiniDraw persists a new unbounded-cycle mini draw
func (s *DrawService) CreateMiniDraw(ctx context.Context, req *domain.CreateMiniDrawRequest) (*domain.Draw, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("draw name is required")
	}
	if req.MinimumEntries < 1 {
		return nil, fmt.Errorf("minimum entries must be at least 1, got %d", req.MinimumEntries)
	}

	draw := &domain.Draw{
		ID:             uuid.New().String(),
		Type:           domain.DrawTypeMini,
		Name:           req.Name,
		Description:    req.Description,
		Status:         domain.StatusActive,
		Prize:          req.Prize,
		Cycle:          1,
		MinimumEntries: req.MinimumEntries,
	}

	if err := s.draws.Create(ctx, draw); err != nil {
		return nil, err
	}

	s.logger.Info("mini draw created",
		zap.String("draw_id", draw.ID),
		zap.String("name", draw.Name),
		zap.Int64("minimum_entries", req.MinimumEntries))

	return draw, nil
}

// GrantEntries applies an entry grant from purchase or benefit processing.
// The repository performs the increment atomically; this layer owns
// logging and cache invalidation.
func (s *DrawService) GrantEntries(ctx context.Context, drawID, participantID string, count int64, source domain.EntrySource) (*domain.EntryAggregate, error) {
	if participantID == "" {
		return nil, fmt.Errorf("participant id is required")
	}
	if count <= 0 {
		return nil, fmt.Errorf("grant count must be positive, got %d", count)
	}

	row, err := s.draws.GrantEntries(ctx, drawID, participantID, count, source)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		s.cacheService.Invalidate(ctx,
			s.redis.KeyBuilder.KeyDrawStatus(drawID),
			s.redis.KeyBuilder.KeyDrawParticipants(drawID))
	}

	s.logger.Info("entries granted",
		zap.String("draw_id", drawID),
		zap.Int64("count", count),
		zap.String("source", string(source.Normalize())),
		zap.Int64("participant_total", row.TotalEntries))

	return row, nil
}

// GetDrawStatus returns the draw's derived status snapshot, served from a
// short-TTL cache when available.
func (s *DrawService) GetDrawStatus(ctx context.Context, drawID string) (*domain.StatusSnapshot, error) {
	var cacheKey string
	if s.redis != nil {
		cacheKey = s.redis.KeyBuilder.KeyDrawStatus(drawID)
		var cached domain.StatusSnapshot
		if s.cacheService.GetJSON(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	draw, err := s.draws.GetByID(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if draw == nil {
		return nil, &domain.DrawNotFoundError{DrawID: drawID}
	}

	snapshot := draw.StatusSnapshot(s.now())

	if cacheKey != "" {
		s.cacheService.SetJSON(ctx, cacheKey, snapshot, redis.TTLDrawStatus)
	}

	return &snapshot, nil
}

// CurrentMajor returns this civil month's live major draw, or nil when the
// month is free. Served from cache; creation, cancellation and selection
// invalidate the key.
func (s *DrawService) CurrentMajor(ctx context.Context) (*domain.Draw, error) {
	var cacheKey string
	if s.redis != nil {
		cacheKey = s.redis.KeyBuilder.KeyCurrentMajor()
		var cached domain.Draw
		if s.cacheService.GetJSON(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	monthStart, monthNext := schedule.MonthBounds(s.now())
	draw, err := s.draws.FindMajorInMonth(ctx, monthStart, monthNext)
	if err != nil {
		return nil, err
	}
	if draw == nil {
		return nil, nil
	}

	if cacheKey != "" {
		s.cacheService.SetJSON(ctx, cacheKey, draw, redis.TTLCurrentMajor)
	}

	return draw, nil
}

// GetDraw loads the full aggregate including its ledger
func (s *DrawService) GetDraw(ctx context.Context, drawID string) (*domain.Draw, error) {
	draw, err := s.draws.GetByID(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if draw == nil {
		return nil, &domain.DrawNotFoundError{DrawID: drawID}
	}
	return draw, nil
}

// ExportParticipants returns the reporting export, sorted by total entries
// descending, cached briefly since reporting tolerates staleness.
func (s *DrawService) ExportParticipants(ctx context.Context, drawID string) ([]domain.ParticipantExport, error) {
	var cacheKey string
	if s.redis != nil {
		cacheKey = s.redis.KeyBuilder.KeyDrawParticipants(drawID)
		var cached []domain.ParticipantExport
		if s.cacheService.GetJSON(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	draw, err := s.draws.GetByID(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if draw == nil {
		return nil, &domain.DrawNotFoundError{DrawID: drawID}
	}

	export, err := s.draws.ExportParticipants(ctx, drawID)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		s.cacheService.SetJSON(ctx, cacheKey, export, redis.TTLDrawParticipants)
	}

	return export, nil
}

// UpdateDraw applies a partial configuration edit. The repository rejects
// prize edits once the configuration is locked.
func (s *DrawService) UpdateDraw(ctx context.Context, drawID string, req *domain.UpdateDrawRequest) (*domain.Draw, error) {
	if req.Name == nil && req.Description == nil && req.Prize == nil {
		return nil, fmt.Errorf("no changes supplied")
	}
	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("draw name cannot be empty")
	}
	if req.Prize != nil && req.Prize.Name == "" {
		return nil, fmt.Errorf("prize name cannot be empty")
	}

	changes := repository.DrawConfigChanges{
		Name:        req.Name,
		Description: req.Description,
		Prize:       req.Prize,
	}
	if err := s.draws.UpdateConfig(ctx, drawID, changes); err != nil {
		return nil, err
	}

	if s.redis != nil {
		s.cacheService.Invalidate(ctx, s.redis.KeyBuilder.KeyDrawStatus(drawID))
	}

	s.logger.Info("draw configuration updated", zap.String("draw_id", drawID))
	return s.GetDraw(ctx, drawID)
}

// GetParticipation returns a participant's cached per-draw state together
// with their current ticket range.
func (s *DrawService) GetParticipation(ctx context.Context, drawID, participantID string) (*repository.Participation, *domain.TicketRange, error) {
	draw, err := s.draws.GetByID(ctx, drawID)
	if err != nil {
		return nil, nil, err
	}
	if draw == nil {
		return nil, nil, &domain.DrawNotFoundError{DrawID: drawID}
	}

	participation, err := s.participations.Get(ctx, drawID, participantID)
	if err != nil {
		return nil, nil, err
	}
	if participation == nil {
		return nil, nil, &domain.ParticipantNotEligibleError{DrawID: drawID, ParticipantID: participantID}
	}

	if r, ok := domain.RangeForParticipant(draw.Entries, participantID); ok {
		return participation, &r, nil
	}
	return participation, nil, nil
}

// ActiveParticipations lists the draw's active participation rows
func (s *DrawService) ActiveParticipations(ctx context.Context, drawID string) ([]repository.Participation, error) {
	draw, err := s.draws.GetByID(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if draw == nil {
		return nil, &domain.DrawNotFoundError{DrawID: drawID}
	}
	return s.participations.ListActiveByDraw(ctx, drawID)
}

// MarkWinnerNotified records that the notification collaborator delivered
// the winner's notification.
func (s *DrawService) MarkWinnerNotified(ctx context.Context, winnerID string) error {
	if err := s.winners.MarkNotified(ctx, winnerID); err != nil {
		return err
	}
	s.logger.Info("winner marked notified", zap.String("winner_id", winnerID))
	return nil
}

// WinnerHistory returns a draw's winner records, oldest first
func (s *DrawService) WinnerHistory(ctx context.Context, drawID string) ([]domain.Winner, error) {
	draw, err := s.draws.GetByID(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if draw == nil {
		return nil, &domain.DrawNotFoundError{DrawID: drawID}
	}
	return s.winners.ListByDraw(ctx, drawID)
}

// CancelDraw moves a draw to its terminal cancelled state
func (s *DrawService) CancelDraw(ctx context.Context, drawID string) error {
	draw, err := s.draws.GetByID(ctx, drawID)
	if err != nil {
		return err
	}
	if draw == nil {
		return &domain.DrawNotFoundError{DrawID: drawID}
	}
	if draw.Status.IsTerminal() {
		return &domain.InvalidDrawStateError{
			DrawID: drawID,
			Status: draw.Status,
			Reason: "draw is already in a terminal state",
		}
	}

	cancelled := domain.StatusCancelled
	if err := s.draws.UpdateConfig(ctx, drawID, repository.DrawConfigChanges{Status: &cancelled}); err != nil {
		return err
	}

	if s.redis != nil {
		s.cacheService.Invalidate(ctx,
			s.redis.KeyBuilder.KeyDrawStatus(drawID),
			s.redis.KeyBuilder.KeyCurrentMajor())
	}

	s.logger.Info("draw cancelled", zap.String("draw_id", drawID))
	return nil
}
