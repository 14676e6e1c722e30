package handler

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"draws-api/internal/domain"
	"draws-api/internal/middleware"
	"draws-api/internal/service"
	apperrors "draws-api/pkg/errors"

	"github.com/go-chi/chi/v5"
)

type DrawHandler struct {
	drawService      *service.DrawService
	selectionService *service.SelectionService
}

func NewDrawHandler(drawService *service.DrawService, selectionService *service.SelectionService) *DrawHandler {
	return &DrawHandler{
		drawService:      drawService,
		selectionService: selectionService,
	}
}

// CreateMajorDraw handles POST /api/v1/draws/major
func (h *DrawHandler) CreateMajorDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateMajorDrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validateCreateMajorRequest(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	draw, err := h.drawService.CreateMajorDraw(ctx, &req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, draw)
}

// CreateMiniDraw handles POST /api/v1/draws/mini
func (h *DrawHandler) CreateMiniDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateMiniDrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validateCreateMiniRequest(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	draw, err := h.drawService.CreateMiniDraw(ctx, &req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, draw)
}

// GrantEntries handles POST /api/v1/draws/{drawID}/entries
func (h *DrawHandler) GrantEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")

	var req domain.GrantEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validateGrantRequest(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	row, err := h.drawService.GrantEntries(ctx, drawID, req.ParticipantID, req.Count, req.Source)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, row)
}

// SelectWinner handles POST /api/v1/draws/{drawID}/winner
func (h *DrawHandler) SelectWinner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")

	operator := middleware.OperatorFromContext(ctx)
	if operator == nil {
		h.respondError(w, http.StatusUnauthorized, "Operator authentication required")
		return
	}

	var req domain.SelectWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validateSelectRequest(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	winner, err := h.selectionService.SelectWinnerAndReset(ctx, drawID, operator.ID, &req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, winner)
}

// UpdateDraw handles PATCH /api/v1/draws/{drawID}
func (h *DrawHandler) UpdateDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")

	var req domain.UpdateDrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draw, err := h.drawService.UpdateDraw(ctx, drawID, &req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, draw)
}

// GetParticipation handles GET /api/v1/draws/{drawID}/participants/{participantID}
func (h *DrawHandler) GetParticipation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")
	participantID := chi.URLParam(r, "participantID")

	participation, ticketRange, err := h.drawService.GetParticipation(ctx, drawID, participantID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"participation": participation,
		"ticket_range":  ticketRange,
	})
}

// ListParticipations handles GET /api/v1/draws/{drawID}/participations
func (h *DrawHandler) ListParticipations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")

	participations, err := h.drawService.ActiveParticipations(ctx, drawID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"draw_id":        drawID,
		"participations": participations,
	})
}

// MarkWinnerNotified handles POST /api/v1/winners/{winnerID}/notified
func (h *DrawHandler) MarkWinnerNotified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	winnerID := chi.URLParam(r, "winnerID")

	if err := h.drawService.MarkWinnerNotified(ctx, winnerID); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"winner_id": winnerID,
		"notified":  true,
	})
}

// GetDraw handles GET /api/v1/draws/{drawID}
func (h *DrawHandler) GetDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")

	draw, err := h.drawService.GetDraw(ctx, drawID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, draw)
}

// GetCurrentMajor handles GET /api/v1/draws/major/current
func (h *DrawHandler) GetCurrentMajor(w http.ResponseWriter, r *http.Request) {
	draw, err := h.drawService.CurrentMajor(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	if draw == nil {
		h.respondError(w, http.StatusNotFound, "No live major draw this month")
		return
	}

	h.respondJSON(w, http.StatusOK, draw)
}

// GetStatus handles GET /api/v1/draws/{drawID}/status (polling endpoint)
func (h *DrawHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")

	snapshot, err := h.drawService.GetDrawStatus(ctx, drawID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	// Generate ETag based on content
	etag := h.generateETag(snapshot)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=10")

	h.respondJSON(w, http.StatusOK, snapshot)
}

// ExportParticipants handles GET /api/v1/draws/{drawID}/participants
func (h *DrawHandler) ExportParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")

	export, err := h.drawService.ExportParticipants(ctx, drawID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"draw_id":      drawID,
		"participants": export,
	})
}

// WinnerHistory handles GET /api/v1/draws/{drawID}/winners
func (h *DrawHandler) WinnerHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")

	winners, err := h.drawService.WinnerHistory(ctx, drawID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"draw_id": drawID,
		"winners": winners,
	})
}

// CancelDraw handles POST /api/v1/draws/{drawID}/cancel
func (h *DrawHandler) CancelDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drawID := chi.URLParam(r, "drawID")

	if err := h.drawService.CancelDraw(ctx, drawID); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"draw_id": drawID,
		"status":  string(domain.StatusCancelled),
	})
}

func (h *DrawHandler) validateCreateMajorRequest(req *domain.CreateMajorDrawRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.DrawDate.IsZero() {
		return fmt.Errorf("draw_date is required")
	}
	if req.Prize.Name == "" {
		return fmt.Errorf("prize name is required")
	}
	if req.Prize.Value < 0 {
		return fmt.Errorf("prize value must not be negative")
	}
	return nil
}

func (h *DrawHandler) validateCreateMiniRequest(req *domain.CreateMiniDrawRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.MinimumEntries < 1 {
		return fmt.Errorf("minimum_entries must be at least 1")
	}
	if req.Prize.Name == "" {
		return fmt.Errorf("prize name is required")
	}
	return nil
}

func (h *DrawHandler) validateGrantRequest(req *domain.GrantEntriesRequest) error {
	if req.ParticipantID == "" {
		return fmt.Errorf("participant_id is required")
	}
	if req.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if req.Source == "" {
		return fmt.Errorf("source is required")
	}
	return nil
}

func (h *DrawHandler) validateSelectRequest(req *domain.SelectWinnerRequest) error {
	if req.ParticipantID == "" {
		return fmt.Errorf("participant_id is required")
	}
	if req.EntryNumber < 1 {
		return fmt.Errorf("entry_number must be at least 1")
	}
	switch req.SelectionMethod {
	case domain.SelectionManual, domain.SelectionCertifiedRandom:
	default:
		return fmt.Errorf("selection_method must be %q or %q",
			domain.SelectionManual, domain.SelectionCertifiedRandom)
	}
	return nil
}

// respondDomainError maps typed domain errors onto HTTP responses with
// enough detail for the caller to self-correct. Only concurrency
// conflicts advertise a retry.
func (h *DrawHandler) respondDomainError(w http.ResponseWriter, err error) {
	appErr := classifyDomainError(err)

	payload := map[string]interface{}{
		"error": appErr.Message,
		"type":  appErr.Type,
	}
	for k, v := range appErr.Details {
		payload[k] = v
	}

	h.respondJSON(w, appErr.StatusCode, payload)
}

// classifyDomainError maps typed domain errors onto the application error
// taxonomy; the response status and retry semantics follow from the class.
func classifyDomainError(err error) *apperrors.AppError {
	var (
		notFound   *domain.DrawNotFoundError
		schedule   *domain.InvalidScheduleError
		conflict   *domain.DrawConflictError
		state      *domain.InvalidDrawStateError
		accepting  *domain.DrawNotAcceptingEntriesError
		eligible   *domain.ParticipantNotEligibleError
		outOfRange *domain.EntryNumberOutOfRangeError
		wrongOwner *domain.InvalidEntryNumberError
		invariant  *domain.InvariantViolationError
	)

	switch {
	case errors.As(err, &notFound):
		return apperrors.NewNotFoundError(err.Error())
	case errors.As(err, &schedule):
		return apperrors.NewScheduleError(err.Error())
	case errors.As(err, &conflict):
		return apperrors.NewConflictError(err.Error(), map[string]interface{}{
			"conflicting_draw": map[string]interface{}{
				"id":        conflict.ConflictingID,
				"name":      conflict.ConflictingName,
				"status":    conflict.Status,
				"draw_date": conflict.DrawDate,
			},
		})
	case errors.As(err, &state), errors.As(err, &accepting), errors.As(err, &eligible):
		return apperrors.NewStateGuardError(err.Error(), nil)
	case errors.As(err, &outOfRange):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.As(err, &wrongOwner):
		return apperrors.NewValidationError(err.Error(), map[string]interface{}{
			"range_start": wrongOwner.RangeStart,
			"range_end":   wrongOwner.RangeEnd,
		})
	case errors.Is(err, domain.ErrTxConflict):
		return apperrors.NewConcurrencyError("Selection conflicted with a concurrent update, please retry", err)
	case errors.As(err, &invariant):
		return apperrors.NewInvariantError("Internal ledger inconsistency detected", err)
	default:
		return apperrors.NewInternalError("Internal server error", err)
	}
}

func (h *DrawHandler) generateETag(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf(`"%x"`, hash)
}

func (h *DrawHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *DrawHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
