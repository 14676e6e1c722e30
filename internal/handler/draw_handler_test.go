package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"draws-api/internal/domain"
	apperrors "draws-api/pkg/errors"
)

func TestValidateCreateMajorRequest(t *testing.T) {
	h := &DrawHandler{}

	drawDate := time.Date(2026, 3, 28, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		req     *domain.CreateMajorDrawRequest
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid request",
			req: &domain.CreateMajorDrawRequest{
				Name:     "March Grand Prize",
				DrawDate: drawDate,
				Prize:    domain.Prize{Name: "City Car", Value: 25000},
			},
			wantErr: false,
		},
		{
			name: "empty name",
			req: &domain.CreateMajorDrawRequest{
				DrawDate: drawDate,
				Prize:    domain.Prize{Name: "City Car"},
			},
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name: "missing draw date",
			req: &domain.CreateMajorDrawRequest{
				Name:  "March Grand Prize",
				Prize: domain.Prize{Name: "City Car"},
			},
			wantErr: true,
			errMsg:  "draw_date is required",
		},
		{
			name: "missing prize name",
			req: &domain.CreateMajorDrawRequest{
				Name:     "March Grand Prize",
				DrawDate: drawDate,
			},
			wantErr: true,
			errMsg:  "prize name is required",
		},
		{
			name: "negative prize value",
			req: &domain.CreateMajorDrawRequest{
				Name:     "March Grand Prize",
				DrawDate: drawDate,
				Prize:    domain.Prize{Name: "City Car", Value: -1},
			},
			wantErr: true,
			errMsg:  "prize value must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.validateCreateMajorRequest(tt.req)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error, got %q", err.Error())
			}
		})
	}
}

func TestValidateCreateMiniRequest(t *testing.T) {
	h := &DrawHandler{}

	tests := []struct {
		name    string
		req     *domain.CreateMiniDrawRequest
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid request",
			req: &domain.CreateMiniDrawRequest{
				Name:           "Weekly Mini",
				MinimumEntries: 100,
				Prize:          domain.Prize{Name: "Gift Card"},
			},
			wantErr: false,
		},
		{
			name: "empty name",
			req: &domain.CreateMiniDrawRequest{
				MinimumEntries: 100,
				Prize:          domain.Prize{Name: "Gift Card"},
			},
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name: "zero minimum entries",
			req: &domain.CreateMiniDrawRequest{
				Name:  "Weekly Mini",
				Prize: domain.Prize{Name: "Gift Card"},
			},
			wantErr: true,
			errMsg:  "minimum_entries must be at least 1",
		},
		{
			name: "missing prize name",
			req: &domain.CreateMiniDrawRequest{
				Name:           "Weekly Mini",
				MinimumEntries: 100,
			},
			wantErr: true,
			errMsg:  "prize name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.validateCreateMiniRequest(tt.req)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error, got %q", err.Error())
			}
		})
	}
}

func TestValidateGrantRequest(t *testing.T) {
	h := &DrawHandler{}

	tests := []struct {
		name    string
		req     *domain.GrantEntriesRequest
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid request",
			req: &domain.GrantEntriesRequest{
				ParticipantID: "alice",
				Count:         5,
				Source:        domain.SourcePurchase,
			},
			wantErr: false,
		},
		{
			name:    "missing participant",
			req:     &domain.GrantEntriesRequest{Count: 5, Source: domain.SourcePurchase},
			wantErr: true,
			errMsg:  "participant_id is required",
		},
		{
			name:    "zero count",
			req:     &domain.GrantEntriesRequest{ParticipantID: "alice", Source: domain.SourcePurchase},
			wantErr: true,
			errMsg:  "count must be at least 1",
		},
		{
			name:    "negative count",
			req:     &domain.GrantEntriesRequest{ParticipantID: "alice", Count: -2, Source: domain.SourcePurchase},
			wantErr: true,
			errMsg:  "count must be at least 1",
		},
		{
			name:    "missing source",
			req:     &domain.GrantEntriesRequest{ParticipantID: "alice", Count: 5},
			wantErr: true,
			errMsg:  "source is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.validateGrantRequest(tt.req)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error, got %q", err.Error())
			}
		})
	}
}

func TestValidateSelectRequest(t *testing.T) {
	h := &DrawHandler{}

	tests := []struct {
		name    string
		req     *domain.SelectWinnerRequest
		wantErr bool
	}{
		{
			name: "valid manual selection",
			req: &domain.SelectWinnerRequest{
				ParticipantID:   "alice",
				EntryNumber:     7,
				SelectionMethod: domain.SelectionManual,
			},
		},
		{
			name: "valid certified random selection",
			req: &domain.SelectWinnerRequest{
				ParticipantID:   "alice",
				EntryNumber:     7,
				SelectionMethod: domain.SelectionCertifiedRandom,
			},
		},
		{
			name:    "missing participant",
			req:     &domain.SelectWinnerRequest{EntryNumber: 7, SelectionMethod: domain.SelectionManual},
			wantErr: true,
		},
		{
			name:    "zero entry number",
			req:     &domain.SelectWinnerRequest{ParticipantID: "alice", SelectionMethod: domain.SelectionManual},
			wantErr: true,
		},
		{
			name:    "unknown method",
			req:     &domain.SelectWinnerRequest{ParticipantID: "alice", EntryNumber: 7, SelectionMethod: "coin-flip"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.validateSelectRequest(tt.req)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %q", err.Error())
			}
		})
	}
}

func TestRespondDomainError_StatusMapping(t *testing.T) {
	h := &DrawHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "draw not found",
			err:        &domain.DrawNotFoundError{DrawID: "draw-1"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid schedule",
			err:        &domain.InvalidScheduleError{Ordering: "freezeEntriesAt must be before drawDate"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "monthly conflict",
			err:        &domain.DrawConflictError{ConflictingID: "existing-1", ConflictingName: "Other"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid draw state",
			err:        &domain.InvalidDrawStateError{DrawID: "draw-1", Status: domain.StatusActive},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "not accepting entries",
			err:        &domain.DrawNotAcceptingEntriesError{DrawID: "draw-1", Status: domain.StatusFrozen},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "participant not eligible",
			err:        &domain.ParticipantNotEligibleError{DrawID: "draw-1", ParticipantID: "nobody"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "entry number out of range",
			err:        &domain.EntryNumberOutOfRangeError{EntryNumber: 99, TotalEntries: 10},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "ticket owned by someone else",
			err:        &domain.InvalidEntryNumberError{ParticipantID: "alice", EntryNumber: 9, RangeStart: 1, RangeEnd: 5},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "commit conflict",
			err:        domain.ErrTxConflict,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invariant violation",
			err:        &domain.InvariantViolationError{Invariant: "ledger-total"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.respondDomainError(rec, tt.err)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestGenerateETag_Stable(t *testing.T) {
	h := &DrawHandler{}

	snapshot := map[string]interface{}{"draw_id": "draw-1", "total_entries": 42}

	a := h.generateETag(snapshot)
	b := h.generateETag(snapshot)
	if a != b {
		t.Errorf("ETag must be stable for identical content: %s != %s", a, b)
	}

	changed := map[string]interface{}{"draw_id": "draw-1", "total_entries": 43}
	if a == h.generateETag(changed) {
		t.Error("ETag must change when content changes")
	}
}

func TestClassifyDomainError_Taxonomy(t *testing.T) {
	conflictErr := classifyDomainError(&domain.DrawConflictError{
		ConflictingID:   "existing-1",
		ConflictingName: "March Grand Prize",
	})
	if conflictErr.Type != apperrors.ErrorTypeConflict {
		t.Errorf("type = %s, want %s", conflictErr.Type, apperrors.ErrorTypeConflict)
	}
	if conflictErr.Details["conflicting_draw"] == nil {
		t.Error("conflict must carry the conflicting draw in its details")
	}
	if conflictErr.Retryable() {
		t.Error("a monthly conflict is not retryable")
	}

	claimErr := classifyDomainError(&domain.InvalidEntryNumberError{
		ParticipantID: "alice", EntryNumber: 9, RangeStart: 1, RangeEnd: 5,
	})
	if claimErr.Type != apperrors.ErrorTypeValidation {
		t.Errorf("type = %s, want %s", claimErr.Type, apperrors.ErrorTypeValidation)
	}
	if claimErr.Details["range_start"] != int64(1) || claimErr.Details["range_end"] != int64(5) {
		t.Errorf("claim rejection must carry the valid range, got %v", claimErr.Details)
	}

	txErr := classifyDomainError(domain.ErrTxConflict)
	if txErr.Type != apperrors.ErrorTypeConcurrency {
		t.Errorf("type = %s, want %s", txErr.Type, apperrors.ErrorTypeConcurrency)
	}
	if !txErr.Retryable() {
		t.Error("a commit conflict must be retryable")
	}
	if !errors.Is(txErr, domain.ErrTxConflict) {
		t.Error("the concurrency class must wrap the underlying conflict")
	}

	invariantErr := classifyDomainError(&domain.InvariantViolationError{Invariant: "ledger-total"})
	if invariantErr.Type != apperrors.ErrorTypeInvariant {
		t.Errorf("type = %s, want %s", invariantErr.Type, apperrors.ErrorTypeInvariant)
	}
	if invariantErr.Retryable() {
		t.Error("an invariant violation must never be retryable")
	}
}
