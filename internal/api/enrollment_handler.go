package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/api/shared"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/enrollment"
)

// EnrollmentLedger is the subset of enrollment.Ledger exposed over HTTP.
// CompleteLesson has no route.
type EnrollmentLedger interface {
	JoinCourse(ctx context.Context, viewer domain.Identity, courseID uuid.UUID) (*enrollment.CourseTransition, error)
	LeaveCourse(ctx context.Context, userID, courseID uuid.UUID) (*enrollment.CourseTransition, error)
	JoinLesson(ctx context.Context, viewer domain.Identity, lessonID uuid.UUID) (*enrollment.LessonTransition, error)
	LeaveLesson(ctx context.Context, userID, lessonID uuid.UUID) (*enrollment.LessonTransition, error)
}

var _ EnrollmentLedger = (*enrollment.Ledger)(nil)

// EnrollmentHandler handles membership and progress transitions. Users
// always act on their own enrollment.
type EnrollmentHandler struct {
	ledger EnrollmentLedger
}

// NewEnrollmentHandler creates an EnrollmentHandler.
func NewEnrollmentHandler(ledger EnrollmentLedger) *EnrollmentHandler {
	return &EnrollmentHandler{ledger: ledger}
}

// JoinCourse handles POST /api/courses/{id}/membership.
func (h *EnrollmentHandler) JoinCourse(w http.ResponseWriter, r *http.Request) {
	identity, courseID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.ledger.JoinCourse(r.Context(), identity, courseID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// LeaveCourse handles DELETE /api/courses/{id}/membership.
func (h *EnrollmentHandler) LeaveCourse(w http.ResponseWriter, r *http.Request) {
	identity, courseID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.ledger.LeaveCourse(r.Context(), identity.UserID, courseID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// JoinLesson handles POST /api/lessons/{id}/progress.
func (h *EnrollmentHandler) JoinLesson(w http.ResponseWriter, r *http.Request) {
	identity, lessonID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.ledger.JoinLesson(r.Context(), identity, lessonID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// LeaveLesson handles DELETE /api/lessons/{id}/progress.
func (h *EnrollmentHandler) LeaveLesson(w http.ResponseWriter, r *http.Request) {
	identity, lessonID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.ledger.LeaveLesson(r.Context(), identity.UserID, lessonID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
