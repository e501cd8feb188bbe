package api

import (
	"net/http"

	"github.com/phrazzld/lessonhub-api/internal/api/shared"
	"github.com/phrazzld/lessonhub-api/internal/service"
)

// LessonHandler handles lesson and progress-view HTTP requests.
type LessonHandler struct {
	lessons service.LessonService
}

// NewLessonHandler creates a LessonHandler.
func NewLessonHandler(lessons service.LessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// ListLessons handles GET /api/courses/{id}/lessons.
func (h *LessonHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	identity, courseID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	page, err := parsePageRequest(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.lessons.ListLessons(r.Context(), identity, courseID, page)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// CreateLesson handles POST /api/courses/{id}/lessons.
func (h *LessonHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	identity, courseID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req CreateLessonRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lesson, err := h.lessons.CreateLesson(r.Context(), identity, courseID, req.Fields())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, lesson)
}

// UpdateLesson handles PUT /api/lessons/{id}.
func (h *LessonHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	identity, lessonID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateLessonRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lesson, err := h.lessons.UpdateLesson(r.Context(), identity, lessonID, req.Fields())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lesson)
}

// GetCourseProgress handles GET /api/courses/{id}/progress.
func (h *LessonHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	identity, courseID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	rows, err := h.lessons.GetCourseProgress(r.Context(), identity, courseID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{"course_id": courseID, "lessons": rows})
}
