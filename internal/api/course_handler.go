package api

import (
	"net/http"

	"github.com/phrazzld/lessonhub-api/internal/api/shared"
	"github.com/phrazzld/lessonhub-api/internal/service"
)

// CourseHandler handles course HTTP requests.
type CourseHandler struct {
	courses service.CourseService
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(courses service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// ListCourses handles GET /api/courses?scope=&page=&limit=&search=.
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	identity, ok := handleIdentity(w, r)
	if !ok {
		return
	}
	page, err := parsePageRequest(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	scope := service.CourseScope(r.URL.Query().Get("scope"))
	result, err := h.courses.ListCourses(r.Context(), identity, scope, page)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GetCourse handles GET /api/courses/{id}.
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	identity, courseID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.courses.GetCourseDetail(r.Context(), identity, courseID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, detail)
}

// CreateCourse handles POST /api/courses.
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	identity, ok := handleIdentity(w, r)
	if !ok {
		return
	}
	var req CreateCourseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	course, err := h.courses.CreateCourse(r.Context(), identity, req.Fields())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, course)
}

// UpdateCourse handles PUT /api/courses/{id}.
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	identity, courseID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateCourseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	course, err := h.courses.UpdateCourse(r.Context(), identity, courseID, req.Fields())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, course)
}
