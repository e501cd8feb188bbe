package api

import (
	"net/http"

	"github.com/phrazzld/lessonhub-api/internal/api/shared"
	"github.com/phrazzld/lessonhub-api/internal/service"
)

// GenerationHandler handles the rate-limited AI generation endpoints.
type GenerationHandler struct {
	generation service.GenerationService
}

// NewGenerationHandler creates a GenerationHandler.
func NewGenerationHandler(generation service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generation: generation}
}

// GenerateLessonContent handles POST /api/lessons/{id}/generate.
func (h *GenerationHandler) GenerateLessonContent(w http.ResponseWriter, r *http.Request) {
	identity, lessonID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req GenerateLessonRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	content, err := h.generation.GenerateLessonContent(r.Context(), identity, lessonID,
		service.LessonGenerationInput{Instructions: req.Instructions, Save: req.Save})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, content)
}

// GeneratePresentation handles POST /api/courses/{id}/presentation.
func (h *GenerationHandler) GeneratePresentation(w http.ResponseWriter, r *http.Request) {
	identity, courseID, ok := handleIdentityAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req GeneratePresentationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deck, err := h.generation.GeneratePresentation(r.Context(), identity, courseID, req.Audience)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, deck)
}
