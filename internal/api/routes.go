package api

import "github.com/go-chi/chi/v5"

// Handlers groups the handlers mounted under /api.
type Handlers struct {
	Courses    *CourseHandler
	Lessons    *LessonHandler
	Enrollment *EnrollmentHandler
	Generation *GenerationHandler
}

// RegisterRoutes mounts every authenticated endpoint on r. The caller is
// responsible for installing the authentication middleware.
func RegisterRoutes(r chi.Router, h Handlers) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.Courses.ListCourses)
		r.Post("/", h.Courses.CreateCourse)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Courses.GetCourse)
			r.Put("/", h.Courses.UpdateCourse)

			r.Get("/lessons", h.Lessons.ListLessons)
			r.Post("/lessons", h.Lessons.CreateLesson)
			r.Get("/progress", h.Lessons.GetCourseProgress)

			r.Post("/membership", h.Enrollment.JoinCourse)
			r.Delete("/membership", h.Enrollment.LeaveCourse)

			r.Post("/presentation", h.Generation.GeneratePresentation)
		})
	})

	r.Route("/lessons/{id}", func(r chi.Router) {
		r.Put("/", h.Lessons.UpdateLesson)
		r.Post("/progress", h.Enrollment.JoinLesson)
		r.Delete("/progress", h.Enrollment.LeaveLesson)
		r.Post("/generate", h.Generation.GenerateLessonContent)
	})
}
