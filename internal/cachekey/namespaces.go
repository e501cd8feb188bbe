package cachekey

import (
	"strings"

	"github.com/google/uuid"
)

// Key families. A namespace ending in an id scopes a family to one owner so
// that invalidation can drop every parameterization for that owner at once.
const (
	CourseDetailFamily    = "user:course:details"
	PublicCoursesFamily   = "public:courses"
	AdminCoursesFamily    = "admin:courses"
	CreatedCoursesFamily  = "user:courses:created"
	EnrolledCoursesFamily = "user:courses:enrolled"
	LessonsFamily         = "public:lessons"
	ProgressFamily        = "user:progress"
)

// Scoped appends an owner id to a family.
func Scoped(family string, id uuid.UUID) string {
	return family + Separator + id.String()
}

// CourseDetail is the exact key of one course detail view.
func CourseDetail(courseID uuid.UUID) string {
	return Scoped(CourseDetailFamily, courseID)
}

// CreatedCourses is the namespace of a creator's course listings.
func CreatedCourses(creatorID uuid.UUID) string {
	return Scoped(CreatedCoursesFamily, creatorID)
}

// EnrolledCourses is the namespace of a member's course listings.
func EnrolledCourses(userID uuid.UUID) string {
	return Scoped(EnrolledCoursesFamily, userID)
}

// Lessons is the namespace of a course's lesson listings.
func Lessons(courseID uuid.UUID) string {
	return Scoped(LessonsFamily, courseID)
}

// Progress is the namespace of per-user progress views of one course.
func Progress(courseID uuid.UUID) string {
	return Scoped(ProgressFamily, courseID)
}

// ProgressKey is the exact key of one user's progress view of a course.
func ProgressKey(courseID, userID uuid.UUID) string {
	return MustGenerateKey(Progress(courseID), Params{"userId": userID})
}

// Family reduces a key to its low-cardinality family (the namespace without
// owner ids or parameters) for use as a metric label.
func Family(key string) string {
	segments := strings.Split(key, Separator)
	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || strings.Contains(seg, "=") {
			break
		}
		if _, err := uuid.Parse(seg); err == nil {
			break
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return "unknown"
	}
	return strings.Join(kept, Separator)
}
