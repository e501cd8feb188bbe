package enrollment

import "errors"

var (
	// ErrAlreadyEnrolled is returned when joining a course or lesson the
	// user has already joined.
	ErrAlreadyEnrolled = errors.New("already enrolled")

	// ErrNotEnrolled is returned when leaving or completing something the
	// user has not joined.
	ErrNotEnrolled = errors.New("not enrolled")
)
