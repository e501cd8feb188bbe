package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/store"
)

type pairKey [2]uuid.UUID

// Database is the shared state behind the in-memory stores. It enforces the
// foreign keys and composite uniqueness constraints of the real schema.
type Database struct {
	mu          sync.Mutex
	courses     map[uuid.UUID]domain.Course
	lessons     map[uuid.UUID]domain.Lesson
	memberships map[pairKey]domain.CourseMembership
	progress    map[pairKey]domain.LessonProgress
}

// NewDatabase returns an empty Database.
func NewDatabase() *Database {
	return &Database{
		courses:     map[uuid.UUID]domain.Course{},
		lessons:     map[uuid.UUID]domain.Lesson{},
		memberships: map[pairKey]domain.CourseMembership{},
		progress:    map[pairKey]domain.LessonProgress{},
	}
}

// MembershipCount returns the number of stored memberships for a pair.
func (db *Database) MembershipCount(userID, courseID uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.memberships[pairKey{userID, courseID}]; ok {
		return 1
	}
	return 0
}

func paginate[T any](items []T, page domain.PageRequest) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+page.Limit, len(items))
	return items[start:end]
}

func matchesSearch(name, search string) bool {
	return search == "" || strings.Contains(strings.ToLower(name), strings.ToLower(search))
}

// CourseStore is an in-memory store.CourseStore.
type CourseStore struct {
	db *Database

	// Err, when set, is returned by every call.
	Err error

	GetCalls  int
	ListCalls int
}

// NewCourseStore returns a CourseStore over db.
func NewCourseStore(db *Database) *CourseStore {
	return &CourseStore{db: db}
}

var _ store.CourseStore = (*CourseStore)(nil)

// Create implements store.CourseStore.
func (s *CourseStore) Create(ctx context.Context, course *domain.Course) error {
	if s.Err != nil {
		return s.Err
	}
	if err := course.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.courses[course.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.courses[course.ID] = *course
	return nil
}

// GetByID implements store.CourseStore.
func (s *CourseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.GetCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	c, ok := s.db.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	return &c, nil
}

// Update implements store.CourseStore.
func (s *CourseStore) Update(ctx context.Context, course *domain.Course) error {
	if s.Err != nil {
		return s.Err
	}
	if err := course.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.courses[course.ID]; !ok {
		return store.ErrCourseNotFound
	}
	s.db.courses[course.ID] = *course
	return nil
}

// List implements store.CourseStore.
func (s *CourseStore) List(
	ctx context.Context,
	filter store.CourseFilter,
	page domain.PageRequest,
) ([]*domain.Course, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.ListCalls++
	if s.Err != nil {
		return nil, 0, s.Err
	}

	var matched []*domain.Course
	for _, c := range s.db.courses {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.CreatorID != uuid.Nil && c.CreatorID != filter.CreatorID {
			continue
		}
		if filter.MemberID != uuid.Nil {
			if _, ok := s.db.memberships[pairKey{filter.MemberID, c.ID}]; !ok {
				continue
			}
		}
		if !matchesSearch(c.Name, page.Search) {
			continue
		}
		c := c
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page), len(matched), nil
}

// LessonStore is an in-memory store.LessonStore.
type LessonStore struct {
	db *Database

	// Err, when set, is returned by every call.
	Err error

	ListCalls int
}

// NewLessonStore returns a LessonStore over db.
func NewLessonStore(db *Database) *LessonStore {
	return &LessonStore{db: db}
}

var _ store.LessonStore = (*LessonStore)(nil)

// Create implements store.LessonStore.
func (s *LessonStore) Create(ctx context.Context, lesson *domain.Lesson) error {
	if s.Err != nil {
		return s.Err
	}
	if err := lesson.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.courses[lesson.CourseID]; !ok {
		return store.ErrCourseNotFound
	}
	rank := 0
	for _, l := range s.db.lessons {
		if l.CourseID == lesson.CourseID && l.Rank > rank {
			rank = l.Rank
		}
	}
	lesson.Rank = rank + 1
	s.db.lessons[lesson.ID] = *lesson
	return nil
}

// GetByID implements store.LessonStore.
func (s *LessonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	l, ok := s.db.lessons[id]
	if !ok {
		return nil, store.ErrLessonNotFound
	}
	return &l, nil
}

// Update implements store.LessonStore.
func (s *LessonStore) Update(ctx context.Context, lesson *domain.Lesson) error {
	if s.Err != nil {
		return s.Err
	}
	if err := lesson.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	current, ok := s.db.lessons[lesson.ID]
	if !ok {
		return store.ErrLessonNotFound
	}
	lesson.Rank = current.Rank
	lesson.CourseID = current.CourseID
	s.db.lessons[lesson.ID] = *lesson
	return nil
}

// ListByCourse implements store.LessonStore.
func (s *LessonStore) ListByCourse(
	ctx context.Context,
	courseID uuid.UUID,
	filter store.LessonFilter,
	page domain.PageRequest,
) ([]*domain.Lesson, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.ListCalls++
	if s.Err != nil {
		return nil, 0, s.Err
	}

	var matched []*domain.Lesson
	for _, l := range s.db.lessons {
		if l.CourseID != courseID || !matchesSearch(l.Name, page.Search) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, l.Status) {
			continue
		}
		l := l
		matched = append(matched, &l)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Rank < matched[j].Rank })
	return paginate(matched, page), len(matched), nil
}

func containsStatus(statuses []domain.LessonStatus, s domain.LessonStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// MembershipStore is an in-memory store.MembershipStore.
type MembershipStore struct {
	db *Database

	// Err, when set, is returned by every call.
	Err error

	CountCalls int
}

// NewMembershipStore returns a MembershipStore over db.
func NewMembershipStore(db *Database) *MembershipStore {
	return &MembershipStore{db: db}
}

var _ store.MembershipStore = (*MembershipStore)(nil)

// Create implements store.MembershipStore.
func (s *MembershipStore) Create(ctx context.Context, m *domain.CourseMembership) error {
	if s.Err != nil {
		return s.Err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.courses[m.CourseID]; !ok {
		return store.ErrCourseNotFound
	}
	key := pairKey{m.UserID, m.CourseID}
	if _, ok := s.db.memberships[key]; ok {
		return store.ErrMembershipExists
	}
	s.db.memberships[key] = *m
	return nil
}

// Delete implements store.MembershipStore.
func (s *MembershipStore) Delete(ctx context.Context, userID, courseID uuid.UUID) error {
	if s.Err != nil {
		return s.Err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pairKey{userID, courseID}
	if _, ok := s.db.memberships[key]; !ok {
		return store.ErrMembershipNotFound
	}
	delete(s.db.memberships, key)
	return nil
}

// CountByCourse implements store.MembershipStore.
func (s *MembershipStore) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.CountCalls++
	if s.Err != nil {
		return 0, s.Err
	}
	n := 0
	for key := range s.db.memberships {
		if key[1] == courseID {
			n++
		}
	}
	return n, nil
}

// ProgressStore is an in-memory store.ProgressStore.
type ProgressStore struct {
	db *Database

	// Err, when set, is returned by every call.
	Err error

	ListCalls int
}

// NewProgressStore returns a ProgressStore over db.
func NewProgressStore(db *Database) *ProgressStore {
	return &ProgressStore{db: db}
}

var _ store.ProgressStore = (*ProgressStore)(nil)

// Create implements store.ProgressStore.
func (s *ProgressStore) Create(ctx context.Context, p *domain.LessonProgress) error {
	if s.Err != nil {
		return s.Err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.lessons[p.LessonID]; !ok {
		return store.ErrLessonNotFound
	}
	key := pairKey{p.UserID, p.LessonID}
	if _, ok := s.db.progress[key]; ok {
		return store.ErrProgressExists
	}
	s.db.progress[key] = *p
	return nil
}

// Get implements store.ProgressStore.
func (s *ProgressStore) Get(ctx context.Context, userID, lessonID uuid.UUID) (*domain.LessonProgress, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.progress[pairKey{userID, lessonID}]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	return &p, nil
}

// UpdateState implements store.ProgressStore.
func (s *ProgressStore) UpdateState(
	ctx context.Context,
	userID, lessonID uuid.UUID,
	from, to domain.ProgressState,
) error {
	if s.Err != nil {
		return s.Err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pairKey{userID, lessonID}
	p, ok := s.db.progress[key]
	if !ok || p.State != from {
		return store.ErrProgressNotFound
	}
	p.State = to
	s.db.progress[key] = p
	return nil
}

// Delete implements store.ProgressStore.
func (s *ProgressStore) Delete(ctx context.Context, userID, lessonID uuid.UUID) error {
	if s.Err != nil {
		return s.Err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pairKey{userID, lessonID}
	if _, ok := s.db.progress[key]; !ok {
		return store.ErrProgressNotFound
	}
	delete(s.db.progress, key)
	return nil
}

// ListByCourse implements store.ProgressStore.
func (s *ProgressStore) ListByCourse(
	ctx context.Context,
	userID, courseID uuid.UUID,
) ([]*domain.LessonProgress, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.ListCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	type ranked struct {
		p    domain.LessonProgress
		rank int
	}
	var rows []ranked
	for key, p := range s.db.progress {
		if key[0] != userID {
			continue
		}
		if l, ok := s.db.lessons[key[1]]; ok && l.CourseID == courseID {
			rows = append(rows, ranked{p: p, rank: l.Rank})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].rank < rows[j].rank })
	out := make([]*domain.LessonProgress, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i].p)
	}
	return out, nil
}
