package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	AcademicYear string `json:"academic_year"`
	ClassGrade   *int   `json:"class_grade"`
}

// ===== REPOSITORY AGGREGATE =====

// Repository gives services access to every store plus transaction control.
// Store methods accept an optional tx; a nil tx runs against the base connection.
type Repository interface {
	Assessment() AssessmentRepository
	MarksEntry() MarksEntryRepository
	ExamTimetable() ExamTimetableRepository
	Roster() RosterRepository
	Curriculum() CurriculumRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err came from a lookup that matched no row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
