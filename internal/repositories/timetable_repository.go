package repositories

import (
	"context"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"gorm.io/gorm"
)

// ExamTimetableRepository stores exam dates keyed by
// (assessment, class grade, subject).
type ExamTimetableRepository interface {
	ListByGrade(ctx context.Context, tx *gorm.DB, assessmentID uint, classGrade int) ([]*models.ExamTimetableEntry, error)
	ListByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.ExamTimetableEntry, error)
	// ReplaceForGrade makes entries the complete set for (assessment, grade).
	ReplaceForGrade(ctx context.Context, tx *gorm.DB, assessmentID uint, classGrade int, entries []*models.ExamTimetableEntry) error
	DeleteByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error
}
