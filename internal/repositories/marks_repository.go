package repositories

import (
	"context"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"gorm.io/gorm"
)

// MarksEntryRepository stores per-student marks keyed by
// (assessment, class, subject, student).
type MarksEntryRepository interface {
	ListBySheet(ctx context.Context, tx *gorm.DB, assessmentID, classID, subjectID uint) ([]*models.MarksEntry, error)
	// UpsertBatch inserts or replaces every entry by its natural key.
	UpsertBatch(ctx context.Context, tx *gorm.DB, entries []*models.MarksEntry) (int64, error)
	DeleteByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error
}
