package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/SAP-F-2025/marks-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MarksEntryPostgreSQL struct {
	db *gorm.DB
}

func NewMarksEntryPostgreSQL(db *gorm.DB) repositories.MarksEntryRepository {
	return &MarksEntryPostgreSQL{db: db}
}

func (m *MarksEntryPostgreSQL) ListBySheet(ctx context.Context, tx *gorm.DB, assessmentID, classID, subjectID uint) ([]*models.MarksEntry, error) {
	var entries []*models.MarksEntry
	err := getDB(m.db, tx).WithContext(ctx).
		Where("assessment_id = ? AND class_id = ? AND subject_id = ?", assessmentID, classID, subjectID).
		Order("student_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list marks entries: %w", err)
	}

	return entries, nil
}

// UpsertBatch writes all entries in one statement. Rows are matched on the
// natural key so repeated saves replace rather than duplicate.
func (m *MarksEntryPostgreSQL) UpsertBatch(ctx context.Context, tx *gorm.DB, entries []*models.MarksEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	result := getDB(m.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "assessment_id"},
			{Name: "class_id"},
			{Name: "subject_id"},
			{Name: "student_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"marks_obtained", "remarks", "breakdown_marks", "updated_at"}),
	}).Create(&entries)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert marks entries: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (m *MarksEntryPostgreSQL) DeleteByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error {
	err := getDB(m.db, tx).WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Delete(&models.MarksEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete marks entries: %w", err)
	}
	return nil
}
