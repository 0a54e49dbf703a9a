package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/SAP-F-2025/marks-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamTimetablePostgreSQL struct {
	db *gorm.DB
}

func NewExamTimetablePostgreSQL(db *gorm.DB) repositories.ExamTimetableRepository {
	return &ExamTimetablePostgreSQL{db: db}
}

func (e *ExamTimetablePostgreSQL) ListByGrade(ctx context.Context, tx *gorm.DB, assessmentID uint, classGrade int) ([]*models.ExamTimetableEntry, error) {
	var entries []*models.ExamTimetableEntry
	err := getDB(e.db, tx).WithContext(ctx).
		Where("assessment_id = ? AND class_grade = ?", assessmentID, classGrade).
		Order("exam_date ASC").
		Order("subject_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exam timetable: %w", err)
	}

	return entries, nil
}

func (e *ExamTimetablePostgreSQL) ListByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.ExamTimetableEntry, error) {
	var entries []*models.ExamTimetableEntry
	err := getDB(e.db, tx).WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("class_grade ASC").
		Order("exam_date ASC").
		Order("subject_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exam timetable: %w", err)
	}

	return entries, nil
}

// ReplaceForGrade drops subjects that are no longer scheduled and upserts the rest.
// Callers wanting atomicity pass a transaction.
func (e *ExamTimetablePostgreSQL) ReplaceForGrade(ctx context.Context, tx *gorm.DB, assessmentID uint, classGrade int, entries []*models.ExamTimetableEntry) error {
	db := getDB(e.db, tx).WithContext(ctx)

	keep := make([]uint, 0, len(entries))
	for _, entry := range entries {
		entry.AssessmentID = assessmentID
		entry.ClassGrade = classGrade
		keep = append(keep, entry.SubjectID)
	}

	stale := db.Where("assessment_id = ? AND class_grade = ?", assessmentID, classGrade)
	if len(keep) > 0 {
		stale = stale.Where("subject_id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.ExamTimetableEntry{}).Error; err != nil {
		return fmt.Errorf("failed to clear exam timetable: %w", err)
	}

	if len(entries) == 0 {
		return nil
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "assessment_id"},
			{Name: "class_grade"},
			{Name: "subject_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"exam_date", "updated_at"}),
	}).Create(&entries).Error
	if err != nil {
		return fmt.Errorf("failed to save exam timetable: %w", err)
	}

	return nil
}

func (e *ExamTimetablePostgreSQL) DeleteByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error {
	err := getDB(e.db, tx).WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Delete(&models.ExamTimetableEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete exam timetable: %w", err)
	}
	return nil
}
