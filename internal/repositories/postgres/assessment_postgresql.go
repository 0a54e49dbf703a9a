package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/SAP-F-2025/marks-service/internal/repositories"
	"gorm.io/gorm"
)

type AssessmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssessmentPostgreSQL(db *gorm.DB) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{db: db}
}

// Create creates a new assessment together with its marks decomposition
func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := getDB(a.db, tx).WithContext(ctx)

	if err := db.Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	return nil
}

// GetByID retrieves an assessment with subject rows and breakdowns in authored order
func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := a.preloadDecomposition(getDB(a.db, tx).WithContext(ctx)).
		First(&assessment, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment %d: %w", id, err)
	}

	return &assessment, nil
}

// Update replaces the assessment fields and its marks decomposition. Breakdown
// and subject row ids supplied by the caller are kept so that stored marks stay
// aligned with their components.
func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := getDB(a.db, tx).WithContext(ctx)

	result := db.Model(&models.Assessment{}).
		Where("id = ?", assessment.ID).
		Updates(map[string]interface{}{
			"academic_year":   assessment.AcademicYear,
			"name":            assessment.Name,
			"assessment_type": assessment.AssessmentType,
			"class_grades":    assessment.ClassGrades,
			"scheduled_date":  assessment.ScheduledDate,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update assessment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update assessment %d: %w", assessment.ID, gorm.ErrRecordNotFound)
	}

	if err := a.deleteDecomposition(db, assessment.ID); err != nil {
		return err
	}

	for i := range assessment.SubjectMarks {
		assessment.SubjectMarks[i].AssessmentID = assessment.ID
	}
	if len(assessment.SubjectMarks) > 0 {
		if err := db.Create(&assessment.SubjectMarks).Error; err != nil {
			return fmt.Errorf("failed to create subject marks: %w", err)
		}
	}

	return nil
}

// Delete removes an assessment and its marks decomposition. Marks entries and
// timetable entries are removed through their own repositories.
func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(a.db, tx).WithContext(ctx)

	if err := a.deleteDecomposition(db, id); err != nil {
		return err
	}

	result := db.Delete(&models.Assessment{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete assessment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete assessment %d: %w", id, gorm.ErrRecordNotFound)
	}

	return nil
}

// List retrieves assessments ordered by scheduled date (unscheduled last), then name
func (a *AssessmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, error) {
	query := a.preloadDecomposition(getDB(a.db, tx).WithContext(ctx).Model(&models.Assessment{}))

	if filters.AcademicYear != "" {
		query = query.Where("academic_year = ?", filters.AcademicYear)
	}

	var assessments []*models.Assessment
	err := query.
		Order("scheduled_date IS NULL").
		Order("scheduled_date ASC").
		Order("name ASC").
		Order("id ASC").
		Find(&assessments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	// Grades are stored as JSON; filter them here so the query stays portable.
	if filters.ClassGrade != nil {
		filtered := assessments[:0]
		for _, assessment := range assessments {
			if assessment.HasClassGrade(*filters.ClassGrade) {
				filtered = append(filtered, assessment)
			}
		}
		assessments = filtered
	}

	return assessments, nil
}

// Exists checks whether an assessment with id exists
func (a *AssessmentPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := getDB(a.db, tx).WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ?", id).
		Count(&count).Error

	return count > 0, err
}

func (a *AssessmentPostgreSQL) preloadDecomposition(db *gorm.DB) *gorm.DB {
	return db.
		Preload("SubjectMarks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		}).
		Preload("SubjectMarks.Breakdowns", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		})
}

func (a *AssessmentPostgreSQL) deleteDecomposition(db *gorm.DB, assessmentID uint) error {
	subjectMarkIDs := db.Model(&models.AssessmentSubjectMark{}).
		Select("id").
		Where("assessment_id = ?", assessmentID)

	if err := db.Where("subject_mark_id IN (?)", subjectMarkIDs).Delete(&models.AssessmentBreakdown{}).Error; err != nil {
		return fmt.Errorf("failed to delete breakdowns: %w", err)
	}
	if err := db.Where("assessment_id = ?", assessmentID).Delete(&models.AssessmentSubjectMark{}).Error; err != nil {
		return fmt.Errorf("failed to delete subject marks: %w", err)
	}

	return nil
}
