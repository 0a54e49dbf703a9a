package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/SAP-F-2025/marks-service/internal/repositories"
	"gorm.io/gorm"
)

type RosterPostgreSQL struct {
	db *gorm.DB
}

func NewRosterPostgreSQL(db *gorm.DB) repositories.RosterRepository {
	return &RosterPostgreSQL{db: db}
}

func (r *RosterPostgreSQL) GetClass(ctx context.Context, tx *gorm.DB, classID uint) (*models.Class, error) {
	var class models.Class
	if err := getDB(r.db, tx).WithContext(ctx).First(&class, classID).Error; err != nil {
		return nil, fmt.Errorf("failed to get class %d: %w", classID, err)
	}
	return &class, nil
}

func (r *RosterPostgreSQL) ListStudents(ctx context.Context, tx *gorm.DB, classID uint) ([]models.RosterStudent, error) {
	var students []models.RosterStudent
	err := getDB(r.db, tx).WithContext(ctx).
		Table("enrollments").
		Select("students.id AS student_id, students.full_name AS full_name, enrollments.roll_number AS roll_number").
		Joins("JOIN students ON students.id = enrollments.student_id").
		Where("enrollments.class_id = ?", classID).
		Order("enrollments.roll_number ASC").
		Order("students.id ASC").
		Scan(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for class %d: %w", classID, err)
	}

	return students, nil
}

type CurriculumPostgreSQL struct {
	db *gorm.DB
}

func NewCurriculumPostgreSQL(db *gorm.DB) repositories.CurriculumRepository {
	return &CurriculumPostgreSQL{db: db}
}

func (c *CurriculumPostgreSQL) GetSubject(ctx context.Context, tx *gorm.DB, subjectID uint) (*models.Subject, error) {
	var subject models.Subject
	if err := getDB(c.db, tx).WithContext(ctx).First(&subject, subjectID).Error; err != nil {
		return nil, fmt.Errorf("failed to get subject %d: %w", subjectID, err)
	}
	return &subject, nil
}

func (c *CurriculumPostgreSQL) ListSubjectsForGrade(ctx context.Context, tx *gorm.DB, classGrade int) ([]models.Subject, error) {
	var subjects []models.Subject
	err := getDB(c.db, tx).WithContext(ctx).
		Model(&models.Subject{}).
		Distinct("subjects.id", "subjects.name", "subjects.code").
		Joins("JOIN class_subjects ON class_subjects.subject_id = subjects.id").
		Joins("JOIN classes ON classes.id = class_subjects.class_id").
		Where("classes.grade = ?", classGrade).
		Order("subjects.name ASC").
		Order("subjects.id ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects for grade %d: %w", classGrade, err)
	}

	return subjects, nil
}

func (c *CurriculumPostgreSQL) IsTaughtToClass(ctx context.Context, tx *gorm.DB, subjectID, classID uint) (bool, error) {
	var count int64
	err := getDB(c.db, tx).WithContext(ctx).
		Model(&models.ClassSubject{}).
		Where("class_id = ? AND subject_id = ?", classID, subjectID).
		Count(&count).Error

	return count > 0, err
}

func (c *CurriculumPostgreSQL) GradeName(ctx context.Context, tx *gorm.DB, classGrade int) (string, error) {
	var classes []models.Class
	err := getDB(c.db, tx).WithContext(ctx).
		Where("grade = ?", classGrade).
		Order("section ASC").
		Limit(1).
		Find(&classes).Error
	if err != nil {
		return "", fmt.Errorf("failed to get grade name: %w", err)
	}
	if len(classes) == 0 {
		return "", nil
	}
	return classes[0].GradeName, nil
}
