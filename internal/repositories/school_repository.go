package repositories

import (
	"context"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"gorm.io/gorm"
)

// RosterRepository reads class enrollment owned by the school system.
type RosterRepository interface {
	GetClass(ctx context.Context, tx *gorm.DB, classID uint) (*models.Class, error)
	// ListStudents returns the class roster ordered by roll number.
	ListStudents(ctx context.Context, tx *gorm.DB, classID uint) ([]models.RosterStudent, error)
}

// CurriculumRepository reads which subjects are taught to which classes.
type CurriculumRepository interface {
	GetSubject(ctx context.Context, tx *gorm.DB, subjectID uint) (*models.Subject, error)
	ListSubjectsForGrade(ctx context.Context, tx *gorm.DB, classGrade int) ([]models.Subject, error)
	IsTaughtToClass(ctx context.Context, tx *gorm.DB, subjectID, classID uint) (bool, error)
	// GradeName returns the display name used for a class grade, or "" if no
	// class of that grade exists.
	GradeName(ctx context.Context, tx *gorm.DB, classGrade int) (string, error)
}
