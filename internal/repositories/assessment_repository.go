package repositories

import (
	"context"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"gorm.io/gorm"
)

// AssessmentRepository interface for assessment-specific operations
type AssessmentRepository interface {
	// Create persists the assessment with its subject rows and breakdowns.
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	// Update replaces the mutable fields and the whole marks decomposition.
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	// Delete removes the assessment and its marks decomposition.
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, error)
	Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}
