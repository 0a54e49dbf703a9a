package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/marks-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db            *gorm.DB
	assessment    repositories.AssessmentRepository
	marksEntry    repositories.MarksEntryRepository
	examTimetable repositories.ExamTimetableRepository
	roster        repositories.RosterRepository
	curriculum    repositories.CurriculumRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:            db,
		assessment:    NewAssessmentPostgreSQL(db),
		marksEntry:    NewMarksEntryPostgreSQL(db),
		examTimetable: NewExamTimetablePostgreSQL(db),
		roster:        NewRosterPostgreSQL(db),
		curriculum:    NewCurriculumPostgreSQL(db),
	}
}

func (r *Repository) Assessment() repositories.AssessmentRepository       { return r.assessment }
func (r *Repository) MarksEntry() repositories.MarksEntryRepository       { return r.marksEntry }
func (r *Repository) ExamTimetable() repositories.ExamTimetableRepository { return r.examTimetable }
func (r *Repository) Roster() repositories.RosterRepository               { return r.roster }
func (r *Repository) Curriculum() repositories.CurriculumRepository       { return r.curriculum }

// WithTransaction runs fn in a single database transaction. Any error returned
// by fn rolls the whole unit back.
func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

// getDB returns tx when the caller runs inside a transaction.
func getDB(base, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return base
}
