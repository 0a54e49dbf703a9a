// Package testutil provides in-memory storage fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every table migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// School is a small fixture of classes, subjects and enrolled students.
type School struct {
	Grade5A   models.Class
	Grade5B   models.Class
	Grade6A   models.Class
	Maths     models.Subject
	Science   models.Subject
	English   models.Subject
	Students  []models.Student
	RollOrder []uint
}

// SeedSchool creates grade 5 (two sections) and grade 6 with subjects and a
// three-student roster in 5A. Roll numbers are deliberately not in id order.
func SeedSchool(t *testing.T, db *gorm.DB) *School {
	t.Helper()

	s := &School{
		Grade5A: models.Class{Grade: 5, GradeName: "Grade 5", Section: "A"},
		Grade5B: models.Class{Grade: 5, GradeName: "Grade 5", Section: "B"},
		Grade6A: models.Class{Grade: 6, GradeName: "Grade 6", Section: "A"},
		Maths:   models.Subject{Name: "Mathematics", Code: "MATH"},
		Science: models.Subject{Name: "Science", Code: "SCI"},
		English: models.Subject{Name: "English", Code: "ENG"},
	}
	require.NoError(t, db.Create(&s.Grade5A).Error)
	require.NoError(t, db.Create(&s.Grade5B).Error)
	require.NoError(t, db.Create(&s.Grade6A).Error)
	require.NoError(t, db.Create(&s.Maths).Error)
	require.NoError(t, db.Create(&s.Science).Error)
	require.NoError(t, db.Create(&s.English).Error)

	links := []models.ClassSubject{
		{ClassID: s.Grade5A.ID, SubjectID: s.Maths.ID},
		{ClassID: s.Grade5A.ID, SubjectID: s.Science.ID},
		{ClassID: s.Grade5B.ID, SubjectID: s.Maths.ID},
		{ClassID: s.Grade6A.ID, SubjectID: s.English.ID},
	}
	require.NoError(t, db.Create(&links).Error)

	s.Students = []models.Student{
		{FullName: "Asha Rao"},
		{FullName: "Ben Okafor"},
		{FullName: "Chen Li"},
	}
	require.NoError(t, db.Create(&s.Students).Error)

	enrollments := []models.Enrollment{
		{ClassID: s.Grade5A.ID, StudentID: s.Students[0].ID, RollNumber: 3},
		{ClassID: s.Grade5A.ID, StudentID: s.Students[1].ID, RollNumber: 1},
		{ClassID: s.Grade5A.ID, StudentID: s.Students[2].ID, RollNumber: 2},
	}
	require.NoError(t, db.Create(&enrollments).Error)
	s.RollOrder = []uint{s.Students[1].ID, s.Students[2].ID, s.Students[0].ID}

	return s
}
