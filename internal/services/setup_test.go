package services

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/SAP-F-2025/marks-service/internal/cache"
	"github.com/SAP-F-2025/marks-service/internal/events"
	"github.com/SAP-F-2025/marks-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/marks-service/internal/testutil"
	"github.com/SAP-F-2025/marks-service/internal/validator"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	school    *testutil.School
	publisher *events.MockEventPublisher
	services  ServiceManager
}

type envOption func(*Dependencies)

func withConfig(cfg ServiceConfig) envOption {
	return func(d *Dependencies) { d.Config = cfg }
}

func withCache(c cache.CacheService) envOption {
	return func(d *Dependencies) { d.Cache = c }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	school := testutil.SeedSchool(t, db)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	publisher := events.NewMockEventPublisher(logger)

	deps := Dependencies{
		Repo:      postgres.NewRepository(db),
		Cache:     cache.NewNoopCache(),
		Publisher: publisher,
		Validator: validator.New(),
		Logger:    logger,
		Config: ServiceConfig{
			CacheTTL:           time.Minute,
			StrictBreakdownMax: true,
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{
		db:        db,
		school:    school,
		publisher: publisher,
		services:  NewServiceManager(deps),
	}
}

func uintPtr(v uint) *uint        { return &v }
func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// theoryPractical is a 100 mark subject split 80/20.
func theoryPractical(subjectID *uint) SubjectMarkRequest {
	return SubjectMarkRequest{
		SubjectID:  subjectID,
		TotalMarks: 100,
		Breakdowns: []BreakdownRequest{
			{Title: "Theory", Marks: 80},
			{Title: "Practical", Marks: 20},
		},
	}
}

func draft(name string, grades []int, subjectMarks ...SubjectMarkRequest) AssessmentDraft {
	return AssessmentDraft{
		AcademicYear:   "2024-2025",
		Name:           name,
		AssessmentType: "SA1",
		ClassGrades:    grades,
		SubjectMarks:   subjectMarks,
	}
}

func eventTypes(publisher *events.MockEventPublisher) []events.EventType {
	var types []events.EventType
	for _, e := range publisher.GetPublishedEvents() {
		types = append(types, e.Type)
	}
	return types
}
