package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/marks-service/internal/cache"
	"github.com/SAP-F-2025/marks-service/internal/events"
	"github.com/SAP-F-2025/marks-service/internal/observability"
	"github.com/SAP-F-2025/marks-service/internal/repositories"
	"github.com/SAP-F-2025/marks-service/internal/validator"
)

// ServiceConfig holds the behaviour switches shared by all services.
type ServiceConfig struct {
	CacheTTL              time.Duration
	LenientAssessmentType bool
	StrictBreakdownMax    bool
}

// Dependencies are the collaborators every service is built from.
type Dependencies struct {
	Repo      repositories.Repository
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Validator *validator.Validator
	Logger    *slog.Logger
	Config    ServiceConfig
}

// ServiceManager exposes every service to the HTTP layer.
type ServiceManager interface {
	Assessment() AssessmentService
	MarksSheet() MarksSheetService
	ExamTimetable() ExamTimetableService
	Health(ctx context.Context) error
}

type serviceManager struct {
	repo          repositories.Repository
	assessment    AssessmentService
	marksSheet    MarksSheetService
	examTimetable ExamTimetableService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopCache()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewMockEventPublisher(deps.Logger)
	}

	timetable := NewExamTimetableService(deps)
	return &serviceManager{
		repo:          deps.Repo,
		assessment:    NewAssessmentService(deps, timetable),
		marksSheet:    NewMarksSheetService(deps),
		examTimetable: timetable,
	}
}

func (m *serviceManager) Assessment() AssessmentService       { return m.assessment }
func (m *serviceManager) MarksSheet() MarksSheetService       { return m.marksSheet }
func (m *serviceManager) ExamTimetable() ExamTimetableService { return m.examTimetable }

// Health checks that storage is reachable.
func (m *serviceManager) Health(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return NewTransientError("ping database", err)
	}
	return nil
}

// publishBestEffort publishes event and only logs a failure.
func publishBestEffort(ctx context.Context, publisher events.EventPublisher, logger *ServiceLogger, operation string, event *events.Event) {
	if err := publisher.PublishEvent(ctx, event); err != nil {
		logger.LogSideEffectFailure(ctx, operation, "publish_"+string(event.Type), err)
		observability.SideEffectFailures().WithLabelValues("event").Inc()
	}
}
