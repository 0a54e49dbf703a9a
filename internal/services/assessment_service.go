package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/marks-service/internal/cache"
	"github.com/SAP-F-2025/marks-service/internal/events"
	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/SAP-F-2025/marks-service/internal/observability"
	"github.com/SAP-F-2025/marks-service/internal/repositories"
	"github.com/SAP-F-2025/marks-service/internal/validator"
	"gorm.io/gorm"
)

type assessmentService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	validator *validator.Validator
	timetable ExamTimetableService
	logger    *ServiceLogger
	config    ServiceConfig
}

func NewAssessmentService(deps Dependencies, timetable ExamTimetableService) AssessmentService {
	return &assessmentService{
		repo:      deps.Repo,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		validator: deps.Validator,
		timetable: timetable,
		logger:    NewServiceLogger(deps.Logger, LogConfig{Service: "marks-service", Component: "assessment"}),
		config:    deps.Config,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *CreateAssessmentRequest) (resp *AssessmentResponse, err error) {
	op := s.logger.WithOperation(ctx, "create_assessment")
	defer func() { op.LogResult(assessmentID(resp), "assessment", err) }()

	assessment, err := s.buildValidated(&req.AssessmentDraft, decompositionIDs{})
	if err != nil {
		return nil, err
	}

	if err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.repo.Assessment().Create(ctx, tx, assessment)
	}); err != nil {
		return nil, NewTransientError("create assessment", err)
	}

	resp = toAssessmentResponse(assessment)
	s.invalidateLists(ctx, "create_assessment")
	s.publish(ctx, "create_assessment", events.NewEvent(events.EventAssessmentCreated, assessmentChangedEvent(resp)))

	// The timetable rides along with the create form but never undoes it.
	if hasExamDates(req.ExamTimetable) {
		if _, ttErr := s.timetable.SaveTimetable(ctx, resp.ID, req.ExamTimetable); ttErr != nil {
			s.logger.LogSideEffectFailure(ctx, "create_assessment", "exam_timetable", ttErr)
			observability.SideEffectFailures().WithLabelValues("exam_timetable").Inc()
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("exam timetable was not saved: %v", ttErr))
		}
	}

	return resp, nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, req *UpdateAssessmentRequest) (resp *AssessmentResponse, err error) {
	op := s.logger.WithOperation(ctx, "update_assessment")
	defer func() { op.LogResult(id, "assessment", err) }()

	existing, err := s.getAssessment(ctx, id)
	if err != nil {
		return nil, err
	}

	assessment, err := s.buildValidated(&req.AssessmentDraft, ownedIDs(existing))
	if err != nil {
		return nil, err
	}
	assessment.ID = id
	assessment.CreatedAt = existing.CreatedAt

	var withdrawn []int
	if err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Assessment().Update(ctx, tx, assessment); err != nil {
			return err
		}

		timetable, err := s.repo.ExamTimetable().ListByAssessment(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, grade := range timetableGrades(timetable) {
			if assessment.HasClassGrade(grade) {
				continue
			}
			if err := s.repo.ExamTimetable().ReplaceForGrade(ctx, tx, id, grade, nil); err != nil {
				return err
			}
			withdrawn = append(withdrawn, grade)
		}
		return nil
	}); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, NewTransientError("update assessment", err)
	}

	stored, err := s.getAssessment(ctx, id)
	if err != nil {
		return nil, err
	}

	resp = toAssessmentResponse(stored)
	s.invalidateLists(ctx, "update_assessment")
	changed := assessmentChangedEvent(resp)
	changed.WithdrawnExamGrades = withdrawn
	s.publish(ctx, "update_assessment", events.NewEvent(events.EventAssessmentUpdated, changed))
	return resp, nil
}

func (s *assessmentService) Delete(ctx context.Context, id uint) (err error) {
	op := s.logger.WithOperation(ctx, "delete_assessment")
	defer func() { op.LogResult(id, "assessment", err) }()

	var withdrawn []int
	if err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		exists, err := s.repo.Assessment().Exists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !exists {
			return gorm.ErrRecordNotFound
		}

		timetable, err := s.repo.ExamTimetable().ListByAssessment(ctx, tx, id)
		if err != nil {
			return err
		}
		withdrawn = timetableGrades(timetable)

		if err := s.repo.MarksEntry().DeleteByAssessment(ctx, tx, id); err != nil {
			return err
		}
		if err := s.repo.ExamTimetable().DeleteByAssessment(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Assessment().Delete(ctx, tx, id)
	}); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return NewTransientError("delete assessment", err)
	}

	s.invalidateLists(ctx, "delete_assessment")
	s.publish(ctx, "delete_assessment", events.NewEvent(events.EventAssessmentDeleted, events.AssessmentDeletedEvent{
		AssessmentID:        id,
		WithdrawnExamGrades: withdrawn,
	}))
	return nil
}

func (s *assessmentService) GetByID(ctx context.Context, id uint) (*AssessmentResponse, error) {
	assessment, err := s.getAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAssessmentResponse(assessment), nil
}

// ListByYear returns the year's assessments ordered by scheduled date with
// undated ones last, then by name. classGrade optionally narrows the list.
func (s *assessmentService) ListByYear(ctx context.Context, academicYear string, classGrade *int) ([]*AssessmentResponse, error) {
	year := strings.TrimSpace(academicYear)
	if !validator.IsAcademicYear(year) {
		return nil, singleValidationError("academic_year",
			"must be an academic year in the form YYYY-YYYY with consecutive years", "academic_year", academicYear)
	}

	key := cache.AssessmentListKey(year)
	if classGrade != nil {
		key = cache.AssessmentGradeListKey(year, *classGrade)
	}

	var cached []*AssessmentResponse
	cacheErr := s.cache.Get(ctx, key, &cached)
	if cacheErr == nil {
		return cached, nil
	}
	if !errors.Is(cacheErr, cache.ErrCacheMiss) {
		s.logger.LogSideEffectFailure(ctx, "list_assessments", "cache_read", cacheErr)
	}

	assessments, err := s.repo.Assessment().List(ctx, nil, repositories.AssessmentFilters{
		AcademicYear: year,
		ClassGrade:   classGrade,
	})
	if err != nil {
		return nil, NewTransientError("list assessments", err)
	}

	result := make([]*AssessmentResponse, len(assessments))
	for i, assessment := range assessments {
		result[i] = toAssessmentResponse(assessment)
	}

	if err := s.cache.Set(ctx, key, result, s.config.CacheTTL); err != nil {
		s.logger.LogSideEffectFailure(ctx, "list_assessments", "cache_write", err)
	}
	return result, nil
}

// ===== HELPERS =====

// buildValidated normalizes the type, runs struct and decomposition checks
// and maps the draft to a model.
func (s *assessmentService) buildValidated(draft *AssessmentDraft, owned decompositionIDs) (*models.Assessment, error) {
	normalized := *draft
	normalized.AcademicYear = strings.TrimSpace(draft.AcademicYear)
	normalized.Name = strings.TrimSpace(draft.Name)
	normalized.ScheduledDate = strings.TrimSpace(draft.ScheduledDate)
	normalized.AssessmentType = normalizeAssessmentType(draft.AssessmentType, s.config.LenientAssessmentType)

	if err := s.validator.Validate(&normalized); err != nil {
		return nil, err
	}

	assessment, err := buildAssessment(&normalized, owned)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Marks().ValidateSubjectMarks(assessment.SubjectMarks); len(errs) > 0 {
		return nil, errs
	}
	return assessment, nil
}

func (s *assessmentService) getAssessment(ctx context.Context, id uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, NewTransientError("get assessment", err)
	}
	return assessment, nil
}

func (s *assessmentService) invalidateLists(ctx context.Context, operation string) {
	if err := s.cache.DeletePattern(ctx, cache.AssessmentListPattern()); err != nil {
		s.logger.LogSideEffectFailure(ctx, operation, "cache_invalidation", err)
		observability.SideEffectFailures().WithLabelValues("cache").Inc()
	}
}

func (s *assessmentService) publish(ctx context.Context, operation string, event *events.Event) {
	publishBestEffort(ctx, s.publisher, s.logger, operation, event)
}

func assessmentID(resp *AssessmentResponse) uint {
	if resp == nil {
		return 0
	}
	return resp.ID
}
