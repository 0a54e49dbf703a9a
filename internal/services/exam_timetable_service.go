package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/marks-service/internal/events"
	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/SAP-F-2025/marks-service/internal/repositories"
	"github.com/SAP-F-2025/marks-service/internal/validator"
	"gorm.io/gorm"
)

type examTimetableService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
}

func NewExamTimetableService(deps Dependencies) ExamTimetableService {
	return &examTimetableService{
		repo:      deps.Repo,
		publisher: deps.Publisher,
		validator: deps.Validator,
		logger:    NewServiceLogger(deps.Logger, LogConfig{Service: "marks-service", Component: "exam_timetable"}),
	}
}

// LoadTimetable returns the subjects taught to classGrade and the exam dates
// already chosen for them.
func (s *examTimetableService) LoadTimetable(ctx context.Context, assessmentID uint, classGrade int) (*TimetableResponse, error) {
	assessment, err := s.getAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if !assessment.HasClassGrade(classGrade) {
		return nil, NewPreconditionError("load exam timetable", ErrClassGradeNotInScope)
	}
	return s.buildTimetable(ctx, assessment.ID, classGrade)
}

// SaveTimetable replaces the exam dates for one class grade. Entries without
// a date are dropped; the assessment must apply to exactly that one grade.
func (s *examTimetableService) SaveTimetable(ctx context.Context, assessmentID uint, req *SaveTimetableRequest) (resp *TimetableResponse, err error) {
	op := s.logger.WithOperation(ctx, "save_exam_timetable")
	defer func() { op.LogResult(assessmentID, "exam_timetable", err) }()

	assessment, err := s.getAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if len(assessment.ClassGrades) != 1 {
		return nil, NewPreconditionError("save exam timetable", ErrMultipleClassGrades)
	}

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	classGrade := *req.ClassGrade
	if !assessment.HasClassGrade(classGrade) {
		return nil, NewPreconditionError("save exam timetable", ErrClassGradeNotInScope)
	}

	entries, err := s.buildEntries(ctx, assessment.ID, classGrade, req.Entries)
	if err != nil {
		return nil, err
	}

	if err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.repo.ExamTimetable().ReplaceForGrade(ctx, tx, assessment.ID, classGrade, entries)
	}); err != nil {
		return nil, NewTransientError("save exam timetable", err)
	}

	resp, err = s.buildTimetable(ctx, assessment.ID, classGrade)
	if err != nil {
		return nil, err
	}

	publishBestEffort(ctx, s.publisher, s.logger, "save_exam_timetable",
		events.NewEvent(events.EventExamTimetableSaved, timetableSavedEvent(assessment, resp)))
	return resp, nil
}

// buildEntries filters out undated entries and checks the rest.
func (s *examTimetableService) buildEntries(ctx context.Context, assessmentID uint, classGrade int, requested []TimetableEntryRequest) ([]*models.ExamTimetableEntry, error) {
	var errs ValidationErrors
	entries := make([]*models.ExamTimetableEntry, 0, len(requested))
	seen := make(map[uint]bool)

	for i, entry := range requested {
		dateValue := strings.TrimSpace(entry.ExamDate)
		if dateValue == "" {
			continue
		}

		field := fmt.Sprintf("entries[%d]", i)
		if seen[entry.SubjectID] {
			errs.Add(field+".subject_id", "is listed more than once", "unique", entry.SubjectID)
			continue
		}
		seen[entry.SubjectID] = true

		date, err := models.ParseDate(dateValue)
		if err != nil {
			errs.Add(field+".exam_date", "must be a date in the form YYYY-MM-DD", "calendar_date", entry.ExamDate)
			continue
		}

		entries = append(entries, &models.ExamTimetableEntry{
			AssessmentID: assessmentID,
			ClassGrade:   classGrade,
			SubjectID:    entry.SubjectID,
			ExamDate:     date,
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if len(entries) == 0 {
		return nil, singleValidationError("entries", "select at least one exam date", "required", nil)
	}

	subjects, err := s.repo.Curriculum().ListSubjectsForGrade(ctx, nil, classGrade)
	if err != nil {
		return nil, NewTransientError("list subjects", err)
	}
	taught := make(map[uint]bool, len(subjects))
	for _, subject := range subjects {
		taught[subject.ID] = true
	}
	for _, entry := range entries {
		if taught[entry.SubjectID] {
			continue
		}
		if _, err := s.repo.Curriculum().GetSubject(ctx, nil, entry.SubjectID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, fmt.Errorf("subject %d: %w", entry.SubjectID, ErrSubjectNotFound)
			}
			return nil, NewTransientError("get subject", err)
		}
		return nil, NewPreconditionError("save exam timetable", ErrSubjectNotTaughtGrade)
	}

	return entries, nil
}

func (s *examTimetableService) buildTimetable(ctx context.Context, assessmentID uint, classGrade int) (*TimetableResponse, error) {
	subjects, err := s.repo.Curriculum().ListSubjectsForGrade(ctx, nil, classGrade)
	if err != nil {
		return nil, NewTransientError("list subjects", err)
	}

	stored, err := s.repo.ExamTimetable().ListByGrade(ctx, nil, assessmentID, classGrade)
	if err != nil {
		return nil, NewTransientError("list exam timetable", err)
	}

	className, err := s.repo.Curriculum().GradeName(ctx, nil, classGrade)
	if err != nil {
		return nil, NewTransientError("resolve class name", err)
	}
	if className == "" {
		className = fmt.Sprintf("Grade %d", classGrade)
	}

	resp := &TimetableResponse{
		AssessmentID: assessmentID,
		ClassGrade:   classGrade,
		ClassName:    className,
		Subjects:     make([]SubjectResponse, len(subjects)),
		Entries:      make([]TimetableEntryResponse, 0, len(stored)),
	}

	names := make(map[uint]string, len(subjects))
	for i, subject := range subjects {
		resp.Subjects[i] = SubjectResponse{ID: subject.ID, Name: subject.Name, Code: subject.Code}
		names[subject.ID] = subject.Name
	}
	for _, entry := range stored {
		resp.Entries = append(resp.Entries, TimetableEntryResponse{
			SubjectID:   entry.SubjectID,
			SubjectName: names[entry.SubjectID],
			ExamDate:    models.FormatDate(entry.ExamDate),
		})
	}

	return resp, nil
}

func (s *examTimetableService) getAssessment(ctx context.Context, id uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, NewTransientError("get assessment", err)
	}
	return assessment, nil
}

func timetableSavedEvent(assessment *models.Assessment, resp *TimetableResponse) events.ExamTimetableSavedEvent {
	data := events.ExamTimetableSavedEvent{
		AssessmentID:   assessment.ID,
		AssessmentName: assessment.Name,
		ClassGrade:     resp.ClassGrade,
		ClassName:      resp.ClassName,
		Entries:        make([]events.ExamDate, len(resp.Entries)),
	}
	for i, entry := range resp.Entries {
		data.Entries[i] = events.ExamDate{
			SubjectID:   entry.SubjectID,
			SubjectName: entry.SubjectName,
			ExamDate:    entry.ExamDate,
		}
	}
	return data
}
