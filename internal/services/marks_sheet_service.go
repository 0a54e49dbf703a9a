package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/marks-service/internal/events"
	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/SAP-F-2025/marks-service/internal/observability"
	"github.com/SAP-F-2025/marks-service/internal/repositories"
	"github.com/SAP-F-2025/marks-service/internal/validator"
	"gorm.io/gorm"
)

type marksSheetService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
	config    ServiceConfig
}

func NewMarksSheetService(deps Dependencies) MarksSheetService {
	return &marksSheetService{
		repo:      deps.Repo,
		publisher: deps.Publisher,
		validator: deps.Validator,
		logger:    NewServiceLogger(deps.Logger, LogConfig{Service: "marks-service", Component: "marks_sheet"}),
		config:    deps.Config,
	}
}

// sheetScope is everything a sheet operation resolves before touching marks.
type sheetScope struct {
	assessment *models.Assessment
	class      *models.Class
	subject    *models.Subject
	template   *models.AssessmentSubjectMark
}

// LoadSheet lists every enrolled student in roll order with stored marks, or a
// zero-valued row for students without any.
func (s *marksSheetService) LoadSheet(ctx context.Context, key SheetKey) (*MarksSheetResponse, error) {
	if err := s.validator.Validate(&key); err != nil {
		return nil, err
	}

	scope, err := s.resolve(ctx, key, "load marks sheet")
	if err != nil {
		return nil, err
	}
	return s.loadRows(ctx, key, scope)
}

// SaveSheet upserts the pending entries in one transaction. Students not named
// in entries keep whatever is stored for them.
func (s *marksSheetService) SaveSheet(ctx context.Context, req *SaveMarksSheetRequest) (resp *MarksSheetResponse, err error) {
	op := s.logger.WithOperation(ctx, "save_marks_sheet")
	defer func() { op.LogResult(req.AssessmentID, "marks_sheet", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	key := req.Key()
	scope, err := s.resolve(ctx, key, "save marks sheet")
	if err != nil {
		return nil, err
	}

	sheet, err := s.loadRows(ctx, key, scope)
	if err != nil {
		return nil, err
	}

	pending, err := s.pendingChanges(sheet, scope.template, req.Entries)
	if err != nil {
		return nil, err
	}

	resp = MergeDrafts(sheet, pending)

	entries := make([]*models.MarksEntry, 0, len(pending))
	studentIDs := make([]uint, 0, len(pending))
	for _, row := range resp.Rows {
		if _, ok := pending[row.StudentID]; ok {
			entries = append(entries, toMarksEntry(key, row))
			studentIDs = append(studentIDs, row.StudentID)
		}
	}

	var saved int64
	if err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var txErr error
		saved, txErr = s.repo.MarksEntry().UpsertBatch(ctx, tx, entries)
		return txErr
	}); err != nil {
		return nil, NewTransientError("save marks sheet", err)
	}
	observability.MarksEntriesSaved().Add(float64(saved))

	publishBestEffort(ctx, s.publisher, s.logger, "save_marks_sheet", events.NewEvent(events.EventMarksSheetSaved, events.MarksSheetSavedEvent{
		AssessmentID: key.AssessmentID,
		ClassID:      key.ClassID,
		SubjectID:    key.SubjectID,
		StudentIDs:   studentIDs,
	}))

	return resp, nil
}

// pendingChanges keys entries by student and checks each against the roster
// and the subject template.
func (s *marksSheetService) pendingChanges(sheet *MarksSheetResponse, template *models.AssessmentSubjectMark, entries []MarksEntryRequest) (map[uint]MarksEntryRequest, error) {
	onRoster := make(map[uint]bool, len(sheet.Rows))
	for _, row := range sheet.Rows {
		onRoster[row.StudentID] = true
	}

	var errs ValidationErrors
	pending := make(map[uint]MarksEntryRequest, len(entries))
	for i, entry := range entries {
		field := fmt.Sprintf("entries[%d].student_id", i)
		if _, dup := pending[entry.StudentID]; dup {
			errs.Add(field, "is listed more than once", "unique", entry.StudentID)
			continue
		}
		if !onRoster[entry.StudentID] {
			errs.Add(field, "is not enrolled in this class", "enrolled", entry.StudentID)
			continue
		}

		candidate := &models.MarksEntry{
			StudentID:      entry.StudentID,
			MarksObtained:  entry.MarksObtained,
			BreakdownMarks: entry.BreakdownMarks,
		}
		errs = append(errs, s.validator.Marks().ValidateMarksEntry(i, template, candidate, s.config.StrictBreakdownMax)...)
		pending[entry.StudentID] = entry
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return pending, nil
}

// resolve checks that the assessment grades this subject for this class.
func (s *marksSheetService) resolve(ctx context.Context, key SheetKey, operation string) (*sheetScope, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, key.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, NewTransientError("get assessment", err)
	}

	class, err := s.repo.Roster().GetClass(ctx, nil, key.ClassID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, NewTransientError("get class", err)
	}

	subject, err := s.repo.Curriculum().GetSubject(ctx, nil, key.SubjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubjectNotFound
		}
		return nil, NewTransientError("get subject", err)
	}

	if !assessment.HasClassGrade(class.Grade) {
		return nil, NewPreconditionError(operation, ErrClassGradeNotInScope)
	}

	taught, err := s.repo.Curriculum().IsTaughtToClass(ctx, nil, subject.ID, class.ID)
	if err != nil {
		return nil, NewTransientError("check curriculum", err)
	}
	if !taught {
		return nil, NewPreconditionError(operation, ErrSubjectNotTaughtClass)
	}

	template := assessment.SubjectMarkFor(subject.ID)
	if template == nil {
		return nil, NewPreconditionError(operation, ErrSubjectNotGraded)
	}

	return &sheetScope{assessment: assessment, class: class, subject: subject, template: template}, nil
}

func (s *marksSheetService) loadRows(ctx context.Context, key SheetKey, scope *sheetScope) (*MarksSheetResponse, error) {
	roster, err := s.repo.Roster().ListStudents(ctx, nil, key.ClassID)
	if err != nil {
		return nil, NewTransientError("list roster", err)
	}

	stored, err := s.repo.MarksEntry().ListBySheet(ctx, nil, key.AssessmentID, key.ClassID, key.SubjectID)
	if err != nil {
		return nil, NewTransientError("list marks", err)
	}
	byStudent := make(map[uint]*models.MarksEntry, len(stored))
	for _, entry := range stored {
		byStudent[entry.StudentID] = entry
	}

	sheet := &MarksSheetResponse{
		AssessmentID:   scope.assessment.ID,
		AssessmentName: scope.assessment.Name,
		ClassID:        scope.class.ID,
		ClassName:      scope.class.DisplayName(),
		SubjectID:      scope.subject.ID,
		SubjectName:    scope.subject.Name,
		TotalMarks:     scope.template.TotalMarks,
		Breakdowns:     toBreakdownTemplates(scope.template.Breakdowns),
		Rows:           make([]MarksSheetRow, len(roster)),
	}
	for i, student := range roster {
		sheet.Rows[i] = sheetRow(student, sheet.Breakdowns, byStudent[student.StudentID])
	}

	return sheet, nil
}
