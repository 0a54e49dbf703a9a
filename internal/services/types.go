package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/marks-service/internal/models"
)

// ===== SERVICE INTERFACES =====

type AssessmentService interface {
	Create(ctx context.Context, req *CreateAssessmentRequest) (*AssessmentResponse, error)
	Update(ctx context.Context, id uint, req *UpdateAssessmentRequest) (*AssessmentResponse, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*AssessmentResponse, error)
	ListByYear(ctx context.Context, academicYear string, classGrade *int) ([]*AssessmentResponse, error)
}

type MarksSheetService interface {
	LoadSheet(ctx context.Context, key SheetKey) (*MarksSheetResponse, error)
	SaveSheet(ctx context.Context, req *SaveMarksSheetRequest) (*MarksSheetResponse, error)
	ExportSheet(ctx context.Context, key SheetKey) (*SheetExport, error)
	ImportSheet(ctx context.Context, key SheetKey, file io.Reader) (*MarksSheetResponse, error)
}

type ExamTimetableService interface {
	LoadTimetable(ctx context.Context, assessmentID uint, classGrade int) (*TimetableResponse, error)
	SaveTimetable(ctx context.Context, assessmentID uint, req *SaveTimetableRequest) (*TimetableResponse, error)
}

// ===== ASSESSMENT DTOs =====

// AssessmentDraft carries every mutable field of an assessment. Totals and
// breakdowns are checked by the marks validator rather than struct tags.
type AssessmentDraft struct {
	AcademicYear   string               `json:"academic_year" validate:"required,academic_year"`
	Name           string               `json:"name" validate:"required,max=200"`
	AssessmentType string               `json:"assessment_type" validate:"required,assessment_type"`
	ClassGrades    []int                `json:"class_grades" validate:"required,min=1"`
	ScheduledDate  string               `json:"scheduled_date" validate:"omitempty,calendar_date"`
	SubjectMarks   []SubjectMarkRequest `json:"subject_marks" validate:"required,dive"`
}

type SubjectMarkRequest struct {
	ID         uint               `json:"id,omitempty"`
	SubjectID  *uint              `json:"subject_id,omitempty"`
	TotalMarks float64            `json:"total_marks"`
	Breakdowns []BreakdownRequest `json:"breakdowns" validate:"dive"`
}

type BreakdownRequest struct {
	ID    uint    `json:"id,omitempty"`
	Title string  `json:"title" validate:"max=100"`
	Marks float64 `json:"marks"`
}

type CreateAssessmentRequest struct {
	AssessmentDraft
	// ExamTimetable is saved after the assessment commits; failure only adds a warning.
	ExamTimetable *SaveTimetableRequest `json:"exam_timetable,omitempty" validate:"-"`
}

type UpdateAssessmentRequest struct {
	AssessmentDraft
}

type AssessmentResponse struct {
	ID             uint                  `json:"id"`
	AcademicYear   string                `json:"academic_year"`
	Name           string                `json:"name"`
	AssessmentType models.AssessmentType `json:"assessment_type"`
	ClassGrades    []int                 `json:"class_grades"`
	ScheduledDate  *string               `json:"scheduled_date"`
	SubjectMarks   []SubjectMarkResponse `json:"subject_marks"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Warnings       []string              `json:"warnings,omitempty"`
}

type SubjectMarkResponse struct {
	ID         uint                `json:"id"`
	SubjectID  *uint               `json:"subject_id"`
	TotalMarks float64             `json:"total_marks"`
	Breakdowns []BreakdownTemplate `json:"breakdowns"`
}

// BreakdownTemplate is a breakdown component as shown to clients.
type BreakdownTemplate struct {
	ID    uint    `json:"id"`
	Title string  `json:"title"`
	Marks float64 `json:"marks"`
}

// ===== MARKS SHEET DTOs =====

// SheetKey identifies one marks sheet.
type SheetKey struct {
	AssessmentID uint `json:"assessment_id" form:"assessment_id" validate:"required"`
	ClassID      uint `json:"class_id" form:"class_id" validate:"required"`
	SubjectID    uint `json:"subject_id" form:"subject_id" validate:"required"`
}

type SaveMarksSheetRequest struct {
	AssessmentID uint                `json:"assessment_id" validate:"required"`
	ClassID      uint                `json:"class_id" validate:"required"`
	SubjectID    uint                `json:"subject_id" validate:"required"`
	Entries      []MarksEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

func (r *SaveMarksSheetRequest) Key() SheetKey {
	return SheetKey{AssessmentID: r.AssessmentID, ClassID: r.ClassID, SubjectID: r.SubjectID}
}

// MarksEntryRequest is one student's pending edit. MarksObtained is ignored
// when the subject has breakdown components.
type MarksEntryRequest struct {
	StudentID      uint                   `json:"student_id" validate:"required"`
	MarksObtained  *float64               `json:"marks_obtained"`
	Remarks        string                 `json:"remarks" validate:"max=500"`
	BreakdownMarks []models.BreakdownMark `json:"breakdown_marks"`
}

type MarksSheetResponse struct {
	AssessmentID   uint                `json:"assessment_id"`
	AssessmentName string              `json:"assessment_name"`
	ClassID        uint                `json:"class_id"`
	ClassName      string              `json:"class_name"`
	SubjectID      uint                `json:"subject_id"`
	SubjectName    string              `json:"subject_name"`
	TotalMarks     float64             `json:"total_marks"`
	Breakdowns     []BreakdownTemplate `json:"breakdowns"`
	Rows           []MarksSheetRow     `json:"rows"`
}

type MarksSheetRow struct {
	StudentID      uint                   `json:"student_id"`
	FullName       string                 `json:"full_name"`
	RollNumber     int                    `json:"roll_number"`
	MarksObtained  *float64               `json:"marks_obtained"`
	Remarks        string                 `json:"remarks"`
	BreakdownMarks []models.BreakdownMark `json:"breakdown_marks"`
	UpdatedAt      *time.Time             `json:"updated_at,omitempty"`
}

// SheetExport is a rendered marks sheet workbook.
type SheetExport struct {
	FileName string
	Data     []byte
}

// ===== EXAM TIMETABLE DTOs =====

type SaveTimetableRequest struct {
	ClassGrade *int                    `json:"class_grade" validate:"required"`
	Entries    []TimetableEntryRequest `json:"entries" validate:"dive"`
}

type TimetableEntryRequest struct {
	SubjectID uint   `json:"subject_id" validate:"required"`
	ExamDate  string `json:"exam_date"`
}

type TimetableResponse struct {
	AssessmentID uint                     `json:"assessment_id"`
	ClassGrade   int                      `json:"class_grade"`
	ClassName    string                   `json:"class_name"`
	Subjects     []SubjectResponse        `json:"subjects"`
	Entries      []TimetableEntryResponse `json:"entries"`
}

type SubjectResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type TimetableEntryResponse struct {
	SubjectID   uint   `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	ExamDate    string `json:"exam_date"`
}
