package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of domain events this service publishes
type EventType string

const (
	// Assessment catalog events
	EventAssessmentCreated EventType = "assessment.created"
	EventAssessmentUpdated EventType = "assessment.updated"
	EventAssessmentDeleted EventType = "assessment.deleted"

	// Marks events
	EventMarksSheetSaved EventType = "marks_sheet.saved"

	// Exam timetable events, consumed by the calendar
	EventExamTimetableSaved EventType = "exam_timetable.saved"
)

const (
	eventSource  = "marks-service"
	eventVersion = "1.0"
)

// Event is the envelope for every published domain event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh id and timestamp.
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Assessment event payloads

// AssessmentChangedEvent carries, on update, the dropped class grades whose
// exam dates were removed.
type AssessmentChangedEvent struct {
	AssessmentID        uint   `json:"assessment_id"`
	AcademicYear        string `json:"academic_year"`
	Name                string `json:"name"`
	AssessmentType      string `json:"assessment_type"`
	ClassGrades         []int  `json:"class_grades"`
	ScheduledDate       string `json:"scheduled_date,omitempty"`
	WithdrawnExamGrades []int  `json:"withdrawn_exam_grades,omitempty"`
}

// AssessmentDeletedEvent lists the class grades whose exam dates were withdrawn.
type AssessmentDeletedEvent struct {
	AssessmentID        uint  `json:"assessment_id"`
	WithdrawnExamGrades []int `json:"withdrawn_exam_grades,omitempty"`
}

// Marks event payloads

type MarksSheetSavedEvent struct {
	AssessmentID uint   `json:"assessment_id"`
	ClassID      uint   `json:"class_id"`
	SubjectID    uint   `json:"subject_id"`
	StudentIDs   []uint `json:"student_ids"`
}

// Exam timetable event payloads

type ExamDate struct {
	SubjectID   uint   `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	ExamDate    string `json:"exam_date"`
}

type ExamTimetableSavedEvent struct {
	AssessmentID   uint       `json:"assessment_id"`
	AssessmentName string     `json:"assessment_name"`
	ClassGrade     int        `json:"class_grade"`
	ClassName      string     `json:"class_name"`
	Entries        []ExamDate `json:"entries"`
}
