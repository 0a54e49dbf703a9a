package models

import (
	"time"

	"gorm.io/datatypes"
)

// MarksEntry is one student's stored marks for an (assessment, class, subject).
type MarksEntry struct {
	ID             uint                               `json:"id" gorm:"primaryKey"`
	AssessmentID   uint                               `json:"assessment_id" gorm:"not null;uniqueIndex:idx_marks_entry_key"`
	ClassID        uint                               `json:"class_id" gorm:"not null;uniqueIndex:idx_marks_entry_key"`
	SubjectID      uint                               `json:"subject_id" gorm:"not null;uniqueIndex:idx_marks_entry_key"`
	StudentID      uint                               `json:"student_id" gorm:"not null;uniqueIndex:idx_marks_entry_key"`
	MarksObtained  *float64                           `json:"marks_obtained"`
	Remarks        string                             `json:"remarks" gorm:"type:text"`
	BreakdownMarks datatypes.JSONSlice[BreakdownMark] `json:"breakdown_marks"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MarksEntry) TableName() string {
	return "marks_entries"
}

type BreakdownMark struct {
	BreakdownID   uint    `json:"breakdown_id"`
	MarksObtained float64 `json:"marks_obtained"`
}
