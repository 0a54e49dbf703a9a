package models

import (
	"time"

	"gorm.io/datatypes"
)

type ExamTimetableEntry struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	AssessmentID uint           `json:"assessment_id" gorm:"not null;uniqueIndex:idx_exam_timetable_key"`
	ClassGrade   int            `json:"class_grade" gorm:"not null;uniqueIndex:idx_exam_timetable_key"`
	SubjectID    uint           `json:"subject_id" gorm:"not null;uniqueIndex:idx_exam_timetable_key"`
	ExamDate     datatypes.Date `json:"exam_date" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ExamTimetableEntry) TableName() string {
	return "exam_timetable_entries"
}
