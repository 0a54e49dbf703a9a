package models

import (
	"time"

	"gorm.io/datatypes"
)

type AssessmentType string

// Two formative and two summative slots per half-year.
const (
	AssessmentFA1 AssessmentType = "FA1"
	AssessmentFA2 AssessmentType = "FA2"
	AssessmentSA1 AssessmentType = "SA1"
	AssessmentSA2 AssessmentType = "SA2"
	AssessmentFA3 AssessmentType = "FA3"
	AssessmentFA4 AssessmentType = "FA4"
	AssessmentSA3 AssessmentType = "SA3"
	AssessmentSA4 AssessmentType = "SA4"
)

// AssessmentTypes lists the recognized categories in their canonical order.
// The first entry is the default category.
var AssessmentTypes = []AssessmentType{
	AssessmentFA1,
	AssessmentFA2,
	AssessmentSA1,
	AssessmentSA2,
	AssessmentFA3,
	AssessmentFA4,
	AssessmentSA3,
	AssessmentSA4,
}

func (t AssessmentType) IsValid() bool {
	for _, known := range AssessmentTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Assessment struct {
	ID             uint                     `json:"id" gorm:"primaryKey"`
	AcademicYear   string                   `json:"academic_year" gorm:"not null;size:9;index"`
	Name           string                   `json:"name" gorm:"not null;size:200"`
	AssessmentType AssessmentType           `json:"assessment_type" gorm:"not null;size:10"`
	ClassGrades    datatypes.JSONSlice[int] `json:"class_grades" gorm:"not null"`
	ScheduledDate  *datatypes.Date          `json:"scheduled_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	SubjectMarks []AssessmentSubjectMark `json:"subject_marks" gorm:"foreignKey:AssessmentID"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// HasClassGrade reports whether the assessment applies to the given grade.
func (a *Assessment) HasClassGrade(grade int) bool {
	for _, g := range a.ClassGrades {
		if g == grade {
			return true
		}
	}
	return false
}

// SubjectMarkFor returns the subject row graded for subjectID. A row bound to
// the subject wins over an unbound row; nil means the assessment does not grade it.
func (a *Assessment) SubjectMarkFor(subjectID uint) *AssessmentSubjectMark {
	var fallback *AssessmentSubjectMark
	for i := range a.SubjectMarks {
		sm := &a.SubjectMarks[i]
		if sm.SubjectID != nil && *sm.SubjectID == subjectID {
			return sm
		}
		if sm.SubjectID == nil && fallback == nil {
			fallback = sm
		}
	}
	return fallback
}

type AssessmentSubjectMark struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	AssessmentID uint    `json:"assessment_id" gorm:"not null;index"`
	SubjectID    *uint   `json:"subject_id"`
	TotalMarks   float64 `json:"total_marks" gorm:"not null"`
	Position     int     `json:"-" gorm:"not null;default:0"`

	Breakdowns []AssessmentBreakdown `json:"breakdowns" gorm:"foreignKey:SubjectMarkID"`
}

func (AssessmentSubjectMark) TableName() string {
	return "assessment_subject_marks"
}

// BreakdownSum is the number of marks allocated to named components.
func (sm *AssessmentSubjectMark) BreakdownSum() float64 {
	var sum float64
	for _, b := range sm.Breakdowns {
		sum += b.Marks
	}
	return sum
}

type AssessmentBreakdown struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	SubjectMarkID uint    `json:"-" gorm:"not null;index"`
	Title         string  `json:"title" gorm:"not null;size:100"`
	Marks         float64 `json:"marks" gorm:"not null"`
	Position      int     `json:"-" gorm:"not null;default:0"`
}

func (AssessmentBreakdown) TableName() string {
	return "assessment_breakdowns"
}
