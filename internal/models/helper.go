package models

import (
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

// AllModels returns every table owned or read by the service, for migrations.
func AllModels() []interface{} {
	return []interface{}{
		&Assessment{},
		&AssessmentSubjectMark{},
		&AssessmentBreakdown{},
		&MarksEntry{},
		&ExamTimetableEntry{},
		&Class{},
		&Subject{},
		&ClassSubject{},
		&Student{},
		&Enrollment{},
	}
}
