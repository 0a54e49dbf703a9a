package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/marks-service/internal/models"
)

// MarksValidator checks marks decompositions and entered marks. It has no
// dependencies and never touches storage.
type MarksValidator struct{}

func NewMarksValidator() *MarksValidator {
	return &MarksValidator{}
}

// ValidateSubjectMarks enforces that every subject row has a positive total and
// that its breakdown components never allocate more than that total.
func (v *MarksValidator) ValidateSubjectMarks(subjectMarks []models.AssessmentSubjectMark) ValidationErrors {
	var errs ValidationErrors

	if len(subjectMarks) == 0 {
		errs.Add("subject_marks", "must contain at least one subject row", "min", nil)
		return errs
	}

	seenSubjects := make(map[uint]bool)
	for i := range subjectMarks {
		sm := &subjectMarks[i]
		prefix := fmt.Sprintf("subject_marks[%d]", i)

		if sm.SubjectID != nil {
			if seenSubjects[*sm.SubjectID] {
				errs.Add(prefix+".subject_id", "is used by more than one subject row", "unique", *sm.SubjectID)
			}
			seenSubjects[*sm.SubjectID] = true
		}

		if sm.TotalMarks <= 0 {
			errs.Add(prefix+".total_marks", "must be greater than 0", "gt", sm.TotalMarks)
			continue
		}

		titles := make(map[string]bool)
		for j, b := range sm.Breakdowns {
			field := fmt.Sprintf("%s.breakdowns[%d]", prefix, j)
			title := strings.ToLower(strings.TrimSpace(b.Title))
			if title == "" {
				errs.Add(field+".title", "is required", "required", nil)
			} else if titles[title] {
				errs.Add(field+".title", "duplicates another breakdown title", "unique", b.Title)
			}
			titles[title] = true
			if b.Marks <= 0 {
				errs.Add(field+".marks", "must be greater than 0", "gt", b.Marks)
			}
		}

		if sum := sm.BreakdownSum(); sum > sm.TotalMarks {
			errs.Add(prefix+".breakdowns",
				fmt.Sprintf("allocate %g marks which exceeds the total of %g", sum, sm.TotalMarks),
				"breakdown_sum", sum)
		}
	}

	return errs
}

// ValidateMarksEntry checks one student's entered marks against the subject
// template. With strict set, marks above a component maximum (or above the
// subject total when there are no components) are rejected.
func (v *MarksValidator) ValidateMarksEntry(index int, template *models.AssessmentSubjectMark, entry *models.MarksEntry, strict bool) ValidationErrors {
	var errs ValidationErrors
	prefix := fmt.Sprintf("entries[%d]", index)

	if len(template.Breakdowns) == 0 {
		if entry.MarksObtained == nil {
			return nil
		}
		marks := *entry.MarksObtained
		if marks < 0 {
			errs.Add(prefix+".marks_obtained", "must not be negative", "gte", marks)
		} else if strict && marks > template.TotalMarks {
			errs.Add(prefix+".marks_obtained", fmt.Sprintf("must be at most %g", template.TotalMarks), "max", marks)
		}
		return errs
	}

	maxima := make(map[uint]float64, len(template.Breakdowns))
	for _, b := range template.Breakdowns {
		maxima[b.ID] = b.Marks
	}

	seen := make(map[uint]bool)
	for j, bm := range entry.BreakdownMarks {
		field := fmt.Sprintf("%s.breakdown_marks[%d]", prefix, j)
		max, ok := maxima[bm.BreakdownID]
		if !ok {
			errs.Add(field+".breakdown_id", "does not belong to this subject", "breakdown", bm.BreakdownID)
			continue
		}
		if seen[bm.BreakdownID] {
			errs.Add(field+".breakdown_id", "is listed more than once", "unique", bm.BreakdownID)
		}
		seen[bm.BreakdownID] = true
		if bm.MarksObtained < 0 {
			errs.Add(field+".marks_obtained", "must not be negative", "gte", bm.MarksObtained)
		} else if strict && bm.MarksObtained > max {
			errs.Add(field+".marks_obtained", fmt.Sprintf("must be at most %g", max), "max", bm.MarksObtained)
		}
	}

	return errs
}
