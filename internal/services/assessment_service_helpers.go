package services

import (
	"sort"
	"strings"

	"github.com/SAP-F-2025/marks-service/internal/events"
	"github.com/SAP-F-2025/marks-service/internal/models"
	"gorm.io/datatypes"
)

// normalizeAssessmentType upper-cases the type and, when lenient, coerces an
// unrecognized non-empty value to the first category.
func normalizeAssessmentType(value string, lenient bool) string {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" || models.AssessmentType(normalized).IsValid() {
		return normalized
	}
	if lenient {
		return string(models.AssessmentTypes[0])
	}
	return normalized
}

// normalizeClassGrades de-duplicates and sorts the grades.
func normalizeClassGrades(grades []int) []int {
	seen := make(map[int]bool, len(grades))
	result := make([]int, 0, len(grades))
	for _, g := range grades {
		if !seen[g] {
			seen[g] = true
			result = append(result, g)
		}
	}
	sort.Ints(result)
	return result
}

// decompositionIDs maps the subject row and breakdown ids an assessment owns.
// Breakdown ids map to the subject row that holds them.
type decompositionIDs struct {
	subjectMarks map[uint]bool
	breakdowns   map[uint]uint
}

func ownedIDs(assessment *models.Assessment) decompositionIDs {
	ids := decompositionIDs{subjectMarks: map[uint]bool{}, breakdowns: map[uint]uint{}}
	if assessment == nil {
		return ids
	}
	for _, sm := range assessment.SubjectMarks {
		ids.subjectMarks[sm.ID] = true
		for _, b := range sm.Breakdowns {
			ids.breakdowns[b.ID] = sm.ID
		}
	}
	return ids
}

// claimSubjectMark reports whether id may be reused, consuming it.
func (d decompositionIDs) claimSubjectMark(id uint) bool {
	if id == 0 || !d.subjectMarks[id] {
		return false
	}
	delete(d.subjectMarks, id)
	return true
}

// claimBreakdown reports whether id may be reused under subjectMarkID,
// consuming it. A breakdown never moves to another subject row.
func (d decompositionIDs) claimBreakdown(id, subjectMarkID uint) bool {
	owner, ok := d.breakdowns[id]
	if id == 0 || subjectMarkID == 0 || !ok || owner != subjectMarkID {
		return false
	}
	delete(d.breakdowns, id)
	return true
}

// buildAssessment maps a draft onto a model. An id echoed by the client is
// kept the first time it appears, and only when owned reports it as belonging
// to the assessment being replaced (breakdowns under their original row).
// Every other id is reset so the row is inserted fresh. owned is consumed.
func buildAssessment(draft *AssessmentDraft, owned decompositionIDs) (*models.Assessment, error) {
	assessment := &models.Assessment{
		AcademicYear:   strings.TrimSpace(draft.AcademicYear),
		Name:           strings.TrimSpace(draft.Name),
		AssessmentType: models.AssessmentType(draft.AssessmentType),
		ClassGrades:    datatypes.JSONSlice[int](normalizeClassGrades(draft.ClassGrades)),
	}

	if draft.ScheduledDate != "" {
		date, err := models.ParseDate(draft.ScheduledDate)
		if err != nil {
			return nil, singleValidationError("scheduled_date", "must be a date in the form YYYY-MM-DD", "calendar_date", draft.ScheduledDate)
		}
		assessment.ScheduledDate = &date
	}

	assessment.SubjectMarks = make([]models.AssessmentSubjectMark, len(draft.SubjectMarks))
	for i, smReq := range draft.SubjectMarks {
		sm := models.AssessmentSubjectMark{
			SubjectID:  smReq.SubjectID,
			TotalMarks: smReq.TotalMarks,
			Position:   i,
			Breakdowns: make([]models.AssessmentBreakdown, len(smReq.Breakdowns)),
		}
		if owned.claimSubjectMark(smReq.ID) {
			sm.ID = smReq.ID
		}
		for j, bReq := range smReq.Breakdowns {
			b := models.AssessmentBreakdown{
				Title:    strings.TrimSpace(bReq.Title),
				Marks:    bReq.Marks,
				Position: j,
			}
			if owned.claimBreakdown(bReq.ID, sm.ID) {
				b.ID = bReq.ID
			}
			sm.Breakdowns[j] = b
		}
		assessment.SubjectMarks[i] = sm
	}

	return assessment, nil
}

func toBreakdownTemplates(breakdowns []models.AssessmentBreakdown) []BreakdownTemplate {
	templates := make([]BreakdownTemplate, len(breakdowns))
	for i, b := range breakdowns {
		templates[i] = BreakdownTemplate{ID: b.ID, Title: b.Title, Marks: b.Marks}
	}
	return templates
}

func toAssessmentResponse(assessment *models.Assessment) *AssessmentResponse {
	resp := &AssessmentResponse{
		ID:             assessment.ID,
		AcademicYear:   assessment.AcademicYear,
		Name:           assessment.Name,
		AssessmentType: assessment.AssessmentType,
		ClassGrades:    append([]int{}, assessment.ClassGrades...),
		SubjectMarks:   make([]SubjectMarkResponse, len(assessment.SubjectMarks)),
		CreatedAt:      assessment.CreatedAt,
		UpdatedAt:      assessment.UpdatedAt,
	}
	if assessment.ScheduledDate != nil {
		date := models.FormatDate(*assessment.ScheduledDate)
		resp.ScheduledDate = &date
	}
	for i, sm := range assessment.SubjectMarks {
		resp.SubjectMarks[i] = SubjectMarkResponse{
			ID:         sm.ID,
			SubjectID:  sm.SubjectID,
			TotalMarks: sm.TotalMarks,
			Breakdowns: toBreakdownTemplates(sm.Breakdowns),
		}
	}
	return resp
}

func assessmentChangedEvent(resp *AssessmentResponse) events.AssessmentChangedEvent {
	data := events.AssessmentChangedEvent{
		AssessmentID:   resp.ID,
		AcademicYear:   resp.AcademicYear,
		Name:           resp.Name,
		AssessmentType: string(resp.AssessmentType),
		ClassGrades:    resp.ClassGrades,
	}
	if resp.ScheduledDate != nil {
		data.ScheduledDate = *resp.ScheduledDate
	}
	return data
}

// hasExamDates reports whether any timetable entry carries a date.
func hasExamDates(req *SaveTimetableRequest) bool {
	if req == nil {
		return false
	}
	for _, entry := range req.Entries {
		if strings.TrimSpace(entry.ExamDate) != "" {
			return true
		}
	}
	return false
}

// timetableGrades returns the distinct class grades of entries in ascending order.
func timetableGrades(entries []*models.ExamTimetableEntry) []int {
	grades := make([]int, 0, len(entries))
	for _, entry := range entries {
		grades = append(grades, entry.ClassGrade)
	}
	return normalizeClassGrades(grades)
}
