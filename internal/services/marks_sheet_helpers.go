package services

import "github.com/SAP-F-2025/marks-service/internal/models"

// AlignBreakdownMarks orders marks by the template, dropping components the
// template no longer has and defaulting missing ones to 0.
func AlignBreakdownMarks(template []BreakdownTemplate, marks []models.BreakdownMark) []models.BreakdownMark {
	if len(template) == 0 {
		return []models.BreakdownMark{}
	}

	byID := make(map[uint]float64, len(marks))
	for _, m := range marks {
		byID[m.BreakdownID] = m.MarksObtained
	}

	aligned := make([]models.BreakdownMark, len(template))
	for i, b := range template {
		aligned[i] = models.BreakdownMark{BreakdownID: b.ID, MarksObtained: byID[b.ID]}
	}
	return aligned
}

// EffectiveTotal is the sum of breakdown marks when the template has
// components, otherwise the directly entered total (which may be nil).
func EffectiveTotal(template []BreakdownTemplate, marksObtained *float64, breakdownMarks []models.BreakdownMark) *float64 {
	if len(template) == 0 {
		if marksObtained == nil {
			return nil
		}
		total := *marksObtained
		return &total
	}

	var total float64
	for _, m := range AlignBreakdownMarks(template, breakdownMarks) {
		total += m.MarksObtained
	}
	return &total
}

// MergeDrafts overlays pending edits keyed by student id onto a loaded sheet
// and returns the reconciled copy. Students not on the sheet are ignored.
func MergeDrafts(sheet *MarksSheetResponse, pending map[uint]MarksEntryRequest) *MarksSheetResponse {
	merged := *sheet
	merged.Rows = make([]MarksSheetRow, len(sheet.Rows))

	for i, row := range sheet.Rows {
		edit, ok := pending[row.StudentID]
		if !ok {
			row.BreakdownMarks = append([]models.BreakdownMark{}, row.BreakdownMarks...)
			merged.Rows[i] = row
			continue
		}

		row.Remarks = edit.Remarks
		row.BreakdownMarks = AlignBreakdownMarks(sheet.Breakdowns, edit.BreakdownMarks)
		row.MarksObtained = EffectiveTotal(sheet.Breakdowns, edit.MarksObtained, edit.BreakdownMarks)
		row.UpdatedAt = nil
		merged.Rows[i] = row
	}

	return &merged
}

// sheetRow builds a row from the roster and the stored entry, if any.
func sheetRow(student models.RosterStudent, template []BreakdownTemplate, stored *models.MarksEntry) MarksSheetRow {
	row := MarksSheetRow{
		StudentID:  student.StudentID,
		FullName:   student.FullName,
		RollNumber: student.RollNumber,
	}

	if stored == nil {
		row.BreakdownMarks = AlignBreakdownMarks(template, nil)
		row.MarksObtained = EffectiveTotal(template, nil, nil)
		return row
	}

	row.Remarks = stored.Remarks
	row.BreakdownMarks = AlignBreakdownMarks(template, stored.BreakdownMarks)
	row.MarksObtained = EffectiveTotal(template, stored.MarksObtained, stored.BreakdownMarks)
	updatedAt := stored.UpdatedAt
	row.UpdatedAt = &updatedAt
	return row
}

// toMarksEntry converts a reconciled row into the stored form.
func toMarksEntry(key SheetKey, row MarksSheetRow) *models.MarksEntry {
	return &models.MarksEntry{
		AssessmentID:   key.AssessmentID,
		ClassID:        key.ClassID,
		SubjectID:      key.SubjectID,
		StudentID:      row.StudentID,
		MarksObtained:  row.MarksObtained,
		Remarks:        row.Remarks,
		BreakdownMarks: row.BreakdownMarks,
	}
}

func breakdownMark(breakdownID uint, marks float64) models.BreakdownMark {
	return models.BreakdownMark{BreakdownID: breakdownID, MarksObtained: marks}
}
