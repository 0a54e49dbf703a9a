package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/marks-service/internal/events"
	"github.com/SAP-F-2025/marks-service/internal/models"
)

// createSheetAssessment creates a grade 5 assessment and returns the sheet key
// for 5A maths plus the Theory and Practical breakdown ids.
func createSheetAssessment(t *testing.T, env *testEnv, subjectMarks ...SubjectMarkRequest) (SheetKey, *AssessmentResponse) {
	t.Helper()
	if len(subjectMarks) == 0 {
		subjectMarks = []SubjectMarkRequest{theoryPractical(nil)}
	}
	resp, err := env.services.Assessment().Create(context.Background(), &CreateAssessmentRequest{
		AssessmentDraft: draft("Half yearly", []int{5}, subjectMarks...),
	})
	require.NoError(t, err)
	return SheetKey{AssessmentID: resp.ID, ClassID: env.school.Grade5A.ID, SubjectID: env.school.Maths.ID}, resp
}

func TestMarksSheetService_LoadSheetSynthesizesRows(t *testing.T) {
	env := newTestEnv(t)
	key, assessment := createSheetAssessment(t, env)

	sheet, err := env.services.MarksSheet().LoadSheet(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, "Half yearly", sheet.AssessmentName)
	assert.Equal(t, "Grade 5 A", sheet.ClassName)
	assert.Equal(t, "Mathematics", sheet.SubjectName)
	assert.Equal(t, 100.0, sheet.TotalMarks)
	assert.Equal(t, assessment.SubjectMarks[0].Breakdowns, sheet.Breakdowns)

	require.Len(t, sheet.Rows, 3)
	for i, row := range sheet.Rows {
		assert.Equal(t, env.school.RollOrder[i], row.StudentID)
		assert.Equal(t, i+1, row.RollNumber)
		require.Len(t, row.BreakdownMarks, 2)
		assert.Zero(t, row.BreakdownMarks[0].MarksObtained)
		assert.Zero(t, row.BreakdownMarks[1].MarksObtained)
		require.NotNil(t, row.MarksObtained)
		assert.Zero(t, *row.MarksObtained)
		assert.Nil(t, row.UpdatedAt)
	}
}

func TestMarksSheetService_SaveAndLoadRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key, assessment := createSheetAssessment(t, env)
	theory := assessment.SubjectMarks[0].Breakdowns[0].ID
	practical := assessment.SubjectMarks[0].Breakdowns[1].ID
	student := env.school.Students[0].ID

	saved, err := env.services.MarksSheet().SaveSheet(ctx, &SaveMarksSheetRequest{
		AssessmentID: key.AssessmentID,
		ClassID:      key.ClassID,
		SubjectID:    key.SubjectID,
		Entries: []MarksEntryRequest{{
			StudentID:     student,
			MarksObtained: floatPtr(5),
			Remarks:       "Good work",
			BreakdownMarks: []models.BreakdownMark{
				{BreakdownID: practical, MarksObtained: 18},
				{BreakdownID: theory, MarksObtained: 70},
			},
		}},
	})
	require.NoError(t, err)

	loaded, err := env.services.MarksSheet().LoadSheet(ctx, key)
	require.NoError(t, err)

	for _, sheet := range []*MarksSheetResponse{saved, loaded} {
		var row *MarksSheetRow
		for i := range sheet.Rows {
			if sheet.Rows[i].StudentID == student {
				row = &sheet.Rows[i]
			}
		}
		require.NotNil(t, row)
		require.NotNil(t, row.MarksObtained)
		assert.Equal(t, 88.0, *row.MarksObtained)
		assert.Equal(t, "Good work", row.Remarks)
		assert.Equal(t, []models.BreakdownMark{
			{BreakdownID: theory, MarksObtained: 70},
			{BreakdownID: practical, MarksObtained: 18},
		}, row.BreakdownMarks)
	}

	published := env.publisher.GetPublishedEvents()
	last := published[len(published)-1]
	assert.Equal(t, events.EventMarksSheetSaved, last.Type)
	assert.Equal(t, []uint{student}, last.Data.(events.MarksSheetSavedEvent).StudentIDs)
}

func TestMarksSheetService_DirectTotalWithoutBreakdowns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key, _ := createSheetAssessment(t, env, SubjectMarkRequest{TotalMarks: 50})

	_, err := env.services.MarksSheet().SaveSheet(ctx, &SaveMarksSheetRequest{
		AssessmentID: key.AssessmentID,
		ClassID:      key.ClassID,
		SubjectID:    key.SubjectID,
		Entries: []MarksEntryRequest{
			{StudentID: env.school.Students[0].ID, MarksObtained: floatPtr(42.5)},
			{StudentID: env.school.Students[1].ID},
		},
	})
	require.NoError(t, err)

	sheet, err := env.services.MarksSheet().LoadSheet(ctx, key)
	require.NoError(t, err)

	totals := map[uint]*float64{}
	for _, row := range sheet.Rows {
		assert.Empty(t, row.BreakdownMarks)
		totals[row.StudentID] = row.MarksObtained
	}
	require.NotNil(t, totals[env.school.Students[0].ID])
	assert.Equal(t, 42.5, *totals[env.school.Students[0].ID])
	assert.Nil(t, totals[env.school.Students[1].ID])
	assert.Nil(t, totals[env.school.Students[2].ID])
}

func TestMarksSheetService_PerStudentLastWriteWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key, _ := createSheetAssessment(t, env, SubjectMarkRequest{TotalMarks: 50})
	first, second := env.school.Students[0].ID, env.school.Students[1].ID

	save := func(studentID uint, marks float64) {
		_, err := env.services.MarksSheet().SaveSheet(ctx, &SaveMarksSheetRequest{
			AssessmentID: key.AssessmentID,
			ClassID:      key.ClassID,
			SubjectID:    key.SubjectID,
			Entries:      []MarksEntryRequest{{StudentID: studentID, MarksObtained: floatPtr(marks)}},
		})
		require.NoError(t, err)
	}
	save(first, 10)
	save(second, 20)
	save(first, 30)

	sheet, err := env.services.MarksSheet().LoadSheet(ctx, key)
	require.NoError(t, err)
	totals := map[uint]float64{}
	for _, row := range sheet.Rows {
		if row.MarksObtained != nil {
			totals[row.StudentID] = *row.MarksObtained
		}
	}
	assert.Equal(t, map[uint]float64{first: 30, second: 20}, totals)

	var count int64
	require.NoError(t, env.db.Model(&models.MarksEntry{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestMarksSheetService_SaveValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key, assessment := createSheetAssessment(t, env)
	theory := assessment.SubjectMarks[0].Breakdowns[0].ID
	student := env.school.Students[0].ID

	tests := []struct {
		name    string
		entries []MarksEntryRequest
		field   string
	}{
		{
			name: "breakdown above its maximum",
			entries: []MarksEntryRequest{{StudentID: student, BreakdownMarks: []models.BreakdownMark{
				{BreakdownID: theory, MarksObtained: 81},
			}}},
			field: "entries[0].breakdown_marks[0].marks_obtained",
		},
		{
			name: "negative breakdown marks",
			entries: []MarksEntryRequest{{StudentID: student, BreakdownMarks: []models.BreakdownMark{
				{BreakdownID: theory, MarksObtained: -1},
			}}},
			field: "entries[0].breakdown_marks[0].marks_obtained",
		},
		{
			name: "unknown breakdown",
			entries: []MarksEntryRequest{{StudentID: student, BreakdownMarks: []models.BreakdownMark{
				{BreakdownID: 9999, MarksObtained: 1},
			}}},
			field: "entries[0].breakdown_marks[0].breakdown_id",
		},
		{
			name:    "student not on the roster",
			entries: []MarksEntryRequest{{StudentID: 9999}},
			field:   "entries[0].student_id",
		},
		{
			name:    "student listed twice",
			entries: []MarksEntryRequest{{StudentID: student}, {StudentID: student}},
			field:   "entries[1].student_id",
		},
		{
			name:    "no entries",
			entries: nil,
			field:   "entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.services.MarksSheet().SaveSheet(ctx, &SaveMarksSheetRequest{
				AssessmentID: key.AssessmentID,
				ClassID:      key.ClassID,
				SubjectID:    key.SubjectID,
				Entries:      tt.entries,
			})
			require.Error(t, err)
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.MarksEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMarksSheetService_LenientBreakdownMaximum(t *testing.T) {
	env := newTestEnv(t, withConfig(ServiceConfig{StrictBreakdownMax: false}))
	ctx := context.Background()
	key, assessment := createSheetAssessment(t, env)
	theory := assessment.SubjectMarks[0].Breakdowns[0].ID

	sheet, err := env.services.MarksSheet().SaveSheet(ctx, &SaveMarksSheetRequest{
		AssessmentID: key.AssessmentID,
		ClassID:      key.ClassID,
		SubjectID:    key.SubjectID,
		Entries: []MarksEntryRequest{{StudentID: env.school.Students[0].ID, BreakdownMarks: []models.BreakdownMark{
			{BreakdownID: theory, MarksObtained: 85},
		}}},
	})
	require.NoError(t, err)
	for _, row := range sheet.Rows {
		if row.StudentID == env.school.Students[0].ID {
			assert.Equal(t, 85.0, *row.MarksObtained)
		}
	}
}

func TestMarksSheetService_Resolution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key, _ := createSheetAssessment(t, env, SubjectMarkRequest{SubjectID: uintPtr(env.school.Maths.ID), TotalMarks: 50})

	scienceUnbound := key
	scienceUnbound.SubjectID = env.school.Science.ID
	_, err := env.services.MarksSheet().LoadSheet(ctx, scienceUnbound)
	assert.True(t, IsPrecondition(err))
	assert.ErrorIs(t, err, ErrSubjectNotGraded)

	english := key
	english.SubjectID = env.school.English.ID
	_, err = env.services.MarksSheet().LoadSheet(ctx, english)
	assert.ErrorIs(t, err, ErrSubjectNotTaughtClass)

	otherGrade := key
	otherGrade.ClassID = env.school.Grade6A.ID
	_, err = env.services.MarksSheet().LoadSheet(ctx, otherGrade)
	assert.True(t, IsPrecondition(err))
	assert.ErrorIs(t, err, ErrClassGradeNotInScope)

	missing := []struct {
		key SheetKey
		err error
	}{
		{SheetKey{AssessmentID: 999, ClassID: key.ClassID, SubjectID: key.SubjectID}, ErrAssessmentNotFound},
		{SheetKey{AssessmentID: key.AssessmentID, ClassID: 999, SubjectID: key.SubjectID}, ErrClassNotFound},
		{SheetKey{AssessmentID: key.AssessmentID, ClassID: key.ClassID, SubjectID: 999}, ErrSubjectNotFound},
	}
	for _, m := range missing {
		_, err := env.services.MarksSheet().LoadSheet(ctx, m.key)
		assert.ErrorIs(t, err, m.err)
		assert.True(t, IsNotFound(err))
	}

	_, err = env.services.MarksSheet().LoadSheet(ctx, SheetKey{AssessmentID: key.AssessmentID})
	assert.True(t, IsValidation(err))
}

func TestMarksSheetService_AlignsStoredMarksToTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key, assessment := createSheetAssessment(t, env)
	theory := assessment.SubjectMarks[0].Breakdowns[0].ID
	student := env.school.Students[2].ID

	require.NoError(t, env.db.Create(&models.MarksEntry{
		AssessmentID:  key.AssessmentID,
		ClassID:       key.ClassID,
		SubjectID:     key.SubjectID,
		StudentID:     student,
		MarksObtained: floatPtr(99),
		BreakdownMarks: []models.BreakdownMark{
			{BreakdownID: 4242, MarksObtained: 10},
			{BreakdownID: theory, MarksObtained: 60},
		},
	}).Error)

	sheet, err := env.services.MarksSheet().LoadSheet(ctx, key)
	require.NoError(t, err)
	for _, row := range sheet.Rows {
		if row.StudentID != student {
			continue
		}
		require.Len(t, row.BreakdownMarks, 2)
		assert.Equal(t, theory, row.BreakdownMarks[0].BreakdownID)
		assert.Equal(t, 60.0, row.BreakdownMarks[0].MarksObtained)
		assert.Zero(t, row.BreakdownMarks[1].MarksObtained)
		assert.Equal(t, 60.0, *row.MarksObtained)
		assert.NotNil(t, row.UpdatedAt)
	}
}

func TestMarksSheetService_ExportImport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key, assessment := createSheetAssessment(t, env)
	theory := assessment.SubjectMarks[0].Breakdowns[0].ID

	_, err := env.services.MarksSheet().SaveSheet(ctx, &SaveMarksSheetRequest{
		AssessmentID: key.AssessmentID,
		ClassID:      key.ClassID,
		SubjectID:    key.SubjectID,
		Entries: []MarksEntryRequest{
			{StudentID: env.school.Students[1].ID, Remarks: "absent for practical",
				BreakdownMarks: []models.BreakdownMark{{BreakdownID: theory, MarksObtained: 64}}},
			{StudentID: env.school.Students[0].ID,
				BreakdownMarks: []models.BreakdownMark{{BreakdownID: theory, MarksObtained: 40}}},
		},
	})
	require.NoError(t, err)

	export, err := env.services.MarksSheet().ExportSheet(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, export.FileName, ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(export.Data))
	require.NoError(t, err)
	rows, err := f.GetRows(marksSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Student ID", "Roll No", "Student Name", "Theory (80)", "Practical (20)", "Marks Obtained (100)", "Remarks"}, rows[0])
	assert.Equal(t, "Ben Okafor", rows[1][2])
	assert.Equal(t, "64", rows[1][3])
	assert.Equal(t, "absent for practical", rows[1][6])

	// A practical mark is filled in offline and the workbook uploaded.
	require.NoError(t, f.SetCellValue(marksSheetName, "E2", 15))
	require.NoError(t, f.SetCellValue(marksSheetName, "D3", 50))
	// The last student's row is cleared and must not wipe the stored marks.
	require.NoError(t, f.SetCellValue(marksSheetName, "D4", ""))
	require.NoError(t, f.SetCellValue(marksSheetName, "E4", ""))
	require.NoError(t, f.SetCellValue(marksSheetName, "F4", ""))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sheet, err := env.services.MarksSheet().ImportSheet(ctx, key, buf)
	require.NoError(t, err)
	totals := map[uint]float64{}
	for _, row := range sheet.Rows {
		totals[row.StudentID] = *row.MarksObtained
	}
	assert.Equal(t, 79.0, totals[env.school.Students[1].ID])
	assert.Equal(t, 50.0, totals[env.school.Students[2].ID])
	assert.Equal(t, 40.0, totals[env.school.Students[0].ID])
}

func TestMarksSheetService_ImportRejectsBadWorkbooks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key, _ := createSheetAssessment(t, env)

	_, err := env.services.MarksSheet().ImportSheet(ctx, key, bytes.NewReader([]byte("not a workbook")))
	assert.True(t, IsValidation(err))

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Student ID"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Theory"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", env.school.Students[0].ID))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = env.services.MarksSheet().ImportSheet(ctx, key, buf)
	require.Error(t, err)
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs[0].Message, "Practical")
}
