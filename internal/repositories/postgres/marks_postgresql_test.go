package postgres

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/marks-service/internal/models"
	"github.com/SAP-F-2025/marks-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarksEntryPostgreSQL_UpsertBatch(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewMarksEntryPostgreSQL(db)
	ctx := context.Background()

	first := 10.0
	entries := []*models.MarksEntry{
		{AssessmentID: 1, ClassID: 2, SubjectID: 3, StudentID: 1, MarksObtained: &first, Remarks: "ok",
			BreakdownMarks: []models.BreakdownMark{{BreakdownID: 7, MarksObtained: 10}}},
		{AssessmentID: 1, ClassID: 2, SubjectID: 3, StudentID: 2},
	}
	affected, err := repo.UpsertBatch(ctx, nil, entries)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	second := 12.5
	_, err = repo.UpsertBatch(ctx, nil, []*models.MarksEntry{
		{AssessmentID: 1, ClassID: 2, SubjectID: 3, StudentID: 1, MarksObtained: &second, Remarks: "better",
			BreakdownMarks: []models.BreakdownMark{{BreakdownID: 7, MarksObtained: 12.5}}},
	})
	require.NoError(t, err)

	stored, err := repo.ListBySheet(ctx, nil, 1, 2, 3)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, uint(1), stored[0].StudentID)
	require.NotNil(t, stored[0].MarksObtained)
	assert.Equal(t, 12.5, *stored[0].MarksObtained)
	assert.Equal(t, "better", stored[0].Remarks)
	assert.Equal(t, []models.BreakdownMark{{BreakdownID: 7, MarksObtained: 12.5}}, []models.BreakdownMark(stored[0].BreakdownMarks))
	assert.Nil(t, stored[1].MarksObtained, "untouched student keeps its row")

	other, err := repo.ListBySheet(ctx, nil, 1, 2, 4)
	require.NoError(t, err)
	assert.Empty(t, other)

	affected, err = repo.UpsertBatch(ctx, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)

	require.NoError(t, repo.DeleteByAssessment(ctx, nil, 1))
	stored, err = repo.ListBySheet(ctx, nil, 1, 2, 3)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
