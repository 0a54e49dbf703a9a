package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	marksSheetName      = "Marks"
	colStudentID        = "Student ID"
	colRollNumber       = "Roll No"
	colStudentName      = "Student Name"
	colMarksObtained    = "Marks Obtained"
	colRemarks          = "Remarks"
	maxImportedFileSize = 5 << 20
)

// ExportSheet renders the loaded sheet as a workbook with one row per student
// and one column per breakdown component.
func (s *marksSheetService) ExportSheet(ctx context.Context, key SheetKey) (*SheetExport, error) {
	sheet, err := s.LoadSheet(ctx, key)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(marksSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{colStudentID, colRollNumber, colStudentName}
	for _, b := range sheet.Breakdowns {
		headers = append(headers, fmt.Sprintf("%s (%g)", b.Title, b.Marks))
	}
	headers = append(headers, fmt.Sprintf("%s (%g)", colMarksObtained, sheet.TotalMarks), colRemarks)

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(marksSheetName, cell, header)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(marksSheetName, "A1", last, style)
	}

	for r, row := range sheet.Rows {
		values := []interface{}{row.StudentID, row.RollNumber, row.FullName}
		for _, bm := range row.BreakdownMarks {
			values = append(values, bm.MarksObtained)
		}
		if row.MarksObtained != nil {
			values = append(values, *row.MarksObtained)
		} else {
			values = append(values, "")
		}
		values = append(values, row.Remarks)

		for c, value := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(marksSheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return &SheetExport{
		FileName: fmt.Sprintf("marks-sheet-%d-%d-%d.xlsx", key.AssessmentID, key.ClassID, key.SubjectID),
		Data:     buf.Bytes(),
	}, nil
}

// ImportSheet reads a workbook laid out like ExportSheet's and saves it.
// Rows without a student id are skipped.
func (s *marksSheetService) ImportSheet(ctx context.Context, key SheetKey, file io.Reader) (*MarksSheetResponse, error) {
	sheet, err := s.LoadSheet(ctx, key)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImportedFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxImportedFileSize {
		return nil, singleValidationError("file", "must be at most 5 MB", "max", len(data))
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, singleValidationError("file", "is not a readable Excel workbook", "xlsx", nil)
	}
	defer f.Close()

	rows, err := f.GetRows(importSheetName(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, singleValidationError("file", "must have a header row and at least one student row", "min", len(rows))
	}

	entries, err := parseImportedRows(sheet, rows)
	if err != nil {
		return nil, err
	}

	return s.SaveSheet(ctx, &SaveMarksSheetRequest{
		AssessmentID: key.AssessmentID,
		ClassID:      key.ClassID,
		SubjectID:    key.SubjectID,
		Entries:      entries,
	})
}

// importSheetName prefers the sheet ExportSheet writes, then the first one.
func importSheetName(f *excelize.File) string {
	sheets := f.GetSheetList()
	for _, name := range sheets {
		if name == marksSheetName {
			return name
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

// importColumns maps header positions to what they hold.
type importColumns struct {
	studentID  int
	marks      int
	remarks    int
	breakdowns map[int]uint
}

// headerLabel strips the " (max)" suffix ExportSheet appends.
func headerLabel(header string) string {
	label := strings.TrimSpace(header)
	if i := strings.LastIndex(label, " ("); i > 0 && strings.HasSuffix(label, ")") {
		label = label[:i]
	}
	return strings.ToLower(strings.TrimSpace(label))
}

func mapImportColumns(sheet *MarksSheetResponse, header []string) (*importColumns, error) {
	cols := &importColumns{studentID: -1, marks: -1, remarks: -1, breakdowns: map[int]uint{}}

	titles := make(map[string]uint, len(sheet.Breakdowns))
	for _, b := range sheet.Breakdowns {
		titles[strings.ToLower(b.Title)] = b.ID
	}

	for i, h := range header {
		label := headerLabel(h)
		switch label {
		case strings.ToLower(colStudentID):
			cols.studentID = i
		case strings.ToLower(colMarksObtained):
			cols.marks = i
		case strings.ToLower(colRemarks):
			cols.remarks = i
		default:
			if id, ok := titles[label]; ok {
				cols.breakdowns[i] = id
			}
		}
	}

	if cols.studentID < 0 {
		return nil, singleValidationError("file", fmt.Sprintf("is missing the %q column", colStudentID), "required", nil)
	}
	for _, b := range sheet.Breakdowns {
		found := false
		for _, id := range cols.breakdowns {
			found = found || id == b.ID
		}
		if !found {
			return nil, singleValidationError("file", fmt.Sprintf("is missing the %q column", b.Title), "required", nil)
		}
	}
	if len(sheet.Breakdowns) == 0 && cols.marks < 0 {
		return nil, singleValidationError("file", fmt.Sprintf("is missing the %q column", colMarksObtained), "required", nil)
	}
	return cols, nil
}

func parseImportedRows(sheet *MarksSheetResponse, rows [][]string) ([]MarksEntryRequest, error) {
	cols, err := mapImportColumns(sheet, rows[0])
	if err != nil {
		return nil, err
	}

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var errs ValidationErrors
	entries := make([]MarksEntryRequest, 0, len(rows)-1)
	for r, row := range rows[1:] {
		rowField := fmt.Sprintf("rows[%d]", r+2)

		studentValue := cell(row, cols.studentID)
		if studentValue == "" {
			continue
		}
		studentID, err := strconv.ParseUint(studentValue, 10, 64)
		if err != nil {
			errs.Add(rowField+".student_id", "must be a whole number", "numeric", studentValue)
			continue
		}

		entry := MarksEntryRequest{StudentID: uint(studentID), Remarks: cell(row, cols.remarks)}
		filled := entry.Remarks != ""

		if len(cols.breakdowns) > 0 {
			for col, breakdownID := range cols.breakdowns {
				marks, ok, err := parseMarks(cell(row, col))
				if err != nil {
					errs.Add(fmt.Sprintf("%s.%s", rowField, headerLabel(rows[0][col])), "must be a number", "numeric", cell(row, col))
					continue
				}
				if ok {
					entry.BreakdownMarks = append(entry.BreakdownMarks, breakdownMark(breakdownID, marks))
					filled = true
				}
			}
		} else {
			marks, ok, err := parseMarks(cell(row, cols.marks))
			if err != nil {
				errs.Add(rowField+".marks_obtained", "must be a number", "numeric", cell(row, cols.marks))
				continue
			}
			if ok {
				entry.MarksObtained = &marks
				filled = true
			}
		}

		// A row left blank keeps whatever is stored for the student.
		if !filled {
			continue
		}
		entries = append(entries, entry)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if len(entries) == 0 {
		return nil, singleValidationError("file", "has no student rows with marks", "min", 0)
	}
	return entries, nil
}

// parseMarks reads a numeric cell; ok is false for an empty cell.
func parseMarks(value string) (marks float64, ok bool, err error) {
	if value == "" {
		return 0, false, nil
	}
	marks, err = strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, err
	}
	return marks, true, nil
}
