package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/marks-service/internal/services"
	"github.com/SAP-F-2025/marks-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MarksSheetHandler struct {
	BaseHandler
	marksSheetService services.MarksSheetService
}

func NewMarksSheetHandler(marksSheetService services.MarksSheetService, logger utils.Logger) *MarksSheetHandler {
	return &MarksSheetHandler{
		BaseHandler:       NewBaseHandler(logger),
		marksSheetService: marksSheetService,
	}
}

// GetMarksSheet loads the marks sheet for one assessment, class and subject
// @Summary Get marks sheet
// @Tags marks-sheet
// @Produce json
// @Param assessment_id query uint true "Assessment ID"
// @Param class_id query uint true "Class ID"
// @Param subject_id query uint true "Subject ID"
// @Success 200 {object} services.MarksSheetResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /reports/marks-sheet [get]
func (h *MarksSheetHandler) GetMarksSheet(c *gin.Context) {
	var key services.SheetKey
	if err := c.ShouldBindQuery(&key); err != nil {
		h.respondInvalidRequest(c, err)
		return
	}

	sheet, err := h.marksSheetService.LoadSheet(c.Request.Context(), key)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// SaveMarksSheet saves pending marks for the listed students
// @Summary Save marks sheet
// @Tags marks-sheet
// @Accept json
// @Produce json
// @Param sheet body services.SaveMarksSheetRequest true "Marks entries"
// @Success 200 {object} services.MarksSheetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /reports/marks-sheet [put]
func (h *MarksSheetHandler) SaveMarksSheet(c *gin.Context) {
	var req services.SaveMarksSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidRequest(c, err)
		return
	}

	h.LogRequest(c, "Saving marks sheet",
		"assessment_id", req.AssessmentID, "class_id", req.ClassID, "subject_id", req.SubjectID, "entries", len(req.Entries))

	sheet, err := h.marksSheetService.SaveSheet(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// ExportMarksSheet downloads the marks sheet as an Excel workbook
// @Summary Export marks sheet
// @Tags marks-sheet
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param assessment_id query uint true "Assessment ID"
// @Param class_id query uint true "Class ID"
// @Param subject_id query uint true "Subject ID"
// @Router /reports/marks-sheet/export [get]
func (h *MarksSheetHandler) ExportMarksSheet(c *gin.Context) {
	var key services.SheetKey
	if err := c.ShouldBindQuery(&key); err != nil {
		h.respondInvalidRequest(c, err)
		return
	}

	export, err := h.marksSheetService.ExportSheet(c.Request.Context(), key)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	c.Data(http.StatusOK, xlsxContentType, export.Data)
}

// ImportMarksSheet saves marks from an uploaded Excel workbook. Rows whose
// marks and remarks cells are all blank leave the stored marks untouched.
// @Summary Import marks sheet
// @Tags marks-sheet
// @Accept multipart/form-data
// @Produce json
// @Param assessment_id formData uint true "Assessment ID"
// @Param class_id formData uint true "Class ID"
// @Param subject_id formData uint true "Subject ID"
// @Param file formData file true "Workbook"
// @Success 200 {object} services.MarksSheetResponse
// @Failure 400 {object} ErrorResponse
// @Router /reports/marks-sheet/import [post]
func (h *MarksSheetHandler) ImportMarksSheet(c *gin.Context) {
	var key services.SheetKey
	if err := c.ShouldBind(&key); err != nil {
		h.respondInvalidRequest(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeInvalidRequest, "File is required", err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeInvalidRequest, "Failed to open file", err.Error())
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing marks sheet", "file_name", fileHeader.Filename, "file_size", fileHeader.Size)

	sheet, err := h.marksSheetService.ImportSheet(c.Request.Context(), key, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sheet)
}
