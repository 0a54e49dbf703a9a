package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/marks-service/internal/services"
	"github.com/SAP-F-2025/marks-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ExamTimetableHandler struct {
	BaseHandler
	timetableService services.ExamTimetableService
}

func NewExamTimetableHandler(timetableService services.ExamTimetableService, logger utils.Logger) *ExamTimetableHandler {
	return &ExamTimetableHandler{
		BaseHandler:      NewBaseHandler(logger),
		timetableService: timetableService,
	}
}

// GetExamTimetable returns the subjects and exam dates for one class grade
// @Summary Get exam timetable
// @Tags exam-timetable
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param class_grade query int true "Class grade"
// @Success 200 {object} services.TimetableResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessments/{id}/exam-timetable [get]
func (h *ExamTimetableHandler) GetExamTimetable(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	classGrade, ok := h.parseIntQuery(c, "class_grade")
	if !ok {
		return
	}
	if classGrade == nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Validation failed",
			services.ValidationErrors{{Field: "class_grade", Message: "is required", Rule: "required"}})
		return
	}

	timetable, err := h.timetableService.LoadTimetable(c.Request.Context(), id, *classGrade)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, timetable)
}

// SaveExamTimetable replaces the exam dates for one class grade
// @Summary Save exam timetable
// @Tags exam-timetable
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param timetable body services.SaveTimetableRequest true "Exam dates"
// @Success 200 {object} services.TimetableResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessments/{id}/exam-timetable [put]
func (h *ExamTimetableHandler) SaveExamTimetable(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidRequest(c, err)
		return
	}

	h.LogRequest(c, "Saving exam timetable", "assessment_id", id, "entries", len(req.Entries))

	timetable, err := h.timetableService.SaveTimetable(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, timetable)
}
