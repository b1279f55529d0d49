package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tetex-tech/exam-service/internal/models"
	"github.com/tetex-tech/exam-service/internal/services"
	"github.com/tetex-tech/exam-service/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	packagingService services.PackagingService
}

// FinishExamBody is the JSON body of a finish request; the exam id comes
// from the path.
type FinishExamBody struct {
	Username string                    `json:"username"`
	Answers  models.AnswerMap          `json:"answers"`
	Metadata models.SubmissionMetadata `json:"metadata"`
}

func NewExamHandler(packagingService services.PackagingService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler:      NewBaseHandler(logger),
		packagingService: packagingService,
	}
}

// FinishExam grades a finished attempt and streams back the encrypted archive
// @Summary Finish exam
// @Description Grades the submitted answers and returns the encrypted result archive as a zip download
// @Tags exams
// @Accept json
// @Produce application/zip
// @Param exam_id path string true "Exam ID"
// @Param submission body FinishExamBody true "Frozen answer state and client metadata"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /exams/{exam_id}/finish [post]
func (h *ExamHandler) FinishExam(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	h.LogRequest(c, "Finishing exam", "exam_id", examID)

	var body FinishExamBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.packagingService.FinishExam(c.Request.Context(), services.FinishExamRequest{
		ExamID:   examID,
		Username: body.Username,
		Answers:  body.Answers,
		Metadata: body.Metadata,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	report := result.Report
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Header("X-Exam-Answered-Count", strconv.Itoa(report.AnsweredCount))
	c.Header("X-Exam-Total-Questions", strconv.Itoa(report.TotalQuestions))
	c.Data(http.StatusOK, "application/zip", result.Content)
}

func (h *ExamHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Exam not found", err)
	case errors.Is(err, services.ErrDocumentMalformed):
		h.RespondWithError(c, http.StatusBadGateway, "Exam documents are malformed", err)
	case errors.Is(err, services.ErrPackagingTimeout):
		h.RespondWithError(c, http.StatusGatewayTimeout, "Packaging timed out", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to package submission", err)
	}
}
