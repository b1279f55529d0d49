package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tetex-tech/exam-service/internal/services"
	"github.com/tetex-tech/exam-service/internal/utils"
)

// maxArchiveBytes bounds uploaded archives; real result archives are well
// under a megabyte.
const maxArchiveBytes = 10 << 20

type ViewerHandler struct {
	BaseHandler
	viewerService services.ViewerService
	exportService services.ExportService
}

func NewViewerHandler(viewerService services.ViewerService, exportService services.ExportService, logger utils.Logger) *ViewerHandler {
	return &ViewerHandler{
		BaseHandler:   NewBaseHandler(logger),
		viewerService: viewerService,
		exportService: exportService,
	}
}

// DecodeArchive decrypts an uploaded result archive for review
// @Summary Decode result archive
// @Description Decrypts an uploaded result archive and returns the submission with per-question review rows
// @Tags viewer
// @Accept multipart/form-data
// @Produce json
// @Param archive formData file true "Result archive (zip)"
// @Success 200 {object} SuccessResponse{data=services.DecodedSubmission}
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /viewer/decode [post]
func (h *ViewerHandler) DecodeArchive(c *gin.Context) {
	h.LogRequest(c, "Decoding result archive")

	archiveBytes, ok := h.readArchiveUpload(c)
	if !ok {
		return
	}

	decoded, err := h.viewerService.Decode(c.Request.Context(), archiveBytes)
	if err != nil {
		// One opaque message for every decode failure.
		h.RespondWithError(c, http.StatusUnprocessableEntity, "Failed to decrypt result archive", err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Archive decoded", decoded,
		"exam_id", decoded.Payload.ExamID, "username", decoded.Payload.Username)
}

// ExportArchive decodes an uploaded archive and returns it as an xlsx workbook
// @Summary Export result archive
// @Description Decrypts an uploaded result archive and returns an xlsx workbook with summary and answer sheets
// @Tags viewer
// @Accept multipart/form-data
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param archive formData file true "Result archive (zip)"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /viewer/export [post]
func (h *ViewerHandler) ExportArchive(c *gin.Context) {
	h.LogRequest(c, "Exporting result archive")

	archiveBytes, ok := h.readArchiveUpload(c)
	if !ok {
		return
	}

	decoded, err := h.viewerService.Decode(c.Request.Context(), archiveBytes)
	if err != nil {
		h.RespondWithError(c, http.StatusUnprocessableEntity, "Failed to decrypt result archive", err)
		return
	}

	workbook, err := h.exportService.ExportWorkbook(c.Request.Context(), decoded)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to export workbook", err)
		return
	}

	filename := fmt.Sprintf("exam_result_%s_%s.xlsx", decoded.Payload.ExamID, decoded.Payload.Username)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

// readArchiveUpload pulls the uploaded archive out of the multipart form.
func (h *ViewerHandler) readArchiveUpload(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile("archive")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing archive upload",
			Details: "expected multipart field 'archive'",
		})
		return nil, false
	}
	if fileHeader.Size > maxArchiveBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Archive too large",
		})
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Could not read archive upload", err)
		return nil, false
	}
	defer file.Close()

	archiveBytes, err := io.ReadAll(io.LimitReader(file, maxArchiveBytes))
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Could not read archive upload", err)
		return nil, false
	}
	return archiveBytes, true
}
