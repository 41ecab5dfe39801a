package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnmolGhill/ArogyaAI/middleware"
	"github.com/AnmolGhill/ArogyaAI/models"
	"github.com/AnmolGhill/ArogyaAI/services"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

// RecordController handles the medical record endpoints. It depends on the
// RecordService for chunking, indexing and answering.
type RecordController struct {
	recordService services.RecordService
}

func NewRecordController(service services.RecordService) *RecordController {
	return &RecordController{
		recordService: service,
	}
}

// UploadRecord is the handler for POST /api/records (multipart field "file").
func (c *RecordController) UploadRecord(ctx *gin.Context) {
	if !c.recordService.Enabled() {
		c.respondRecordError(ctx, services.ErrRecordsDisabled)
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, services.MaxRecordSize+multipartOverhead)
	header, err := ctx.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.respondRecordError(ctx, services.ErrFileTooLarge)
			return
		}
		respondError(ctx, http.StatusBadRequest, CodeInvalidFile, "A file must be uploaded in the 'file' field")
		return
	}
	if header.Size > services.MaxRecordSize {
		c.respondRecordError(ctx, services.ErrFileTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(ctx, http.StatusBadRequest, CodeInvalidFile, "Could not read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(ctx, http.StatusBadRequest, CodeInvalidFile, "Could not read uploaded file")
		return
	}

	record, err := c.recordService.Upload(ctx.Request.Context(), middleware.CurrentUserID(ctx), header.Filename, data)
	if err != nil {
		c.respondRecordError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, record)
}

// ListRecords is the handler for GET /api/records.
func (c *RecordController) ListRecords(ctx *gin.Context) {
	resp, err := c.recordService.List(ctx.Request.Context(), middleware.CurrentUserID(ctx))
	if err != nil {
		c.respondRecordError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteRecord is the handler for DELETE /api/records/:id.
func (c *RecordController) DeleteRecord(ctx *gin.Context) {
	if err := c.recordService.Delete(ctx.Request.Context(), middleware.CurrentUserID(ctx), ctx.Param("id")); err != nil {
		c.respondRecordError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// AskRecords is the handler for POST /api/records/ask.
func (c *RecordController) AskRecords(ctx *gin.Context) {
	var req models.AskRecordsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.respondRecordError(ctx, services.ErrEmptyQuestion)
		return
	}

	resp, err := c.recordService.Ask(ctx.Request.Context(), middleware.CurrentUserID(ctx), req.Question, req.Language)
	if err != nil {
		c.respondRecordError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (c *RecordController) respondRecordError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRecordsDisabled):
		respondError(ctx, http.StatusServiceUnavailable, CodeRecordsDisabled, "Medical records are not configured on this server")
	case errors.Is(err, services.ErrFileTooLarge):
		respondError(ctx, http.StatusRequestEntityTooLarge, CodeFileTooLarge, "File exceeds the 10 MiB limit")
	case errors.Is(err, services.ErrUnsupportedFile):
		respondError(ctx, http.StatusBadRequest, CodeInvalidFile, "Only .pdf, .txt and .md files are supported")
	case errors.Is(err, services.ErrNoRecordText):
		respondError(ctx, http.StatusBadRequest, CodeInvalidFile, "No text could be extracted from the file")
	case errors.Is(err, services.ErrRecordNotFound):
		respondError(ctx, http.StatusNotFound, CodeRecordNotFound, "Record not found")
	case errors.Is(err, services.ErrEmptyQuestion):
		respondError(ctx, http.StatusBadRequest, CodeEmptyQuestion, "No question provided")
	case errors.Is(err, services.ErrNoRecords):
		respondError(ctx, http.StatusNotFound, CodeNoRecords, "No medical records found for this user")
	case errors.Is(err, services.ErrQuotaExceeded):
		respondError(ctx, http.StatusTooManyRequests, CodeQuotaExceeded, quotaMessage)
	case errors.Is(err, services.ErrAnswerUnavailable):
		respondError(ctx, http.StatusInternalServerError, CodeAnswerUnavailable, "Failed to generate an answer")
	default:
		respondInternal(ctx)
	}
}
