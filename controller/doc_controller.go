package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kusumaprabha/UltraShip/models"
	"github.com/kusumaprabha/UltraShip/services"
)

// MaxUploadBytes caps uploaded documents at 10 MB.
const MaxUploadBytes = 10 << 20

// DocController handles the HTTP requests for the document QA API. It
// depends on the DocumentService for the actual business logic.
type DocController struct {
	docService services.DocumentService
}

// NewDocController creates a DocController. Called from main.go to inject
// the service dependency.
func NewDocController(service services.DocumentService) *DocController {
	return &DocController{docService: service}
}

// Upload is the Gin handler for POST /api/v1/documents. It accepts a
// multipart "file" field, indexes the document, and returns its id.
func (c *DocController) Upload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field 'file': " + err.Error()})
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 10 MB upload limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "could not open upload: " + err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload: " + err.Error()})
		return
	}
	if len(data) > MaxUploadBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 10 MB upload limit"})
		return
	}

	doc, err := c.docService.Upload(ctx.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnsupportedFormat):
			ctx.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrExtractionFailure):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to index document: " + err.Error()})
		}
		return
	}

	ctx.JSON(http.StatusCreated, models.UploadResponse{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		WordCount:  doc.WordCount,
		ChunkCount: doc.ChunkCount,
		Message:    "document indexed",
	})
}

// Ask is the Gin handler for POST /api/v1/ask. A guardrail abstention is a
// 200 with Abstained set; only broken calls surface as errors.
func (c *DocController) Ask(ctx *gin.Context) {
	var req models.AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.DocumentID == "" || req.Question == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "document_id and question are required"})
		return
	}

	result, err := c.docService.Ask(ctx.Request.Context(), req.DocumentID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDocumentNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrRetrievalUnavailable):
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer question: " + err.Error()})
		}
		return
	}

	ctx.JSON(http.StatusOK, models.AskResponse{
		Answer:     result.Answer,
		Confidence: result.Confidence,
		Breakdown:  result.Breakdown,
		Sources:    result.Sources,
		Abstained:  result.Abstained,
		Reason:     result.Reason,
	})
}

// ExtractFields is the Gin handler for POST /api/v1/extract.
func (c *DocController) ExtractFields(ctx *gin.Context) {
	var req models.ExtractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.DocumentID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
		return
	}

	fields, err := c.docService.Extract(ctx.Request.Context(), req.DocumentID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract fields: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, fields)
}

// ListDocuments is the Gin handler for GET /api/v1/documents.
func (c *DocController) ListDocuments(ctx *gin.Context) {
	docs := c.docService.List()
	ctx.JSON(http.StatusOK, models.ListDocumentsResponse{
		Count:     len(docs),
		Documents: docs,
	})
}

// DeleteDocument is the Gin handler for DELETE /api/v1/documents/:id.
func (c *DocController) DeleteDocument(ctx *gin.Context) {
	docID := ctx.Param("id")
	if err := c.docService.Delete(ctx.Request.Context(), docID); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "document deleted", "document_id": docID})
}

// Health is the Gin handler for GET /health.
func (c *DocController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.docService.Stats())
}
