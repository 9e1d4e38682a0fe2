package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"guidesearch-backend/models"
	"guidesearch-backend/repository"
	"guidesearch-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GuidelineHandler handles HTTP requests for the guideline corpus and its
// source documents
type GuidelineHandler struct {
	guidelineRepo *repository.GuidelineRepository
	documents     storage.DocumentStore
	maxFileSize   int64
}

// NewGuidelineHandler creates a new guideline handler
func NewGuidelineHandler(guidelineRepo *repository.GuidelineRepository, documents storage.DocumentStore) *GuidelineHandler {
	return &GuidelineHandler{
		guidelineRepo: guidelineRepo,
		documents:     documents,
		maxFileSize:   20 * 1024 * 1024, // 20MB
	}
}

// ListGuidelines handles GET /api/guidelines
func (h *GuidelineHandler) ListGuidelines(c *gin.Context) {
	guidelines, err := h.guidelineRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    guidelines,
	})
}

// GetGuideline handles GET /api/guidelines/:id
func (h *GuidelineHandler) GetGuideline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid guideline ID format",
			},
		})
		return
	}

	guideline, err := h.guidelineRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Guideline not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    guideline,
	})
}

// UploadDocument handles POST /api/documents/upload. The uploaded source
// document is stored and recorded with a pending embedding status; the
// ingest pipeline picks it up from there.
func (h *GuidelineHandler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	filename := strings.ToLower(fileHeader.Filename)
	if !strings.HasSuffix(filename, ".pdf") && !strings.HasSuffix(filename, ".txt") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "File type not allowed. Allowed types: PDF, TXT",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	guidelineID := uuid.New()

	storagePath, err := h.documents.Upload(c.Request.Context(), guidelineID, fileHeader.Filename, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to upload document: %v", err),
			},
		})
		return
	}

	guideline := &models.Guideline{
		ID:              guidelineID,
		Title:           fileHeader.Filename, // replaced by extracted metadata at ingest
		SourceFilename:  fileHeader.Filename,
		StoragePath:     storagePath,
		EmbeddingStatus: models.EmbeddingPending,
	}

	if err := h.guidelineRepo.Create(c.Request.Context(), guideline); err != nil {
		h.documents.Delete(c.Request.Context(), storagePath)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": fmt.Sprintf("Failed to save guideline record: %v", err),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":               guideline.ID,
			"source_filename":  guideline.SourceFilename,
			"embedding_status": guideline.EmbeddingStatus,
			"created_at":       guideline.CreatedAt,
		},
	})
}

// DownloadDocument handles GET /api/documents/:id
func (h *GuidelineHandler) DownloadDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid guideline ID format",
			},
		})
		return
	}

	guideline, err := h.guidelineRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Guideline not found",
			},
		})
		return
	}

	if guideline.StoragePath == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_DOCUMENT",
				"message": "Guideline has no stored source document",
			},
		})
		return
	}

	reader, err := h.documents.Download(c.Request.Context(), guideline.StoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": fmt.Sprintf("Failed to download document: %v", err),
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", guideline.SourceFilename))
	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", reader, nil)
}
