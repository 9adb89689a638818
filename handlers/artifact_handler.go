package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"contractguard-backend/pkg/logger"
	"contractguard-backend/storage"

	"github.com/gin-gonic/gin"
)

// LawIngester indexes one law PDF
type LawIngester interface {
	IngestFile(ctx context.Context, path string) (pages, chunks int, skipped bool, err error)
}

// ArtifactHandler handles law uploads and downloads of stored artifacts
type ArtifactHandler struct {
	ingester    LawIngester
	storage     storage.Storage
	lawsDir     string
	maxFileSize int64
}

// NewArtifactHandler creates a new artifact handler; uploads are written to lawsDir
func NewArtifactHandler(ingester LawIngester, store storage.Storage, lawsDir string) *ArtifactHandler {
	return &ArtifactHandler{
		ingester:    ingester,
		storage:     store,
		lawsDir:     lawsDir,
		maxFileSize: 50 * 1024 * 1024, // 50MB
	}
}

// UploadLaw handles POST /api/laws
func (h *ArtifactHandler) UploadLaw(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	if fileHeader.Size > h.maxFileSize {
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
		return
	}

	name := filepath.Base(fileHeader.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") || name == "." || name == string(filepath.Separator) {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only PDF law documents are accepted")
		return
	}

	if err := os.MkdirAll(h.lawsDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", err.Error())
		return
	}
	path := filepath.Join(h.lawsDir, name)
	ctx := c.Request.Context()

	// An existing file keeps its bytes; the ingester decides whether it still needs indexing.
	if _, err := os.Stat(path); err == nil {
		h.ingest(c, name, path, false)
		return
	}

	tmp, err := os.CreateTemp(h.lawsDir, ".upload-*.pdf")
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", err.Error())
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	if err := c.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		os.Remove(tmpPath)
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", fmt.Sprintf("Failed to save file: %v", err))
		return
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		logger.Error(ctx, "law upload rename failed", "source", path, "error", err)
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to save file")
		return
	}

	h.ingest(c, name, path, true)
}

// ingest indexes path and, when the upload created it, removes it again on failure
func (h *ArtifactHandler) ingest(c *gin.Context, name, path string, created bool) {
	ctx := c.Request.Context()
	pages, chunks, skipped, err := h.ingester.IngestFile(ctx, path)
	if err != nil {
		logger.Error(ctx, "law ingestion failed", "source", path, "error", err)
		if created {
			if rmErr := os.Remove(path); rmErr != nil {
				logger.Warn(ctx, "failed to remove law file", "source", path, "error", rmErr)
			}
		}
		respondError(c, http.StatusInternalServerError, "INGEST_FAILED", err.Error())
		return
	}

	status := http.StatusCreated
	if skipped {
		status = http.StatusOK
	}
	respondData(c, status, gin.H{
		"source":  name,
		"pages":   pages,
		"chunks":  chunks,
		"skipped": skipped,
	})
}

// Download handles GET /api/artifacts/*key
func (h *ArtifactHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		respondError(c, http.StatusBadRequest, "INVALID_KEY", "Artifact key is required")
		return
	}

	rc, err := h.storage.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Artifact not found")
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "artifact download failed", "key", key, "error", err)
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", err.Error())
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(key)))
	c.Header("Content-Type", storage.ContentType(key))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.Warn(c.Request.Context(), "artifact stream interrupted", "key", key, "error", err)
	}
}
