package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"attendance-api/models"
	"attendance-api/services"

	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	minioService  *services.MinIOService
	parserService *services.ParserService
	cacheService  *services.CacheService
}

func NewImportHandler(minio *services.MinIOService, cache *services.CacheService) *ImportHandler {
	return &ImportHandler{
		minioService:  minio,
		parserService: services.NewParserService(),
		cacheService:  cache,
	}
}

type ImportRequest struct {
	Session string                 `json:"session" binding:"required"`
	Name    string                 `json:"name" binding:"required"`
	Entries []models.ScheduleEntry `json:"entries" binding:"required,min=1"`
}

// ImportSchedule stores a selected entry list as an import artifact. Entries
// arrive post-selection from the dashboard; they are re-deduplicated before
// upload so a sloppy client cannot store duplicate meetings.
func (h *ImportHandler) ImportSchedule(c *gin.Context) {
	log.Println("ImportHandler - ImportSchedule")

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	session := sanitizePathSegment(req.Session)
	name := sanitizePathSegment(strings.TrimSuffix(req.Name, ".json"))
	if session == "" || name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "session and name must not be empty",
		})
		return
	}

	result := h.parserService.Normalize(req.Entries)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to serialize import",
			Message: err.Error(),
		})
		return
	}

	objectPath := fmt.Sprintf("%s/%s.json", session, name)
	err = h.minioService.UploadFile(c.Request.Context(), objectPath, bytes.NewReader(data), int64(len(data)), "application/json")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to store import",
			Message: err.Error(),
		})
		return
	}

	h.cacheService.Delete(fmt.Sprintf("imports:%s", session))
	h.cacheService.Delete("sessions")

	log.Printf("Import stored: %s (%d entries)", objectPath, len(result.Entries))
	c.JSON(http.StatusCreated, gin.H{
		"path":    objectPath,
		"count":   len(result.Entries),
		"venues":  result.Venues,
		"dropped": len(req.Entries) - len(result.Entries),
	})
}

// GetSessions returns the academic sessions with stored imports.
func (h *ImportHandler) GetSessions(c *gin.Context) {
	log.Println("ImportHandler - GetSessions")
	cacheKey := "sessions"

	if cached, found := h.cacheService.Get(cacheKey); found {
		c.JSON(http.StatusOK, gin.H{
			"data":   cached,
			"cached": true,
		})
		return
	}

	names, err := h.minioService.ListSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list sessions",
			Message: err.Error(),
		})
		return
	}

	sessions := make([]models.Session, 0, len(names))
	for _, name := range names {
		sessions = append(sessions, models.Session{Name: name})
	}

	h.cacheService.Set(cacheKey, sessions, 0)

	c.JSON(http.StatusOK, gin.H{
		"data":   sessions,
		"cached": false,
	})
}

// GetImports returns the import artifacts stored for a session.
func (h *ImportHandler) GetImports(c *gin.Context) {
	log.Println("ImportHandler - GetImports")
	session := c.Param("session")
	if session == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "session parameter is required",
		})
		return
	}

	cacheKey := fmt.Sprintf("imports:%s", session)
	if cached, found := h.cacheService.Get(cacheKey); found {
		c.JSON(http.StatusOK, gin.H{
			"data":   cached,
			"cached": true,
		})
		return
	}

	files, err := h.minioService.ListImports(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list imports",
			Message: err.Error(),
		})
		return
	}

	h.cacheService.Set(cacheKey, files, 0)

	c.JSON(http.StatusOK, gin.H{
		"data":   files,
		"cached": false,
	})
}

// GetPresignedDownloadURL returns a presigned URL for one import artifact.
func (h *ImportHandler) GetPresignedDownloadURL(c *gin.Context) {
	log.Println("ImportHandler - GetPresignedDownloadURL")
	session := c.Param("session")
	fileName := c.Param("filename")

	if session == "" || fileName == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "session and filename parameters are required",
		})
		return
	}

	objectPath := fmt.Sprintf("%s/%s", session, fileName)

	exists, err := h.minioService.ObjectExists(c.Request.Context(), objectPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to check file existence",
			Message: err.Error(),
		})
		return
	}

	if !exists {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "file not found",
		})
		return
	}

	urlResponse, err := h.minioService.GetPresignedURL(c.Request.Context(), objectPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to generate download url",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, urlResponse)
}

// InvalidateCache drops every cached listing and fetch result.
func (h *ImportHandler) InvalidateCache(c *gin.Context) {
	h.cacheService.Flush()
	c.JSON(http.StatusOK, gin.H{
		"message": "cache invalidated successfully",
	})
}

// sanitizePathSegment makes a value safe to embed in an object path.
func sanitizePathSegment(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "/", "-")
	value = strings.ReplaceAll(value, "\\", "-")
	return value
}
