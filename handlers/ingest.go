package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"attendance-api/models"
	"attendance-api/services"

	"github.com/gin-gonic/gin"
)

type IngestHandler struct {
	parserService  *services.ParserService
	fetcherService *services.FetcherService
	cacheService   *services.CacheService
}

func NewIngestHandler(fetcher *services.FetcherService, cache *services.CacheService) *IngestHandler {
	return &IngestHandler{
		parserService:  services.NewParserService(),
		fetcherService: fetcher,
		cacheService:   cache,
	}
}

type ParseRequest struct {
	Mode    string `json:"mode" binding:"required,oneof=html text"`
	Content string `json:"content" binding:"required"`
}

type FetchRequest struct {
	URL string `json:"url"`
}

// ParseSchedule runs the pipeline over an in-memory document: a raw HTML
// page or a copy-pasted tab-delimited block, selected by mode.
func (h *IngestHandler) ParseSchedule(c *gin.Context) {
	log.Println("IngestHandler - ParseSchedule")

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	var entries []models.ScheduleEntry
	switch req.Mode {
	case "html":
		var err error
		entries, err = h.parserService.ExtractFromHTML(req.Content)
		if err != nil {
			if errors.Is(err, services.ErrTableNotFound) {
				c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
					Error: "could not find schedule table",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to parse html",
				Message: err.Error(),
			})
			return
		}
	case "text":
		entries = h.parserService.ExtractFromText(req.Content)
	}

	result := h.parserService.Normalize(entries)

	c.JSON(http.StatusOK, gin.H{
		"entries": result.Entries,
		"venues":  result.Venues,
		"count":   len(result.Entries),
	})
}

// FetchSchedule retrieves the schedule from the registration system and
// parses it. With a URL in the body only that page is fetched; otherwise the
// search form is submitted and every result page is followed. Results are
// cached so repeated clicks in the dashboard do not hammer the registration
// system.
func (h *IngestHandler) FetchSchedule(c *gin.Context) {
	log.Println("IngestHandler - FetchSchedule")

	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	cacheKey := "fetch:all"
	if req.URL != "" {
		cacheKey = fmt.Sprintf("fetch:%s", req.URL)
	}

	if cached, found := h.cacheService.Get(cacheKey); found {
		result := cached.(models.ParseResult)
		c.JSON(http.StatusOK, gin.H{
			"entries": result.Entries,
			"venues":  result.Venues,
			"count":   len(result.Entries),
			"cached":  true,
		})
		return
	}

	var pages []string
	if req.URL != "" {
		page, err := h.fetcherService.FetchPage(c.Request.Context(), req.URL)
		if err != nil {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "failed to fetch schedule page",
				Message: err.Error(),
			})
			return
		}
		pages = []string{page}
	} else {
		var err error
		pages, err = h.fetcherService.FetchAllPages(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "failed to fetch schedule pages",
				Message: err.Error(),
			})
			return
		}
	}

	var entries []models.ScheduleEntry
	tableFound := false
	for _, page := range pages {
		pageEntries, err := h.parserService.ExtractFromHTML(page)
		if err != nil {
			// Pages without the schedule table (search form, pagination
			// stubs) are expected in a multi-page crawl.
			continue
		}
		tableFound = true
		entries = append(entries, pageEntries...)
	}

	if !tableFound {
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: "could not find schedule table",
		})
		return
	}

	result := h.parserService.Normalize(entries)
	h.cacheService.Set(cacheKey, result, 0)

	c.JSON(http.StatusOK, gin.H{
		"entries": result.Entries,
		"venues":  result.Venues,
		"count":   len(result.Entries),
		"cached":  false,
	})
}
