package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"attendance-api/services"

	"github.com/gin-gonic/gin"
)

func newParseRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cache := services.NewCacheService(time.Minute, 2*time.Minute)
	h := NewIngestHandler(nil, cache)

	router := gin.New()
	router.POST("/api/v1/schedule/parse", h.ParseSchedule)
	return router
}

func doParse(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/parse", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestParseSchedule_Text(t *testing.T) {
	router := newParseRouter()

	payload := map[string]string{
		"mode":    "text",
		"content": "CSC 4303\t1\tDATABASE SYSTEMS\t3\nM-W\t8.30 - 9.50 AM\tICT LR 1\tDr. Aziz",
	}
	body, _ := json.Marshal(payload)

	w := doParse(t, router, string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Count  int      `json:"count"`
		Venues []string `json:"venues"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	if len(resp.Venues) != 1 || resp.Venues[0] != "ICT LR 1" {
		t.Fatalf("venues = %v", resp.Venues)
	}
}

func TestParseSchedule_TextNothingRecognized(t *testing.T) {
	router := newParseRouter()

	w := doParse(t, router, `{"mode":"text","content":"nothing useful here"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for empty result", w.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp.Count != 0 {
		t.Fatalf("count = %d, want 0", resp.Count)
	}
}

func TestParseSchedule_HTMLTableNotFound(t *testing.T) {
	router := newParseRouter()

	w := doParse(t, router, `{"mode":"html","content":"<html><body>no tables</body></html>"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	if !strings.Contains(w.Body.String(), "could not find schedule table") {
		t.Fatalf("error message missing: %s", w.Body.String())
	}
}

func TestParseSchedule_BadRequest(t *testing.T) {
	router := newParseRouter()

	// mode outside the html/text enum
	w := doParse(t, router, `{"mode":"xlsx","content":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
