package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	Success(ctx, gin.H{"answer": 42})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp JSONResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Code != 0 || resp.Message != "success" {
		t.Errorf("envelope = code %d message %q, want 0 success", resp.Code, resp.Message)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok || data["answer"] != float64(42) {
		t.Errorf("data = %v, want answer 42", resp.Data)
	}
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	Error(ctx, http.StatusNotFound, 40440, "visit task not found")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var resp JSONResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Code != 40440 || resp.Message != "visit task not found" {
		t.Errorf("envelope = code %d message %q", resp.Code, resp.Message)
	}
	if resp.Data != nil {
		t.Errorf("error envelope carried data: %v", resp.Data)
	}
}
