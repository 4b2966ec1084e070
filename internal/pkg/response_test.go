package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/advocates/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testInput is used to generate real validator.ValidationErrors.
type testInput struct {
	Keyword string `form:"keyword" validate:"required"`
	SortBy  string `json:"sortBy" validate:"required"`
}

type testQuery struct {
	Keyword string `form:"keyword" binding:"max=5"`
	SortBy  string `form:"sortBy"`
}

func newResponseTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func makeValidationErrors(t *testing.T) validator.ValidationErrors {
	t.Helper()
	err := validator.New().Struct(testInput{})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validator.ValidationErrors, got %T", err)
	}
	return ve
}

func TestSuccess(t *testing.T) {
	c, w := newResponseTestContext("/")

	Success(c, map[string]any{"data": []int{1, 2}})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["success"] != true {
		t.Errorf("expected success=true, got %v", resp["success"])
	}
	if _, ok := resp["error"]; ok {
		t.Errorf("success envelope must not carry an error field: %s", w.Body.String())
	}
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", resp["data"])
	}
	if got, ok := data["data"].([]any); !ok || len(got) != 2 {
		t.Errorf("expected nested data list of 2, got %v", data["data"])
	}
}

func TestError_AppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", domain.NewAppError(domain.CodeNotFound, "advocate not found", nil), http.StatusNotFound, "advocate not found"},
		{"conflict", domain.NewAppError(domain.CodeAlreadyExists, "already seeded", nil), http.StatusConflict, "already seeded"},
		{"validation", domain.NewAppError(domain.CodeValidation, "bad keyword", nil), http.StatusBadRequest, "bad keyword"},
		{"internal hides cause", domain.NewAppError(domain.CodeInternal, "Could not fetch advocates", errors.New(`ERROR: column "x" does not exist (SQLSTATE 42703)`)), http.StatusInternalServerError, "Could not fetch advocates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newResponseTestContext("/")
			Error(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var resp Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Success {
				t.Error("expected success=false")
			}
			if resp.Error != tt.wantMsg {
				t.Errorf("expected error %q, got %q", tt.wantMsg, resp.Error)
			}
			if resp.Data != nil {
				t.Errorf("expected no data, got %v", resp.Data)
			}
			if strings.Contains(w.Body.String(), "SQLSTATE") {
				t.Errorf("response leaked storage detail: %s", w.Body.String())
			}
		})
	}
}

func TestError_GenericError(t *testing.T) {
	c, w := newResponseTestContext("/")

	Error(c, errors.New("dial tcp 10.0.0.1:5432: connect: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error != "internal error" {
		t.Errorf("expected generic message, got %q", resp.Error)
	}
}

func TestValidationError_WithValidatorErrors(t *testing.T) {
	c, w := newResponseTestContext("/")

	ve := makeValidationErrors(t)
	validationErrorWithType(c, ve, &testInput{})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	var resp ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Error != "validation error" {
		t.Errorf("expected error %q, got %q", "validation error", resp.Error)
	}
	if resp.Errors["keyword"] != "required" {
		t.Errorf("expected keyword=required (form tag name), got %v", resp.Errors)
	}
	if resp.Errors["sortBy"] != "required" {
		t.Errorf("expected sortBy=required (json tag name), got %v", resp.Errors)
	}
}

func TestValidationError_NonValidationError(t *testing.T) {
	c, w := newResponseTestContext("/")

	ValidationError(c, errors.New("strconv.Atoi: parsing \"x\": invalid syntax"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error != "invalid request" {
		t.Errorf("expected %q, got %q", "invalid request", resp.Error)
	}
}

func TestBindQueryAndValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c, w := newResponseTestContext("/?keyword=dant&sortBy=city")
		var q testQuery
		if !BindQueryAndValidate(c, &q) {
			t.Fatalf("expected bind to succeed, body: %s", w.Body.String())
		}
		if q.Keyword != "dant" || q.SortBy != "city" {
			t.Errorf("unexpected bound query %+v", q)
		}
	})

	t.Run("too long", func(t *testing.T) {
		c, w := newResponseTestContext("/?keyword=toolongvalue")
		var q testQuery
		if BindQueryAndValidate(c, &q) {
			t.Fatal("expected bind to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
		var resp ValidationErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Errors["keyword"] != "max=5" {
			t.Errorf("expected keyword=max=5, got %v", resp.Errors)
		}
	})
}
