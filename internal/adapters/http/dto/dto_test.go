package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotesync/quotesync/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewErrorResponse(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
		want    *ErrorResponse
	}{
		{
			name:    "not found response",
			code:    ErrorCodeNotFound,
			message: "quote not found",
			want: &ErrorResponse{
				Error: ErrorDetail{
					Code:    ErrorCodeNotFound,
					Message: "quote not found",
				},
			},
		},
		{
			name:    "validation response",
			code:    ErrorCodeValidation,
			message: "invalid input",
			want: &ErrorResponse{
				Error: ErrorDetail{
					Code:    ErrorCodeValidation,
					Message: "invalid input",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewErrorResponse(tt.code, tt.message)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewErrorResponseWithDetails(t *testing.T) {
	details := map[string]string{
		"text":     "must not be empty",
		"category": "this field is required",
	}

	got := NewErrorResponseWithDetails(ErrorCodeValidation, "validation failed", details)

	assert.Equal(t, ErrorCodeValidation, got.Error.Code)
	assert.Equal(t, "validation failed", got.Error.Message)
	assert.Equal(t, details, got.Error.Details)
}

func TestWithTraceID(t *testing.T) {
	resp := NewErrorResponse(ErrorCodeInternal, "internal error")

	got := resp.WithTraceID("trace-123")

	assert.Equal(t, "trace-123", got.TraceID)
	assert.Same(t, resp, got)
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"not found", ErrorCodeNotFound, http.StatusNotFound},
		{"conflict", ErrorCodeConflict, http.StatusConflict},
		{"validation", ErrorCodeValidation, http.StatusBadRequest},
		{"bad request", ErrorCodeBadRequest, http.StatusBadRequest},
		{"import malformed", ErrorCodeImportMalformed, http.StatusBadRequest},
		{"import invalid shape", ErrorCodeImportInvalidShape, http.StatusBadRequest},
		{"upstream unavailable", ErrorCodeUpstreamUnavailable, http.StatusBadGateway},
		{"timeout", ErrorCodeTimeout, http.StatusGatewayTimeout},
		{"internal", ErrorCodeInternal, http.StatusInternalServerError},
		{"unknown code defaults to internal", "UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromCode(tt.code))
		})
	}
}

func TestGetTraceID(t *testing.T) {
	tests := []struct {
		name         string
		setupContext func(*gin.Context)
		want         string
	}{
		{
			name: "trace ID in context",
			setupContext: func(c *gin.Context) {
				c.Set("trace_id", "context-trace-123")
			},
			want: "context-trace-123",
		},
		{
			name: "falls back to request ID header",
			setupContext: func(c *gin.Context) {
				c.Request.Header.Set("X-Request-ID", "header-id-456")
			},
			want: "header-id-456",
		},
		{
			name: "context takes precedence over header",
			setupContext: func(c *gin.Context) {
				c.Set("trace_id", "context-trace-123")
				c.Request.Header.Set("X-Request-ID", "header-id-456")
			},
			want: "context-trace-123",
		},
		{
			name:         "nothing set",
			setupContext: func(c *gin.Context) {},
			want:         "",
		},
		{
			name: "non-string context value",
			setupContext: func(c *gin.Context) {
				c.Set("trace_id", 12345)
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			tt.setupContext(c)

			assert.Equal(t, tt.want, GetTraceID(c))
		})
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		checkDetails   bool
		expectedField  string
	}{
		{
			name:           "nil error returns 200",
			err:            nil,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found returns 404",
			err:            domain.NewNotFoundError("quote", "category \"x\""),
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrorCodeNotFound,
		},
		{
			name:           "conflict returns 409",
			err:            domain.NewConflictError("sync", "cycle already in flight"),
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrorCodeConflict,
		},
		{
			name:           "validation with field returns 400 with details",
			err:            domain.NewValidationError("text", "must not be empty"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidation,
			checkDetails:   true,
			expectedField:  "text",
		},
		{
			name:           "validation without field returns 400",
			err:            domain.NewValidationError("", "invalid input"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidation,
		},
		{
			name:           "malformed import returns 400",
			err:            domain.NewImportError(domain.ImportMalformed, "invalid JSON"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeImportMalformed,
		},
		{
			name:           "invalid shape import returns 400",
			err:            domain.NewImportError(domain.ImportInvalidShape, "record 2: empty text"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeImportInvalidShape,
		},
		{
			name:           "unavailable returns 502",
			err:            domain.NewUnavailableError("quote-feed", "connection refused"),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   ErrorCodeUpstreamUnavailable,
		},
		{
			name:           "storage error returns generic 500",
			err:            domain.NewStorageError("put", "quotes", errors.New("disk full")),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrorCodeInternal,
		},
		{
			name:           "unknown error returns generic 500",
			err:            errors.New("unknown error"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrorCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapDomainError(tt.err)

			assert.Equal(t, tt.expectedStatus, status)

			if tt.err == nil {
				assert.Nil(t, resp)
				return
			}

			require.NotNil(t, resp)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)

			if tt.checkDetails {
				require.NotNil(t, resp.Error.Details)
				assert.Contains(t, resp.Error.Details, tt.expectedField)
			}
		})
	}
}

func TestMapDomainError_GenericMessageHidesInternals(t *testing.T) {
	_, resp := MapDomainError(domain.NewStorageError("put", "quotes", errors.New("open /var/data: permission denied")))

	require.NotNil(t, resp)
	assert.Equal(t, "an internal error occurred", resp.Error.Message)
	assert.NotContains(t, resp.Error.Message, "permission denied")
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantCode       string
		wantMessageKey string
	}{
		{
			name:           "not found",
			err:            domain.NewNotFoundError("quote", "category \"missing\""),
			wantStatus:     http.StatusNotFound,
			wantCode:       ErrorCodeNotFound,
			wantMessageKey: "quote",
		},
		{
			name:           "conflict",
			err:            domain.NewConflictError("sync", "cycle already in flight"),
			wantStatus:     http.StatusConflict,
			wantCode:       ErrorCodeConflict,
			wantMessageKey: "in flight",
		},
		{
			name:           "validation",
			err:            domain.NewValidationError("text", "must not be empty"),
			wantStatus:     http.StatusBadRequest,
			wantCode:       ErrorCodeValidation,
			wantMessageKey: "text",
		},
		{
			name:           "unavailable",
			err:            domain.NewUnavailableError("quote-feed", "connection refused"),
			wantStatus:     http.StatusBadGateway,
			wantCode:       ErrorCodeUpstreamUnavailable,
			wantMessageKey: "temporarily unavailable",
		},
		{
			name:           "internal",
			err:            errors.New("unexpected error"),
			wantStatus:     http.StatusInternalServerError,
			wantCode:       ErrorCodeInternal,
			wantMessageKey: "internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("trace_id", "trace-abc")

			HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var response ErrorResponse
			err := json.Unmarshal(w.Body.Bytes(), &response)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCode, response.Error.Code)
			assert.Contains(t, response.Error.Message, tt.wantMessageKey)
			assert.Equal(t, "trace-abc", response.TraceID)
		})
	}
}

func TestHandleBindingError(t *testing.T) {
	type addRequest struct {
		Text     string `json:"text"     validate:"required,notempty"`
		Category string `json:"category" validate:"required,notempty"`
	}

	t.Run("validator error carries field details", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

		err := Validate(&addRequest{})
		require.Error(t, err)

		HandleBindingError(c, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, ErrorCodeValidation, resp.Error.Code)
		assert.Contains(t, resp.Error.Details, "text")
		assert.Contains(t, resp.Error.Details, "category")
	})

	t.Run("binding error is a plain bad request", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

		HandleBindingError(c, errors.New("unexpected EOF"))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, ErrorCodeBadRequest, resp.Error.Code)
	})
}

func TestAbortWithError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	AbortWithError(c, domain.NewConflictError("sync", "cycle already in flight"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, c.IsAborted())

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorCodeConflict, resp.Error.Code)
}

func TestListQueryGetLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, DefaultListLimit},
		{"negative uses default", -5, DefaultListLimit},
		{"within range", 42, 42},
		{"above cap is capped", 500, MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &ListQuery{Limit: tt.limit}
			assert.Equal(t, tt.want, q.GetLimit())
		})
	}
}

func TestValidate(t *testing.T) {
	type request struct {
		Name string `json:"name" validate:"required,notempty"`
	}

	tests := []struct {
		name    string
		input   request
		wantErr bool
	}{
		{
			name:    "valid struct",
			input:   request{Name: "ok"},
			wantErr: false,
		},
		{
			name:    "missing required field",
			input:   request{},
			wantErr: true,
		},
		{
			name:    "blank field fails notempty",
			input:   request{Name: "   "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.input)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestBindAndValidate(t *testing.T) {
	type request struct {
		Text string `json:"text" validate:"required,notempty"`
	}

	tests := []struct {
		name       string
		body       string
		wantErr    error
		wantFields bool
	}{
		{
			name:    "valid body",
			body:    `{"text": "hello"}`,
			wantErr: nil,
		},
		{
			name:    "malformed JSON is a binding error",
			body:    `{"text": `,
			wantErr: ErrBinding,
		},
		{
			name:       "valid JSON failing validation",
			body:       `{"text": ""}`,
			wantErr:    ErrValidation,
			wantFields: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req request
			err := BindAndValidate(c, &req)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			if tt.wantFields {
				assert.True(t, IsValidationError(err))
				assert.Contains(t, ValidationErrors(err), "text")
			}
		})
	}
}

func TestBindQueryAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		want    int
	}{
		{
			name:    "valid limit",
			query:   "limit=10",
			wantErr: false,
			want:    10,
		},
		{
			name:    "missing limit is fine",
			query:   "",
			wantErr: false,
			want:    DefaultListLimit,
		},
		{
			name:    "limit above cap fails validation",
			query:   "limit=1000",
			wantErr: true,
		},
		{
			name:    "non-numeric limit is a binding error",
			query:   "limit=abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			var q ListQuery
			err := BindQueryAndValidate(c, &q)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, q.GetLimit())
		})
	}
}

func TestValidationErrors(t *testing.T) {
	type request struct {
		Text     string `json:"text"     validate:"required"`
		Category string `json:"category" validate:"required"`
		Hidden   string `json:"-"        validate:"omitempty"`
	}

	err := Validate(&request{})
	require.Error(t, err)

	fields := ValidationErrors(err)

	assert.Len(t, fields, 2)
	assert.Equal(t, "this field is required", fields["text"])
	assert.Equal(t, "this field is required", fields["category"])
}

func TestValidationErrors_NonValidatorError(t *testing.T) {
	fields := ValidationErrors(errors.New("plain error"))
	assert.Empty(t, fields)
}

func TestIsValidationError(t *testing.T) {
	type request struct {
		Name string `validate:"required"`
	}

	validatorErr := Validate(&request{})
	require.Error(t, validatorErr)

	assert.True(t, IsValidationError(validatorErr))
	assert.False(t, IsValidationError(errors.New("other")))
	assert.False(t, IsValidationError(nil))
}

func TestValidationMessage(t *testing.T) {
	type request struct {
		Category string `json:"category" validate:"omitempty,oneof=motivation life wisdom"`
		Count    int    `json:"count"    validate:"omitempty,gte=1,lte=10"`
		Name     string `json:"name"     validate:"omitempty,min=3,max=8"`
	}

	tests := []struct {
		name  string
		input request
		field string
		want  string
	}{
		{
			name:  "oneof",
			input: request{Category: "other"},
			field: "category",
			want:  "must be one of: motivation life wisdom",
		},
		{
			name:  "gte",
			input: request{Count: -1},
			field: "count",
			want:  "must be greater than or equal to 1",
		},
		{
			name:  "lte",
			input: request{Count: 99},
			field: "count",
			want:  "must be less than or equal to 10",
		},
		{
			name:  "min on string mentions characters",
			input: request{Name: "ab"},
			field: "name",
			want:  "must be at least 3 characters",
		},
		{
			name:  "max on string mentions characters",
			input: request{Name: "overlong-name"},
			field: "name",
			want:  "must be at most 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.input)
			require.Error(t, err)

			fields := ValidationErrors(err)
			assert.Equal(t, tt.want, fields[tt.field])
		})
	}
}

func TestValidationMessage_UnknownTag(t *testing.T) {
	type request struct {
		Addr string `json:"addr" validate:"ip"`
	}

	err := Validate(&request{Addr: "not-an-ip"})
	require.Error(t, err)

	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	require.Len(t, validationErrs, 1)

	assert.Equal(t, "failed validation: ip", validationMessage(validationErrs[0]))
}

func TestMinMaxMessage(t *testing.T) {
	tests := []struct {
		name  string
		tag   string
		param string
		kind  reflect.Kind
		want  string
	}{
		{"min string", "min", "3", reflect.String, "must be at least 3 characters"},
		{"max string", "max", "10", reflect.String, "must be at most 10 characters"},
		{"min number", "min", "1", reflect.Int, "must be at least 1"},
		{"max number", "max", "64", reflect.Int, "must be at most 64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, minMaxMessage(tt.tag, tt.param, tt.kind))
		})
	}
}

// filterUpdate exercises the Validatable hook.
type filterUpdate struct {
	Category string `json:"category" validate:"required"`
}

func (f *filterUpdate) Validate() error {
	if strings.HasPrefix(f.Category, " ") {
		return errors.New("category must not start with whitespace")
	}

	return nil
}

func TestValidateAll(t *testing.T) {
	tests := []struct {
		name    string
		input   *filterUpdate
		wantErr bool
	}{
		{
			name:    "passes both layers",
			input:   &filterUpdate{Category: "motivation"},
			wantErr: false,
		},
		{
			name:    "fails struct tags",
			input:   &filterUpdate{},
			wantErr: true,
		},
		{
			name:    "fails custom validation",
			input:   &filterUpdate{Category: " padded"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAll(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}

			assert.NoError(t, err)
		})
	}
}
