package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quotesync/quotesync/internal/adapters/http/dto"
	"github.com/quotesync/quotesync/internal/app"
	"github.com/quotesync/quotesync/internal/codec"
	"github.com/quotesync/quotesync/internal/domain"
)

// importFileField is the multipart form field carrying an uploaded
// collection file.
const importFileField = "file"

// QuoteHandler handles the quote collection endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// QuoteResponse is the wire shape of a quote record.
type QuoteResponse struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

func toQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:       q.ID,
		Text:     q.Text,
		Category: q.Category,
	}
}

// toQuoteResponses never returns nil so empty listings serialize as [].
func toQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, toQuoteResponse(q))
	}

	return out
}

// ListQuotesQuery binds the listing parameters.
type ListQuotesQuery struct {
	// Category filters the collection; empty or "all" matches everything.
	Category string `form:"category"`

	// Remember persists the category as the last filter selection.
	Remember bool `form:"remember"`
}

// List handles GET /api/v1/quotes.
// Returns the collection in insertion order, optionally filtered by
// category. With remember=true the category is persisted as the last
// filter selection.
func (h *QuoteHandler) List(c *gin.Context) {
	var query ListQuotesQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	ctx := c.Request.Context()

	if query.Remember {
		if err := h.service.SetLastFilter(ctx, query.Category); err != nil {
			dto.HandleError(c, err)
			return
		}
	}

	quotes := h.service.List(ctx, query.Category)
	c.JSON(http.StatusOK, toQuoteResponses(quotes))
}

// AddQuoteRequest is the body of POST /api/v1/quotes.
type AddQuoteRequest struct {
	Text     string `json:"text"     validate:"required,notempty"`
	Category string `json:"category" validate:"required,notempty"`
}

// Add handles POST /api/v1/quotes.
// Mints the next id and appends the record; 201 with the stored quote.
func (h *QuoteHandler) Add(c *gin.Context) {
	var req AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	quote, err := h.service.Add(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// Random handles GET /api/v1/quotes/random.
// Picks uniformly from the collection (or the category selection) and
// records it as the last displayed quote. 404 when the selection is empty.
func (h *QuoteHandler) Random(c *gin.Context) {
	quote, err := h.service.Random(c.Request.Context(), c.Query("category"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// Last handles GET /api/v1/quotes/last.
// Returns the last displayed quote of this session, 404 when nothing has
// been shown yet.
func (h *QuoteHandler) Last(c *gin.Context) {
	quote, err := h.service.LastDisplayed(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// Export handles GET /api/v1/quotes/export.
// Streams the collection as a downloadable 2-space-indented JSON file.
func (h *QuoteHandler) Export(c *gin.Context) {
	payload, err := h.service.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", codec.ExportFilename))
	c.Data(http.StatusOK, "application/json", payload)
}

// ImportResponse reports what an import did.
type ImportResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Import handles POST /api/v1/quotes/import.
// Accepts the collection file either as the raw request body or as the
// "file" field of a multipart form. The whole payload is validated before
// anything is appended; a bad payload changes nothing.
func (h *QuoteHandler) Import(c *gin.Context) {
	payload, err := importPayload(c)
	if err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	report, err := h.service.Import(c.Request.Context(), payload)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ImportResponse{
		Added:   report.Added,
		Skipped: report.Skipped,
	})
}

// importPayload extracts the uploaded collection bytes from either
// transport.
func importPayload(c *gin.Context) ([]byte, error) {
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		fileHeader, err := c.FormFile(importFileField)
		if err != nil {
			return nil, fmt.Errorf("reading multipart file: %w", err)
		}

		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("opening multipart file: %w", err)
		}
		defer file.Close()

		return io.ReadAll(file)
	}

	return io.ReadAll(c.Request.Body)
}

// Reset handles POST /api/v1/quotes/reset.
// Restores the built-in defaults and clears the session; returns the
// restored collection.
func (h *QuoteHandler) Reset(c *gin.Context) {
	snapshot := h.service.Reset(c.Request.Context())
	c.JSON(http.StatusOK, toQuoteResponses(snapshot))
}

// Categories handles GET /api/v1/categories.
// Returns the distinct categories in first-seen order.
func (h *QuoteHandler) Categories(c *gin.Context) {
	categories := h.service.Categories(c.Request.Context())
	if categories == nil {
		categories = []string{}
	}

	c.JSON(http.StatusOK, categories)
}

// FilterResponse is the wire shape of the last filter selection.
type FilterResponse struct {
	Category string `json:"category"`
}

// FilterRequest is the body of PUT /api/v1/filter.
type FilterRequest struct {
	Category string `json:"category" validate:"required,notempty"`
}

// GetFilter handles GET /api/v1/filter.
func (h *QuoteHandler) GetFilter(c *gin.Context) {
	c.JSON(http.StatusOK, FilterResponse{
		Category: h.service.LastFilter(c.Request.Context()),
	})
}

// SetFilter handles PUT /api/v1/filter.
// Persists the selection; unknown categories are rejected with 400.
func (h *QuoteHandler) SetFilter(c *gin.Context) {
	var req FilterRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	if err := h.service.SetLastFilter(c.Request.Context(), req.Category); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, FilterResponse{Category: req.Category})
}

// RegisterQuoteRoutes registers the collection routes on the given group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.List)
	quotes.POST("", h.Add)
	quotes.GET("/random", h.Random)
	quotes.GET("/last", h.Last)
	quotes.GET("/export", h.Export)
	quotes.POST("/import", h.Import)
	quotes.POST("/reset", h.Reset)

	rg.GET("/categories", h.Categories)
	rg.GET("/filter", h.GetFilter)
	rg.PUT("/filter", h.SetFilter)
}
