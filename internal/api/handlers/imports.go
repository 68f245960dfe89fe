package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/api/dto"
	"github.com/eshaffer321/statement-reconciler/internal/application/service"
	"github.com/eshaffer321/statement-reconciler/internal/domain/statement"
)

// MaxUploadBytes caps the size of an uploaded statement.
const MaxUploadBytes = 10 << 20

// ImportsHandler handles statement imports and import run history.
type ImportsHandler struct {
	*Base
}

// NewImportsHandler creates a new imports handler.
func NewImportsHandler(svc *service.ReconcileService, logger *slog.Logger) *ImportsHandler {
	return &ImportsHandler{
		Base: NewBase(svc, logger),
	}
}

// CSV handles POST /api/imports/csv. The statement is either the raw request
// body or a multipart file in the "file" field.
func (h *ImportsHandler) CSV(c *gin.Context) {
	raw, filename, err := readStatement(c)
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	result, err := h.svc.ImportCSV(c.Request.Context(), filename, raw)
	if err != nil {
		h.HandleError(c, err, "import")
		return
	}
	c.JSON(http.StatusCreated, toImportResponse(result))
}

// Extracted handles POST /api/imports/extracted with a JSON array of records.
func (h *ImportsHandler) Extracted(c *gin.Context) {
	var records []statement.ParsedTransaction
	if err := c.ShouldBindJSON(&records); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("body must be a JSON array of {date, amount, description}"))
		return
	}

	result, err := h.svc.ImportExtracted(c.Request.Context(), c.Query("name"), records)
	if err != nil {
		h.HandleError(c, err, "import")
		return
	}
	c.JSON(http.StatusCreated, toImportResponse(result))
}

// Statement handles POST /api/imports/statement.
func (h *ImportsHandler) Statement(c *gin.Context) {
	if !h.svc.ExtractionEnabled() {
		h.HandleError(c, service.ErrExtractorUnavailable, "import")
		return
	}

	var req dto.StatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("text is required"))
		return
	}

	result, err := h.svc.ImportStatement(c.Request.Context(), req.Name, req.Text)
	if err != nil {
		h.HandleError(c, err, "import")
		return
	}
	c.JSON(http.StatusCreated, toImportResponse(result))
}

// List handles GET /api/imports.
func (h *ImportsHandler) List(c *gin.Context) {
	runs, err := h.svc.ListImportRuns(c.Request.Context(), ParseIntParam(c, "limit", 20))
	if err != nil {
		h.HandleError(c, err, "import")
		return
	}
	c.JSON(http.StatusOK, dto.ImportRunListResponse{Runs: runs, Count: len(runs)})
}

// Get handles GET /api/imports/:id.
func (h *ImportsHandler) Get(c *gin.Context) {
	run, err := h.svc.GetImportRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err, "import run")
		return
	}
	c.JSON(http.StatusOK, run)
}

func readStatement(c *gin.Context) (string, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	filename := c.Query("filename")

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return "", "", fmt.Errorf("multipart upload needs a \"file\" field")
		}
		f, err := header.Open()
		if err != nil {
			return "", "", fmt.Errorf("cannot open upload: %w", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return "", "", fmt.Errorf("cannot read upload: %w", err)
		}
		if filename == "" {
			filename = header.Filename
		}
		return string(data), filename, nil
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", "", fmt.Errorf("cannot read body: %w", err)
	}
	return string(data), filename, nil
}

func toImportResponse(result *service.ImportResult) dto.ImportResponse {
	return dto.ImportResponse{
		ImportRun:    result.Run,
		Inserted:     len(result.Transactions),
		Skipped:      result.Skipped,
		Transactions: result.Transactions,
	}
}
