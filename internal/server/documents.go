package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/deepspec/deepspec/constants"
	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/entity"
	"github.com/deepspec/deepspec/internal/figure"
	"github.com/deepspec/deepspec/internal/imaging"
	"github.com/deepspec/deepspec/internal/llm"
	"github.com/deepspec/deepspec/internal/pdf"
)

type documentView struct {
	ID        string              `json:"id"`
	Status    constants.DocStatus `json:"status"`
	Fields    *entity.PaperFields `json:"fields,omitempty"`
	HasFigure bool                `json:"has_figure"`
	ErrorLog  []string            `json:"error_log,omitempty"`
}

func toView(doc *entity.Document) documentView {
	return documentView{
		ID:        doc.ID,
		Status:    doc.Status,
		Fields:    doc.Fields,
		HasFigure: doc.SelectedFigure != nil,
		ErrorLog:  doc.ErrorLog,
	}
}

// upload accepts one PDF as multipart field "file". The document id is the
// uploaded filename; duplicates are rejected.
func (s *Service) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	if fh.Size > s.cfg.Server.MaxUploadMB*1024*1024 {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open upload: " + err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload: " + err.Error()})
		return
	}

	id := filepath.Base(fh.Filename)

	s.mu.Lock()
	doc, err := s.store.Add(id, data)
	s.mu.Unlock()
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, common.ErrDuplicateID) {
			status = http.StatusConflict
		}
		appErr := common.WorkflowError(err)
		c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}

	documentsUploaded.Inc()
	s.logger.Info("server.upload.ok", "id", id, "bytes", len(data))
	c.JSON(http.StatusCreated, toView(doc))
}

func (s *Service) list(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.store.List()
	views := make([]documentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, toView(doc))
	}
	c.JSON(http.StatusOK, gin.H{"documents": views, "revision": s.store.Revision()})
}

type extractRequest struct {
	Role string `json:"role"`
	Mode string `json:"mode"`
}

func (r extractRequest) validate() (string, string, bool) {
	role, okRole := constants.CanonicalizeRole(r.Role)
	mode, okMode := constants.CanonicalizeMode(r.Mode)
	if r.Role != "" && !okRole {
		return "", "", false
	}
	if r.Mode != "" && !okMode {
		return "", "", false
	}
	return string(role), string(mode), true
}

func (s *Service) extract(c *gin.Context) {
	var req extractRequest
	_ = c.ShouldBindJSON(&req)
	role, mode, ok := req.validate()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role or mode"})
		return
	}

	id := c.Param("id")

	s.mu.Lock()
	err := s.machine.StartExtraction(c.Request.Context(), id, role, mode)
	doc, getErr := s.store.Get(id)
	s.mu.Unlock()

	if err != nil {
		s.renderWorkflowError(c, err)
		return
	}
	if getErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": getErr.Error()})
		return
	}

	extractionsTotal.WithLabelValues(string(doc.Status)).Inc()
	c.JSON(http.StatusOK, toView(doc))
}

type extractBatchRequest struct {
	IDs  []string `json:"ids"` // empty means "all pending"
	Role string   `json:"role"`
	Mode string   `json:"mode"`
}

func (s *Service) extractBatch(c *gin.Context) {
	var req extractBatchRequest
	_ = c.ShouldBindJSON(&req)
	role, mode, ok := extractRequest{Role: req.Role, Mode: req.Mode}.validate()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role or mode"})
		return
	}

	s.mu.Lock()
	ids := req.IDs
	if len(ids) == 0 {
		ids = s.store.PendingIDs()
	}
	outcomes := s.machine.StartExtractionBatch(c.Request.Context(), ids, role, mode)
	s.mu.Unlock()

	for _, o := range outcomes {
		if o.Status != "" {
			extractionsTotal.WithLabelValues(string(o.Status)).Inc()
		}
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}

// review accepts the edited fields with the same boundary tolerance as the
// extraction adapter: conclusions and formulas may arrive as a bare string
// and are normalized to a list before the commit.
func (s *Service) review(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read fields payload: " + err.Error()})
		return
	}
	normalized, _, err := llm.NormalizeFlexibleFields(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fields payload: " + err.Error()})
		return
	}
	var fields entity.PaperFields
	if err := json.Unmarshal(normalized, &fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fields payload: " + err.Error()})
		return
	}

	id := c.Param("id")

	s.mu.Lock()
	err = s.machine.CommitReview(id, fields)
	doc, getErr := s.store.Get(id)
	s.mu.Unlock()

	if err != nil {
		s.renderWorkflowError(c, err)
		return
	}
	if getErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": getErr.Error()})
		return
	}

	reviewsCommitted.Inc()
	c.JSON(http.StatusOK, toView(doc))
}

type figureRequest struct {
	Page int          `json:"page" binding:"required"`
	Rect imaging.Rect `json:"rect"`
}

// selectFigure renders the requested page, crops the given pixel rectangle
// and binds the result as the record's one selected figure.
func (s *Service) selectFigure(c *gin.Context) {
	var req figureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid figure payload: " + err.Error()})
		return
	}

	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Get(id)
	if err != nil {
		s.renderWorkflowError(c, err)
		return
	}

	source, err := pdf.Open(doc.Source)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	page, err := figure.RenderPage(source, req.Page)
	if err != nil {
		s.renderWorkflowError(c, err)
		return
	}
	cropped, err := figure.SelectRegion(page, req.Rect)
	if err != nil {
		s.renderWorkflowError(c, err)
		return
	}
	if err := figure.BindToRecord(s.store, id, cropped); err != nil {
		s.renderWorkflowError(c, err)
		return
	}

	s.logger.Info("server.figure.ok", "id", id, "page", req.Page,
		"w", cropped.Width(), "h", cropped.Height())
	c.JSON(http.StatusOK, toView(doc))
}

// renderWorkflowError maps the workflow's sentinel errors onto HTTP codes.
// The body carries the classified AppError code alongside the message so
// clients can branch without parsing error strings.
func (s *Service) renderWorkflowError(c *gin.Context, err error) {
	appErr := common.WorkflowError(err)
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, common.ErrOutOfRange), errors.Is(err, common.ErrEmptyRegion),
		errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}
