package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/llm"
	"github.com/deepspec/deepspec/internal/report"
	"github.com/deepspec/deepspec/internal/review"
	"github.com/deepspec/deepspec/internal/store"
)

// fakePages always yields one page of text, regardless of source bytes.
type fakePages struct{}

func (fakePages) PageCount() int                 { return 1 }
func (fakePages) TextOfPage(int) (string, error) { return "abstract text", nil }

func newTestService() *Service {
	gin.SetMode(gin.TestMode)
	st := store.New()
	machine := review.NewMachine(st, llm.MockExtractor{}, func([]byte) (review.PageSource, error) {
		return fakePages{}, nil
	}, review.Config{PageWindow: 3}, nil)
	assembler := report.NewAssembler("Test Report", report.NullRasterizer{}, nil)
	cfg := &common.Config{}
	cfg.Server.MaxUploadMB = 10
	return New(st, machine, assembler, cfg, nil)
}

func multipartPDF(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func do(r http.Handler, method, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func doJSON(r http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&buf).Encode(payload)
	}
	return do(r, method, path, "application/json", &buf)
}

func upload(t *testing.T, r http.Handler, filename string) {
	t.Helper()
	body, ct := multipartPDF(t, filename)
	rec := do(r, http.MethodPost, "/documents", ct, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestUpload_CreatesPendingRecord(t *testing.T) {
	r := newTestService().Router()

	body, ct := multipartPDF(t, "paper.pdf")
	rec := do(r, http.MethodPost, "/documents", ct, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "paper.pdf", got["id"])
	assert.Equal(t, "PENDING", got["status"])
}

func TestUpload_DuplicateConflicts(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "paper.pdf")

	body, ct := multipartPDF(t, "paper.pdf")
	rec := do(r, http.MethodPost, "/documents", ct, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "DUPLICATE_ID", got["code"])
}

func TestUpload_MissingFile(t *testing.T) {
	r := newTestService().Router()
	rec := do(r, http.MethodPost, "/documents", "application/json", bytes.NewBufferString("{}"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestList_UploadOrder(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "b.pdf")
	upload(t, r, "a.pdf")

	rec := do(r, http.MethodGet, "/documents", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Documents []struct {
			ID string `json:"id"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Documents, 2)
	assert.Equal(t, "b.pdf", got.Documents[0].ID)
	assert.Equal(t, "a.pdf", got.Documents[1].ID)
}

func TestExtract_HappyPath(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "paper.pdf")

	rec := doJSON(r, http.MethodPost, "/documents/paper.pdf/extract",
		map[string]string{"role": "generalist", "mode": "fast"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "EXTRACTED", got["status"])
	assert.NotNil(t, got["fields"])
}

func TestExtract_UnknownRoleRejected(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "paper.pdf")

	rec := doJSON(r, http.MethodPost, "/documents/paper.pdf/extract",
		map[string]string{"role": "astrologer"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtract_UnknownDocument(t *testing.T) {
	r := newTestService().Router()
	rec := doJSON(r, http.MethodPost, "/documents/ghost.pdf/extract", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "NOT_FOUND", got["code"])
}

func TestExtract_RepeatConflicts(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "paper.pdf")

	rec := doJSON(r, http.MethodPost, "/documents/paper.pdf/extract", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(r, http.MethodPost, "/documents/paper.pdf/extract", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExtractBatch_DefaultsToAllPending(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "a.pdf")
	upload(t, r, "b.pdf")

	rec := doJSON(r, http.MethodPost, "/extract-batch", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Outcomes []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Outcomes, 2)
	for _, o := range got.Outcomes {
		assert.Equal(t, "EXTRACTED", o.Status)
	}
}

func TestReview_CommitAndReportFlow(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "paper.pdf")
	require.Equal(t, http.StatusOK,
		doJSON(r, http.MethodPost, "/documents/paper.pdf/extract", nil).Code)

	fields := map[string]any{
		"title":       "Edited Title",
		"purpose":     "P",
		"conclusions": []string{"one"},
	}
	rec := doJSON(r, http.MethodPut, "/documents/paper.pdf/review", fields)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "REVIEWED", got["status"])

	rep := do(r, http.MethodGet, "/report", "", nil)
	require.Equal(t, http.StatusOK, rep.Code)
	assert.Equal(t, xlsxContentType, rep.Header().Get("Content-Type"))
	assert.NotZero(t, rep.Body.Len())
}

func TestReview_BareStringConclusionsNormalized(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "paper.pdf")
	require.Equal(t, http.StatusOK,
		doJSON(r, http.MethodPost, "/documents/paper.pdf/extract", nil).Code)

	// Conclusions and formulas arrive as bare strings; the commit succeeds
	// and stores one-element lists.
	rec := doJSON(r, http.MethodPut, "/documents/paper.pdf/review", map[string]any{
		"title":       "T",
		"purpose":     "P",
		"conclusions": "only finding",
		"formulas":    "E = mc^2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Status string `json:"status"`
		Fields struct {
			Conclusions []string `json:"conclusions"`
			Formulas    []string `json:"formulas"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "REVIEWED", got.Status)
	assert.Equal(t, []string{"only finding"}, got.Fields.Conclusions)
	assert.Equal(t, []string{"E = mc^2"}, got.Fields.Formulas)
}

func TestReview_PendingConflicts(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "paper.pdf")

	rec := doJSON(r, http.MethodPut, "/documents/paper.pdf/review",
		map[string]any{"title": "T"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReport_CachedUntilNextCommit(t *testing.T) {
	svc := newTestService()
	r := svc.Router()
	upload(t, r, "paper.pdf")
	require.Equal(t, http.StatusOK,
		doJSON(r, http.MethodPost, "/documents/paper.pdf/extract", nil).Code)
	require.Equal(t, http.StatusOK,
		doJSON(r, http.MethodPut, "/documents/paper.pdf/review",
			map[string]any{"title": "T", "purpose": "P"}).Code)

	first := do(r, http.MethodGet, "/report", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	rev := svc.reportRev

	second := do(r, http.MethodGet, "/report", "", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, rev, svc.reportRev)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())

	// A re-commit invalidates the cache.
	require.Equal(t, http.StatusOK,
		doJSON(r, http.MethodPut, "/documents/paper.pdf/review",
			map[string]any{"title": "T2", "purpose": "P"}).Code)
	third := do(r, http.MethodGet, "/report", "", nil)
	require.Equal(t, http.StatusOK, third.Code)
	assert.NotEqual(t, rev, svc.reportRev)
}

func TestSelectFigure_GarbageSourceRejected(t *testing.T) {
	r := newTestService().Router()
	upload(t, r, "paper.pdf")
	require.Equal(t, http.StatusOK,
		doJSON(r, http.MethodPost, "/documents/paper.pdf/extract", nil).Code)

	// The uploaded bytes are not a parseable PDF; page rendering must fail
	// without corrupting the record.
	rec := doJSON(r, http.MethodPost, "/documents/paper.pdf/figure",
		map[string]any{"page": 1, "rect": map[string]int{"x": 0, "y": 0, "w": 10, "h": 10}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthz(t *testing.T) {
	r := newTestService().Router()
	rec := do(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestService().Router()
	rec := do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "deepspec_"),
		fmt.Sprintf("metrics body missing deepspec_ prefix: %.200s", rec.Body.String()))
}
