package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"equiintel/pkg/core/calc"
	"equiintel/pkg/core/extract"
	"equiintel/pkg/core/pipeline"
	"equiintel/pkg/core/source"
	"equiintel/pkg/core/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	got     pipeline.Request
	err     error
	cleared *string
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) (*pipeline.Report, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Report{
		RunID:   "run-1",
		Dataset: extract.NewDataset(extract.Required),
		Verdict: calc.DoNotInvest,
	}, nil
}

func (f *fakeRunner) ClearCache(_ context.Context, fp string) error {
	f.cleared = &fp
	return nil
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".txt")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleAnalyze(t *testing.T) {
	fr := &fakeRunner{}
	h := NewHandler(fr)

	body, ct := multipartBody(t,
		map[string]string{"statement": "Net Income: 1", "prices": "Date,Close\n"},
		map[string]string{"exchange": "NSE", "overrides": `{"book value": "2,500"}`},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp["run_id"])
	assert.Equal(t, "Do Not Invest", resp["verdict"])

	assert.Equal(t, "statement.txt", fr.got.Statement.Name)
	assert.Equal(t, []byte("Net Income: 1"), fr.got.Statement.Data)
	assert.Equal(t, "NSE", fr.got.Exchange)
	assert.Nil(t, fr.got.Table)
	assert.Equal(t, extract.MapOverrides{extract.BookValue: "2,500"}, fr.got.Overrides)
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	h := NewHandler(&fakeRunner{})

	tests := []struct {
		name   string
		files  map[string]string
		fields map[string]string
	}{
		{"missing statement", map[string]string{"prices": "x"}, nil},
		{"unknown override label", map[string]string{"statement": "x"}, map[string]string{"overrides": `{"EBITDA": "1"}`}},
		{"malformed overrides", map[string]string{"statement": "x"}, map[string]string{"overrides": `[1]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.files, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			h.HandleAnalyze(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleAnalyze_UnreadableDocument(t *testing.T) {
	h := NewHandler(&fakeRunner{err: &source.UnreadableDocumentError{Name: "s.pdf", Reason: "corrupt PDF"}})
	body, ct := multipartBody(t, map[string]string{"statement": "%PDF-garbage"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleAnalyze_OversizeUpload(t *testing.T) {
	runner := &fakeRunner{}
	h := NewHandler(runner)
	h.MaxUploadMB = 1
	body, ct := multipartBody(t, map[string]string{"statement": strings.Repeat("x", 2<<20)}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, req)

	assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
	assert.Empty(t, runner.got.Statement.Name)
}

func TestHandleClearCache_RejectsPathsAndPatterns(t *testing.T) {
	for _, fp := range []string{"..%2Fconfig", "*", "abc"} {
		fr := &fakeRunner{}
		rec := httptest.NewRecorder()
		NewHandler(fr).HandleClearCache(rec, httptest.NewRequest(http.MethodPost, "/api/cache/clear?fingerprint="+fp, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code, fp)
		assert.Nil(t, fr.cleared, fp)
	}
}

func TestHandleLabels(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(&fakeRunner{}).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/labels")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Labels []string `json:"labels"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Labels, len(extract.Required))
	assert.Equal(t, "Net Income", body.Labels[0])
}

func TestHandleClearCache(t *testing.T) {
	fr := &fakeRunner{}
	h := NewHandler(fr)
	fp := store.Fingerprint([]byte("statement"))

	rec := httptest.NewRecorder()
	h.HandleClearCache(rec, httptest.NewRequest(http.MethodPost, "/api/cache/clear?fingerprint="+fp, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fr.cleared)
	assert.Equal(t, fp, *fr.cleared)
	assert.Contains(t, rec.Body.String(), "Cache cleared for "+fp)

	rec = httptest.NewRecorder()
	h.HandleClearCache(rec, httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", *fr.cleared)

	rec = httptest.NewRecorder()
	h.HandleClearCache(rec, httptest.NewRequest(http.MethodGet, "/api/cache/clear", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
