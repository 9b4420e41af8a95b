package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/sheetlens/internal/ctxkeys"
	"github.com/templui/sheetlens/internal/db"
	"github.com/templui/sheetlens/internal/export"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/parser"
	"github.com/templui/sheetlens/internal/repository"
	"github.com/templui/sheetlens/internal/service"
	"github.com/templui/sheetlens/internal/storage"
	"github.com/templui/sheetlens/internal/validation"
)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

// as fakes what AuthMiddleware would attach for a bearer token.
func as(userID string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxkeys.WithIdentity(r.Context(), &model.Identity{UserID: userID}, ctxkeys.AuthSourceBearer)
		next(w, r.WithContext(ctx))
	}
}

type testServer struct {
	files    *FileHandler
	analysis *AnalysisHandler
}

func newTestServer(t *testing.T, maxBytes int64) *testServer {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Init("sqlite", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))

	store, err := storage.NewLocalStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	fileService := service.NewFileService(repository.NewFileRepository(conn), store)
	analysisService := service.NewAnalysisService(repository.NewAnalysisRepository(conn), fileService, fixedClock{}, 50)
	return &testServer{
		files:    NewFileHandler(fileService, maxBytes),
		analysis: NewAnalysisHandler(analysisService),
	}
}

// mux routes every request as userID.
func (s *testServer) mux(userID string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/files", as(userID, s.files.Upload))
	mux.HandleFunc("GET /api/files", as(userID, s.files.List))
	mux.HandleFunc("GET /api/files/{id}", as(userID, s.files.Show))
	mux.HandleFunc("DELETE /api/files/{id}", as(userID, s.files.Delete))
	mux.HandleFunc("POST /api/analysis", as(userID, s.analysis.Analyze))
	mux.HandleFunc("GET /api/analysis/export", as(userID, s.analysis.Export))
	mux.HandleFunc("GET /api/analysis/history", as(userID, s.analysis.History))
	return mux
}

func uploadRequest(t *testing.T, name, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadFile(t *testing.T, h http.Handler, name, content string) *model.File {
	t.Helper()
	rec := serve(h, uploadRequest(t, name, content))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Success bool        `json:"success"`
		Data    *model.File `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func analyze(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(h, req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const ordersJSON = `[{"product":"A","price":10,"quantity":2},{"product":"B","price":5}]`

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", model.ErrInvalidAnalysisType), http.StatusBadRequest},
		{service.ErrMissingFileID, http.StatusBadRequest},
		{service.ErrConflictingModes, http.StatusBadRequest},
		{export.ErrUnsupportedFormat, http.StatusBadRequest},
		{parser.ErrUnsupportedFormat, http.StatusBadRequest},
		{validation.ErrInvalidFile, http.StatusBadRequest},
		{validation.ErrInvalidID, http.StatusBadRequest},
		{errBadRequest, http.StatusBadRequest},
		{fmt.Errorf("failed to get file: %w", repository.ErrFileNotFound), http.StatusNotFound},
		{repository.ErrAnalysisNotFound, http.StatusNotFound},
		{storage.ErrObjectNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: bad csv", parser.ErrParseFailure), http.StatusUnprocessableEntity},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternalText(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(rec, req, errors.New("dsn=postgres://secret"), "boom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, rec.Body.String())
}

func TestFileEndpoints(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	alice := srv.mux("alice")
	bob := srv.mux("bob")

	f := uploadFile(t, alice, "orders.json", ordersJSON)
	assert.Equal(t, "orders.json", f.OriginalName)
	assert.Equal(t, int64(len(ordersJSON)), f.Size)
	assert.Len(t, f.Checksum, 16)

	rec := serve(alice, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	assert.Len(t, list["data"], 1)

	rec = serve(bob, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())

	rec = serve(alice, httptest.NewRequest(http.MethodGet, "/api/files/"+f.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "storage")

	rec = serve(bob, httptest.NewRequest(http.MethodGet, "/api/files/"+f.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(alice, httptest.NewRequest(http.MethodGet, "/api/files/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(bob, httptest.NewRequest(http.MethodDelete, "/api/files/"+f.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(alice, httptest.NewRequest(http.MethodDelete, "/api/files/"+f.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(alice, httptest.NewRequest(http.MethodGet, "/api/files/"+f.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejects(t *testing.T) {
	srv := newTestServer(t, 64)
	h := srv.mux("alice")

	rec := serve(h, uploadRequest(t, "notes.txt", "hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = serve(h, uploadRequest(t, "empty.csv", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, uploadRequest(t, "big.csv", "a,b\n"+strings.Repeat("1,2\n", 40)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/files", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec = serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeModes(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	h := srv.mux("alice")
	f := uploadFile(t, h, "orders.json", ordersJSON)

	rec := analyze(h, fmt.Sprintf(`{"fileId":%q,"type":"products","fetchOnly":true}`, f.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	miss := decode(t, rec)
	assert.Equal(t, true, miss["success"])
	assert.Nil(t, miss["data"])
	assert.Equal(t, false, miss["hasData"])
	assert.NotContains(t, miss, "analysisId")

	rec = analyze(h, fmt.Sprintf(`{"fileId":%q,"type":"products"}`, f.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode(t, rec)
	assert.Equal(t, true, first["hasData"])
	assert.Equal(t, false, first["cached"])
	assert.Equal(t, true, first["saved"])
	assert.NotEmpty(t, first["analysisId"])
	assert.Equal(t, "2024-06-15T12:00:00Z", first["createdAt"])
	data, ok := first["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "products", data["type"])

	rec = analyze(h, fmt.Sprintf(`{"fileId":%q,"type":"products","fetchOnly":true}`, f.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	cached := decode(t, rec)
	assert.Equal(t, true, cached["cached"])
	assert.Equal(t, first["analysisId"], cached["analysisId"])

	rec = analyze(h, fmt.Sprintf(`{"fileId":%q,"type":"products","generateNew":true}`, f.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := decode(t, rec)
	assert.Equal(t, false, fresh["cached"])
	assert.NotEqual(t, first["analysisId"], fresh["analysisId"])
}

func TestAnalyzeNoData(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	h := srv.mux("alice")
	f := uploadFile(t, h, "empty.csv", "product,price\n")

	rec := analyze(h, fmt.Sprintf(`{"fileId":%q,"type":"sales"}`, f.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	assert.Nil(t, out["data"])
	assert.Equal(t, false, out["hasData"])
	assert.Equal(t, msgNoData, out["message"])
	assert.NotEmpty(t, out["analysisId"])
}

func TestAnalyzeRejects(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	h := srv.mux("alice")
	good := uploadFile(t, h, "orders.json", ordersJSON)
	bad := uploadFile(t, h, "broken.json", `{"not":"an array"`)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"missing file id", `{"type":"sales"}`, http.StatusBadRequest},
		{"malformed file id", `{"fileId":"nope","type":"sales"}`, http.StatusBadRequest},
		{"invalid type", fmt.Sprintf(`{"fileId":%q,"type":"forecast"}`, good.ID), http.StatusBadRequest},
		{"both modes", fmt.Sprintf(`{"fileId":%q,"type":"sales","fetchOnly":true,"generateNew":true}`, good.ID), http.StatusBadRequest},
		{"unknown file", `{"fileId":"6f1c1e0e-8a7b-4c38-9d5e-2f1d7a3b9c40","type":"sales"}`, http.StatusNotFound},
		{"unparseable file", fmt.Sprintf(`{"fileId":%q,"type":"sales"}`, bad.ID), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := analyze(h, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, false, decode(t, rec)["success"])
		})
	}

	rec := analyze(srv.mux("bob"), fmt.Sprintf(`{"fileId":%q,"type":"sales"}`, good.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	h := srv.mux("alice")
	f := uploadFile(t, h, "orders.json", ordersJSON)

	exportURL := func(format string) string {
		return fmt.Sprintf("/api/analysis/export?fileId=%s&type=products&format=%s", f.ID, format)
	}

	rec := serve(h, httptest.NewRequest(http.MethodGet, exportURL("csv"), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, analyze(h, fmt.Sprintf(`{"fileId":%q,"type":"products"}`, f.ID)).Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, exportURL("csv"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="analysis-products-2024-06-15.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "rank,product,sales"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, exportURL("json"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "json")
	assert.True(t, json.Valid(rec.Body.Bytes()))

	rec = serve(h, httptest.NewRequest(http.MethodGet, exportURL("pdf"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(srv.mux("bob"), httptest.NewRequest(http.MethodGet, exportURL("csv"), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	h := srv.mux("alice")
	f := uploadFile(t, h, "orders.json", ordersJSON)

	for _, typ := range []string{"overview", "sales", "products"} {
		require.Equal(t, http.StatusOK, analyze(h, fmt.Sprintf(`{"fileId":%q,"type":%q}`, f.ID, typ)).Code)
	}

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/analysis/history?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.Equal(t, true, page["success"])
	assert.EqualValues(t, 2, page["count"])
	assert.EqualValues(t, 3, page["total"])
	assert.EqualValues(t, 1, page["page"])
	assert.EqualValues(t, 2, page["limit"])
	rows, ok := page["data"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "orders.json", rows[0].(map[string]any)["fileName"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/analysis/history?type=sales", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/analysis/history?limit=1000", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 50, decode(t, rec)["limit"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/analysis/history?page=two", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/analysis/history?type=forecast", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: errors.New("down")}).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
