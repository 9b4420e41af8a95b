package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/sheetlens/internal/db"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/repository"
	"github.com/templui/sheetlens/internal/storage"
	"github.com/templui/sheetlens/internal/view"
)

type testEnv struct {
	files    *FileService
	analyses *AnalysisService
	repo     repository.AnalysisRepository
	store    *storage.LocalStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Init("sqlite", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))

	store, err := storage.NewLocalStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	files := NewFileService(repository.NewFileRepository(conn), store)
	repo := repository.NewAnalysisRepository(conn)
	return &testEnv{
		files:    files,
		analyses: NewAnalysisService(repo, files, fixedClock{}, 100),
		repo:     repo,
		store:    store,
	}
}

func upload(t *testing.T, svc *FileService, userID, name, content string) *model.File {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	file, header, err := req.FormFile("file")
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	f, err := svc.Upload(userID, file, header)
	require.NoError(t, err)
	return f
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, "ef46db3751d8e999", Checksum(nil))
	assert.Len(t, Checksum([]byte("a")), 16)
	assert.Equal(t, xxhash.Sum64String("abc"), mustParseHex(t, Checksum([]byte("abc"))))
}

func mustParseHex(t *testing.T, s string) uint64 {
	t.Helper()
	var v uint64
	for _, c := range s {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint64(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint64(c-'a') + 10
		default:
			t.Fatalf("not hex: %q", s)
		}
	}
	return v
}

func TestFileServiceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := env.files
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	f := upload(t, svc, "alice", "Orders.CSV", "product,price\nA,1\n")
	assert.Equal(t, "Orders.CSV", f.OriginalName)
	assert.Equal(t, f.ID+".csv", f.Filename)
	assert.Equal(t, int64(len("product,price\nA,1\n")), f.Size)
	assert.Equal(t, Checksum([]byte("product,price\nA,1\n")), f.Checksum)
	assert.Equal(t, "uploads/alice/"+f.Filename, f.StoragePath)

	got, err := svc.ByIDForUser("alice", f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Checksum, got.Checksum)

	_, err = svc.ByIDForUser("bob", f.ID)
	assert.ErrorIs(t, err, repository.ErrFileNotFound)

	rc, err := svc.Open(got)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "product,price\nA,1\n", string(content))

	list, err := svc.Files("alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Delete("bob", f.ID), repository.ErrFileNotFound)
	require.NoError(t, svc.Delete("alice", f.ID))

	_, err = env.store.Open(f.StoragePath)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	list, err = svc.Files("alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPipelineAgainstStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	empty := upload(t, env.files, "alice", "empty.csv", "product,price\n")
	res, err := env.analyses.Analyze(ctx, "alice", AnalyzeRequest{FileID: empty.ID, Type: model.AnalysisSales})
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.False(t, res.Analysis.HasData)

	stored, err := env.repo.Latest("alice", empty.ID, model.AnalysisSales)
	require.NoError(t, err)
	assert.False(t, stored.HasData)
	assert.Nil(t, stored.Data)

	orders := upload(t, env.files, "alice", "orders.json", `[{"product":"A","price":10,"quantity":2},{"product":"B","price":5}]`)

	miss, err := env.analyses.Analyze(ctx, "alice", AnalyzeRequest{FileID: orders.ID, Type: model.AnalysisProducts, FetchOnly: true})
	require.NoError(t, err)
	assert.False(t, miss.Found)
	n, err := env.repo.Count("alice", model.AnalysisProducts)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	first, err := env.analyses.Analyze(ctx, "alice", AnalyzeRequest{FileID: orders.ID, Type: model.AnalysisProducts})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	again, err := env.analyses.Analyze(ctx, "alice", AnalyzeRequest{FileID: orders.ID, Type: model.AnalysisProducts})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, first.Analysis.ID, again.Analysis.ID)
	assert.JSONEq(t, *first.Analysis.Data, *again.Analysis.Data)

	_, err = env.analyses.Analyze(ctx, "bob", AnalyzeRequest{FileID: orders.ID, Type: model.AnalysisProducts})
	assert.ErrorIs(t, err, repository.ErrFileNotFound)

	page, err := env.analyses.History(ctx, "alice", HistoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 2)
	assert.ElementsMatch(t, []string{"empty.csv", "orders.json"}, []string{page.Data[0].FileName, page.Data[1].FileName})

	f, err := env.analyses.Export(ctx, "alice", orders.ID, model.AnalysisProducts, "csv")
	require.NoError(t, err)
	assert.Contains(t, string(f.Body), "1,A,20,2,1,10,20,80\n")
}

func TestFindLatestBreaksTimestampTies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orders := upload(t, env.files, "alice", "orders.csv", productsCSV)
	now := fixedClock{}.Now()

	for i := 0; i < 40; i++ {
		older, err := NewAnalysis("alice", orders.ID, model.AnalysisSales, view.Result{}, now)
		require.NoError(t, err)
		newer, err := NewAnalysis("alice", orders.ID, model.AnalysisSales, view.Result{}, now)
		require.NoError(t, err)
		require.NoError(t, env.analyses.Save(ctx, older))
		require.NoError(t, env.analyses.Save(ctx, newer))

		latest, err := env.analyses.FindLatest(ctx, "alice", orders.ID, model.AnalysisSales)
		require.NoError(t, err)
		require.Equal(t, newer.ID, latest.ID, "iteration %d", i)
	}
}
