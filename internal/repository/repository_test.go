package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/sheetlens/internal/db"
	"github.com/templui/sheetlens/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
	return conn
}

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seedFile(t *testing.T, repo FileRepository, id, userID string, at time.Time) *model.File {
	t.Helper()
	f := &model.File{
		ID:           id,
		UserID:       userID,
		Filename:     id + ".csv",
		OriginalName: "orders-" + id + ".csv",
		MimeType:     "text/csv",
		Size:         42,
		StoragePath:  "uploads/" + userID + "/" + id + ".csv",
		Checksum:     "00000000deadbeef",
		CreatedAt:    at,
	}
	require.NoError(t, repo.Create(f))
	return f
}
