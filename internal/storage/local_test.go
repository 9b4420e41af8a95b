package storage

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cfg "github.com/templui/sheetlens/internal/config"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	require.NoError(t, s.Save("user-1/data.csv", strings.NewReader("a,b\n1,2\n")))

	rc, err := s.Open("user-1/data.csv")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(body))

	require.NoError(t, s.Delete("user-1/data.csv"))
	require.NoError(t, s.Delete("user-1/data.csv"))

	_, err = s.Open("user-1/data.csv")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageStaysInRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	full, err := s.resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), full)

	_, err = s.resolve("")
	assert.Error(t, err)
	_, err = s.resolve("/")
	assert.Error(t, err)
}

func TestNewSelectsDriver(t *testing.T) {
	st, err := New(&cfg.Config{StorageDriver: cfg.StorageLocal, StorageLocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, st)

	_, err = New(&cfg.Config{StorageDriver: "ftp"})
	assert.Error(t, err)
}
