package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/sheetlens/internal/config"
	"github.com/templui/sheetlens/internal/db"
	"github.com/templui/sheetlens/internal/parser"
	"github.com/templui/sheetlens/internal/service"
)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const ordersCSV = "product,price,quantity\nA,10,2\nB,5,1\n"

func TestAnalyzeCommandPrintsExport(t *testing.T) {
	path := writeFile(t, "orders.csv", ordersCSV)

	var stdout, stderr bytes.Buffer
	cmd := AnalyzeCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{path, "--type", "products", "--format", "csv"})
	require.NoError(t, cmd.Execute())

	assert.True(t, strings.HasPrefix(stdout.String(), "rank,product,sales"), stdout.String())
	assert.Contains(t, stderr.String(), "orders.csv: 2 rows")
}

func TestAnalyzeJSONIsPayload(t *testing.T) {
	path := writeFile(t, "orders.csv", ordersCSV)

	var stdout, stderr bytes.Buffer
	err := runAnalyze(&stdout, &stderr, path, analyzeOptions{analysisType: "sales", format: "json", clock: fixedClock{}})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &payload))
	assert.Equal(t, "sales", payload["type"])
}

func TestAnalyzeWritesIntoDirectory(t *testing.T) {
	path := writeFile(t, "orders.csv", ordersCSV)
	outDir := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := runAnalyze(&stdout, &stderr, path, analyzeOptions{analysisType: "products", format: "xlsx", out: outDir, clock: fixedClock{}})
	require.NoError(t, err)

	assert.Empty(t, stdout.String())
	info, err := os.Stat(filepath.Join(outDir, "analysis-products-2024-06-15.xlsx"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestAnalyzeRejects(t *testing.T) {
	path := writeFile(t, "orders.csv", ordersCSV)
	var stdout, stderr bytes.Buffer

	err := runAnalyze(&stdout, &stderr, path, analyzeOptions{analysisType: "forecast", format: "csv", clock: fixedClock{}})
	assert.Error(t, err)

	err = runAnalyze(&stdout, &stderr, path, analyzeOptions{analysisType: "sales", format: "pdf", clock: fixedClock{}})
	assert.Error(t, err)

	err = runAnalyze(&stdout, &stderr, writeFile(t, "notes.txt", "hi"), analyzeOptions{analysisType: "sales", format: "csv", clock: fixedClock{}})
	assert.ErrorIs(t, err, parser.ErrUnsupportedFormat)
}

func TestMintToken(t *testing.T) {
	auth := service.NewAuthService("dev-secret", time.Hour, false)

	var out bytes.Buffer
	require.NoError(t, mintToken(&out, auth, "alice", "alice@example.com"))

	id, err := auth.Identity(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "alice", id.UserID)
	assert.Equal(t, "alice@example.com", id.Email)

	assert.Error(t, mintToken(&out, auth, "alice", "not-an-email"))
}

func TestRunMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBConnection: filepath.Join(t.TempDir(), "cli.db")}

	require.NoError(t, runMigrate(cfg, db.RunMigrations))
	require.NoError(t, runMigrate(cfg, db.MigrateDown))
	require.NoError(t, runMigrate(cfg, db.RunMigrations))
}
