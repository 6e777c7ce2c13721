package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	dryRun, mappingFile, databaseURL = false, "", ""
	exportFormat, exportFrom, exportTo, exportPincodes = "csv", "", "", nil
	err := rootCmd.Execute()
	return out.String(), err
}

func TestImportProspectsDryRun(t *testing.T) {
	dir := t.TempDir()
	sheet := filepath.Join(dir, "prospects.csv")
	require.NoError(t, os.WriteFile(sheet, []byte("Outlet,PIN\nCafe Mocha,560001\nBroken,12\n"), 0o600))
	mapping := filepath.Join(dir, "mapping.yaml")
	require.NoError(t, os.WriteFile(mapping, []byte("restaurant_name: Outlet\npincode: PIN\n"), 0o600))

	out, err := runCLI(t, "import", "prospects", sheet, "--mapping", mapping, "--dry-run", "-q")
	require.NoError(t, err)

	var report importReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Valid)
	assert.Zero(t, report.Inserted)
	require.Len(t, report.Rejects, 1)
	assert.Equal(t, 3, report.Rejects[0].Line)
}

func TestImportProspectsNeedsDatabase(t *testing.T) {
	sheet := filepath.Join(t.TempDir(), "prospects.csv")
	require.NoError(t, os.WriteFile(sheet, []byte("restaurant_name,pincode\nCafe Mocha,560001\n"), 0o600))

	_, err := runCLI(t, "import", "prospects", sheet, "--database-url", "", "-q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestExportLeadsValidatesFlags(t *testing.T) {
	_, err := runCLI(t, "export", "leads", "--format", "pdf", "-q")
	assert.ErrorContains(t, err, "unsupported format")

	_, err = runCLI(t, "export", "leads", "--from", "2026-02-10", "--to", "2026-02-01", "-q")
	assert.ErrorContains(t, err, "from must not be after to")

	_, err = runCLI(t, "export", "leads", "--pincode", "12", "-q")
	assert.ErrorContains(t, err, "invalid pincode")
}
