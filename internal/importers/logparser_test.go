package importers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLog_ExtractsImportedAndSkipped(t *testing.T) {
	log := strings.Join([]string{
		"2024-03-01 10:00:00 INFO  ome.formats.importer.ImportLibrary - IMPORT_DONE Imported file: /data/a.tif ",
		"2024-03-01 10:00:01 DEBUG loci.formats.FormatHandler - reading header",
		"2024-03-01 10:00:02 INFO  ome.formats.importer.cli.ErrorHandler - ClientPath match for filename: /data/b.tif",
		"IMPORT_DONE Imported file: /data/a.tif",
	}, "\n")

	outcome, err := ParseLog(strings.NewReader(log))

	require.NoError(t, err)
	assert.Equal(t, []string{"/data/a.tif", "/data/a.tif"}, outcome.Imported)
	assert.Equal(t, []string{"/data/b.tif"}, outcome.Skipped)
}

func TestParseLog_LineWithBothMarkers(t *testing.T) {
	line := "ClientPath match for filename: x IMPORT_DONE Imported file: /data/c.czi"

	outcome, err := ParseLog(strings.NewReader(line))

	require.NoError(t, err)
	assert.Equal(t, []string{"/data/c.czi"}, outcome.Imported)
	assert.Equal(t, []string{"x IMPORT_DONE Imported file: /data/c.czi"}, outcome.Skipped)
}

func TestParseLog_Empty(t *testing.T) {
	outcome, err := ParseLog(strings.NewReader(""))

	require.NoError(t, err)
	assert.True(t, outcome.IsEmpty())
}

func TestParseLog_LongLines(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	log := long + "\nIMPORT_DONE Imported file: /data/after-long-line.tif\n"

	outcome, err := ParseLog(strings.NewReader(log))

	require.NoError(t, err)
	assert.Equal(t, []string{"/data/after-long-line.tif"}, outcome.Imported)
}

func TestParseLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errs.log")
	require.NoError(t, os.WriteFile(path, []byte("IMPORT_DONE Imported file: /d/1.tif\n"), 0o644))

	outcome, err := ParseLogFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/d/1.tif"}, outcome.Imported)

	_, err = ParseLogFile(filepath.Join(t.TempDir(), "missing.log"))
	assert.Error(t, err)
}
