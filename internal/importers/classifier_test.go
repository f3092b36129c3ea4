package importers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/remote-import/internal/entities"
)

func TestClassify_SplitsRetryableAndOther(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.tif", "b.tif", "c.tif", "notes.txt", "README", ".hidden.tif")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.dir"), 0o755))

	outcome := entities.LogOutcome{
		Imported: []string{filepath.Join(dir, "a.tif")},
		Skipped:  []string{filepath.Join(dir, "b.tif")},
	}

	result, err := Classify(testLogger(), outcome, dir)

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "c.tif")}, result.Retryable)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, result.Other)
}

func TestClassify_EverythingAccounted(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.czi", "b.czi")

	outcome := entities.LogOutcome{
		Imported: []string{filepath.Join(dir, "a.czi"), filepath.Join(dir, "b.czi")},
	}

	result, err := Classify(testLogger(), outcome, dir)

	require.NoError(t, err)
	assert.Empty(t, result.Retryable)
	assert.Empty(t, result.Other)
}

func TestClassify_EmptyOutcomeTreatsAllAsOther(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.tif", "b.lsm")

	result, err := Classify(testLogger(), entities.LogOutcome{}, dir)

	require.NoError(t, err)
	assert.Empty(t, result.Retryable)
	assert.Equal(t, []string{filepath.Join(dir, "a.tif"), filepath.Join(dir, "b.lsm")}, result.Other)
}

func TestClassify_PathsFromOtherDirectoriesIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.tif", "sub/b.tif")

	outcome := entities.LogOutcome{
		Imported: []string{filepath.Join(dir, "sub", "b.tif")},
	}

	result, err := Classify(testLogger(), outcome, dir)

	require.NoError(t, err)
	assert.Empty(t, result.Retryable)
	assert.Equal(t, []string{filepath.Join(dir, "a.tif")}, result.Other)
}

func TestClassify_MissingDirectory(t *testing.T) {
	_, err := Classify(testLogger(), entities.LogOutcome{}, filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}

func TestClassify_RelativeDirectoryMatchesAbsoluteOutcome(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.tif", "b.tif")
	cwd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(cwd, dir)
	require.NoError(t, err)

	outcome := entities.LogOutcome{
		Imported: []string{filepath.Join(dir, "a.tif")},
	}

	result, err := Classify(testLogger(), outcome, rel)

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.tif")}, result.Retryable)
	assert.Empty(t, result.Other)
}
