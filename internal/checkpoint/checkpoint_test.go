package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingLogStartsFresh(t *testing.T) {
	dir := t.TempDir()

	log := Load(dir)

	assert.Equal(t, -1, log.LastCompleted)
	assert.NotEmpty(t, log.RunID)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	first := Load(dir)
	first.LastCompleted = 4
	require.NoError(t, Save(dir, first))

	second := Load(dir)
	assert.Equal(t, 4, second.LastCompleted)
	assert.Equal(t, first.RunID, second.RunID, "run ID should survive a resume")
}

func TestLoadCorruptLogStartsFresh(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, runLogName), []byte("not json"), 0644))

	log := Load(dir)

	assert.Equal(t, -1, log.LastCompleted)
	assert.NotEmpty(t, log.RunID)
}

func TestResetRemovesLog(t *testing.T) {
	dir := t.TempDir()

	log := Load(dir)
	log.LastCompleted = 7
	require.NoError(t, Save(dir, log))
	require.NoError(t, Reset(dir))

	fresh := Load(dir)
	assert.Equal(t, -1, fresh.LastCompleted)
	assert.NotEqual(t, log.RunID, fresh.RunID)
}

func TestResetMissingLogIsNoop(t *testing.T) {
	assert.NoError(t, Reset(t.TempDir()))
}
