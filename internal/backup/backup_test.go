package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	coretesting "github.com/afadil/wealthfolio-sub005/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupTo_CreatesVerifiedCopy(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	svc := New(db.Conn(), nil, zerolog.Nop())

	destDir := t.TempDir()
	destPath := filepath.Join(destDir, "nested", "backup.db")

	result, err := svc.BackupTo(context.Background(), destPath)
	require.NoError(t, err)
	assert.Equal(t, destPath, result.Path)
	assert.Greater(t, result.SizeBytes, int64(0))
	assert.Empty(t, result.UploadedTo)

	info, err := os.Stat(destPath)
	require.NoError(t, err)
	assert.Equal(t, result.SizeBytes, info.Size())
}

func TestBackupTo_FailsWhenDestinationExists(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()
	svc := New(db.Conn(), nil, zerolog.Nop())

	destDir := t.TempDir()
	destPath := filepath.Join(destDir, "backup.db")
	require.NoError(t, os.WriteFile(destPath, []byte("existing"), 0o644))

	_, err := svc.BackupTo(context.Background(), destPath)
	assert.Error(t, err)
}
