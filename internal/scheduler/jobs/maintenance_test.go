package jobs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/backup"
	coretesting "github.com/afadil/wealthfolio-sub005/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintenanceJob_Run_ChecksAndBacksUp(t *testing.T) {
	db, cleanup := coretesting.NewTestDB(t)
	defer cleanup()

	backupDir := t.TempDir()
	backupSvc := backup.New(db.Conn(), nil, zerolog.Nop())
	fixedTime := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

	job := NewMaintenanceJob(db, backupSvc, backupDir, zerolog.Nop())
	job.clock = func() time.Time { return fixedTime }

	require.NoError(t, job.Run())

	expected := filepath.Join(backupDir, "core-2024-03-10T09-00-00.db")
	assert.FileExists(t, expected)
}

func TestMaintenanceJob_Name(t *testing.T) {
	job := NewMaintenanceJob(nil, nil, "", zerolog.Nop())
	assert.Equal(t, "daily_maintenance", job.Name())
}
