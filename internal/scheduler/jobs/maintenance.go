package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/backup"
	"github.com/afadil/wealthfolio-sub005/internal/database"
	"github.com/rs/zerolog"
)

// MaintenanceJob runs the daily housekeeping sweep over the single core
// database: a WAL checkpoint, an integrity check, and a timestamped
// backup.
type MaintenanceJob struct {
	db        *database.DB
	backupSvc *backup.Service
	backupDir string
	clock     func() time.Time
	log       zerolog.Logger
}

// NewMaintenanceJob builds a MaintenanceJob.
func NewMaintenanceJob(db *database.DB, backupSvc *backup.Service, backupDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:        db,
		backupSvc: backupSvc,
		backupDir: backupDir,
		clock:     time.Now,
		log:       log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Name satisfies scheduler.Job.
func (j *MaintenanceJob) Name() string { return "daily_maintenance" }

// Run satisfies scheduler.Job.
func (j *MaintenanceJob) Run() error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if err := j.db.HealthCheck(context.Background()); err != nil {
		return fmt.Errorf("maintenance: integrity check failed: %w", err)
	}

	if err := os.MkdirAll(j.backupDir, 0o755); err != nil {
		return fmt.Errorf("maintenance: create backup directory: %w", err)
	}
	destPath := filepath.Join(j.backupDir, fmt.Sprintf("core-%s.db", j.clock().Format("2006-01-02T15-04-05")))

	result, err := j.backupSvc.BackupTo(context.Background(), destPath)
	if err != nil {
		return fmt.Errorf("maintenance: backup failed: %w", err)
	}
	j.log.Info().Str("path", result.Path).Int64("size_bytes", result.SizeBytes).Msg("daily backup completed")
	return nil
}
