// Package backup implements the backup_to(path) admin operation: a local
// copy of the database, with an optional upload leg to an S3-compatible
// bucket. The local copy uses VACUUM INTO for an atomic, WAL-free copy,
// followed by a PRAGMA integrity_check pass against the copy itself. The
// copy is a rewritten single file: it is not byte-identical to the source
// database file, and no WAL/SHM sidecar files are copied.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/coreerrors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Service performs local backups of the core database and optionally
// uploads them to an S3-compatible bucket.
type Service struct {
	db       *sql.DB
	uploader *Uploader // nil when cloud backup is disabled
	log      zerolog.Logger
}

// New builds a Service. uploader may be nil, in which case BackupTo only
// performs the local copy.
func New(db *sql.DB, uploader *Uploader, log zerolog.Logger) *Service {
	return &Service{db: db, uploader: uploader, log: log.With().Str("component", "backup_service").Logger()}
}

// Result describes one completed backup.
type Result struct {
	Path       string
	SizeBytes  int64
	UploadedTo string // empty if no cloud upload was performed
	CreatedAt  time.Time
}

// BackupTo performs an atomic local copy of the database to destPath via
// VACUUM INTO, verifies it with PRAGMA integrity_check, and, if a cloud
// uploader is configured, uploads the resulting file afterward.
func (s *Service) BackupTo(ctx context.Context, destPath string) (Result, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return Result{}, coreerrors.NewDatabaseError("create backup directory", err)
	}
	if _, err := os.Stat(destPath); err == nil {
		return Result{}, coreerrors.NewValidationError(fmt.Sprintf("backup destination %s already exists", destPath))
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return Result{}, coreerrors.NewDatabaseError("VACUUM INTO backup", err)
	}

	if err := verifyBackup(destPath); err != nil {
		_ = os.Remove(destPath)
		return Result{}, err
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return Result{}, coreerrors.NewDatabaseError("stat backup file", err)
	}

	result := Result{Path: destPath, SizeBytes: info.Size(), CreatedAt: time.Now()}

	if s.uploader != nil {
		key := filepath.Base(destPath)
		if err := s.uploader.Upload(ctx, key, destPath); err != nil {
			s.log.Warn().Err(err).Str("path", destPath).Msg("local backup succeeded but cloud upload failed")
			return result, err
		}
		result.UploadedTo = key
	}

	s.log.Info().Str("path", destPath).Int64("size_bytes", result.SizeBytes).Msg("backup completed")
	return result, nil
}

// verifyBackup opens the freshly written backup file as its own SQLite
// connection and runs PRAGMA integrity_check against it, exactly as the
// teacher's verifyBackup does.
func verifyBackup(path string) error {
	backupDB, err := sql.Open("sqlite", path)
	if err != nil {
		return coreerrors.NewDatabaseError("open backup for verification", err)
	}
	defer backupDB.Close()

	var result string
	if err := backupDB.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return coreerrors.NewDatabaseError("backup integrity check query", err)
	}
	if result != "ok" {
		return coreerrors.NewDatabaseError("backup integrity check", fmt.Errorf("integrity_check returned %q", result))
	}
	return nil
}
