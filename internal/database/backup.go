package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shareit/internal/config"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

const (
	backupPrefix          = "backup_"
	backupTimeLayout      = "20060102_150405.000"
	defaultBackupInterval = 24 * time.Hour
)

// Snapshotter writes a consistent copy of the database to a file.
type Snapshotter interface {
	SnapshotTo(ctx context.Context, dst string) error
}

// Uploader ships a finished backup file off the host.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader) error
}

// Backup describes one finished run. Key is empty when nothing was uploaded.
type Backup struct {
	Path string
	Key  string
}

type BackupService struct {
	source   Snapshotter
	cfg      config.BackupConfig
	uploader Uploader
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewBackupService builds a periodic backup runner. uploader may be nil.
func NewBackupService(source Snapshotter, cfg config.BackupConfig, uploader Uploader, logger *zerolog.Logger) *BackupService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BackupService{source: source, cfg: cfg, uploader: uploader, logger: logger, now: time.Now}
}

// Start backs up once right away, then every interval until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("backups disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Msg("backup loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("backup failed")
		}
		if n := s.Prune(); n > 0 {
			s.logger.Info().Int("removed", n).Msg("old backups pruned")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *BackupService) interval() time.Duration {
	if s.cfg.Schedule == "" {
		return defaultBackupInterval
	}
	d, err := time.ParseDuration(s.cfg.Schedule)
	if err != nil || d <= 0 {
		s.logger.Warn().Str("schedule", s.cfg.Schedule).Msg("bad backup schedule, using 24h")
		return defaultBackupInterval
	}
	return d
}

// Run takes one snapshot, compresses it when configured and uploads it when
// an uploader is set. A failed upload still leaves the local file in place.
func (s *BackupService) Run(ctx context.Context) (Backup, error) {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return Backup{}, fmt.Errorf("create backup dir: %w", err)
	}

	name := backupPrefix + s.now().UTC().Format(backupTimeLayout) + ".db"
	path := filepath.Join(s.cfg.StoragePath, name)
	if err := s.source.SnapshotTo(ctx, path); err != nil {
		return Backup{}, err
	}

	if s.cfg.Compress {
		zst, err := compressFile(path)
		if err != nil {
			return Backup{}, err
		}
		path = zst
	}

	b := Backup{Path: path}
	if s.uploader == nil {
		s.logger.Info().Str("path", path).Msg("backup written")
		return b, nil
	}

	b.Key = s.objectKey(filepath.Base(path))
	if err := s.upload(ctx, path, b.Key); err != nil {
		return Backup{Path: path}, err
	}
	s.logger.Info().Str("path", path).Str("key", b.Key).Msg("backup uploaded")
	return b, nil
}

func (s *BackupService) objectKey(name string) string {
	if prefix := strings.Trim(s.cfg.S3.Prefix, "/"); prefix != "" {
		return prefix + "/" + name
	}
	return name
}

func (s *BackupService) upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	if err := s.uploader.Upload(ctx, key, f); err != nil {
		return fmt.Errorf("upload backup: %w", err)
	}
	return nil
}

// compressFile writes path.zst and removes the original.
func compressFile(path string) (string, error) {
	dstPath := path + ".zst"
	if err := writeZstd(path, dstPath); err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove uncompressed backup: %w", err)
	}
	return dstPath, nil
}

func writeZstd(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create compressed backup: %w", err)
	}
	defer dst.Close()

	enc, err := zstd.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		_ = enc.Close()
		return fmt.Errorf("compress backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush compressed backup: %w", err)
	}
	return dst.Sync()
}

// Prune deletes local backups older than the retention window and returns how
// many were removed. Non-backup files in the directory are left alone.
func (s *BackupService) Prune() int {
	if s.cfg.RetentionDays <= 0 {
		return 0
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("read backup dir")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.StoragePath, e.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", e.Name()).Msg("remove old backup")
			continue
		}
		removed++
	}
	return removed
}
