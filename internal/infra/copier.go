package infra

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// BackupDirPrefix prefixes every backup directory created on a device.
const BackupDirPrefix = "eb-agent-backup-"

const backupTimeLayout = "20060102-150405"

// VolumeCopier implements domain.Copier by copying folders onto <volumesRoot>/<device>.
type VolumeCopier struct {
	volumesRoot string
	fs          domain.FileSystemManager
	logger      *zap.Logger
	now         func() time.Time
}

// NewVolumeCopier creates a copier for devices mounted under volumesRoot.
func NewVolumeCopier(volumesRoot string, fsm domain.FileSystemManager, logger *zap.Logger) *VolumeCopier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VolumeCopier{
		volumesRoot: volumesRoot,
		fs:          fsm,
		logger:      logger,
		now:         time.Now,
	}
}

// Copy copies every folder into a fresh timestamped directory on the device.
// Each folder lands under its base name; clashing names get -2, -3, ... suffixes.
func (c *VolumeCopier) Copy(ctx context.Context, deviceName string, folders []string) (report domain.BackupReport) {
	report = domain.BackupReport{
		ID:        uuid.NewString(),
		Device:    deviceName,
		Folders:   append([]string(nil), folders...),
		StartedAt: c.now(),
	}
	defer func() { report.FinishedAt = c.now() }()

	deviceRoot := filepath.Join(c.volumesRoot, deviceName)
	if info, err := os.Stat(deviceRoot); err != nil || !info.IsDir() {
		report.Errors = append(report.Errors, fmt.Errorf("device %s not mounted at %s", deviceName, deviceRoot))
		c.logger.Warn("backup skipped, device not mounted",
			zap.String("device", deviceName),
			zap.String("path", deviceRoot))
		return report
	}

	report.Destination = filepath.Join(deviceRoot, BackupDirPrefix+report.StartedAt.Format(backupTimeLayout))
	if err := os.MkdirAll(report.Destination, 0755); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("create backup directory: %w", err))
		c.logger.Error("backup failed", zap.String("destination", report.Destination), zap.Error(err))
		return report
	}

	c.logger.Info("backup started",
		zap.String("id", report.ID),
		zap.String("destination", report.Destination),
		zap.Strings("folders", folders))

	used := make(map[string]int)
	for _, folder := range folders {
		src := filepath.Clean(c.fs.ExpandHome(folder))
		name := uniqueName(used, filepath.Base(src))

		if err := c.copyTree(ctx, src, filepath.Join(report.Destination, name), &report); err != nil {
			report.Errors = append(report.Errors, err)
			c.logger.Warn("backup interrupted", zap.Error(err))
			break
		}
	}

	c.logger.Info("backup finished",
		zap.String("id", report.ID),
		zap.Int("files", report.FilesCopied),
		zap.String("size", humanize.Bytes(uint64(report.BytesCopied))),
		zap.Int("skipped", len(report.SkippedPaths)),
		zap.Int("errors", len(report.Errors)))

	return report
}

// copyTree copies src (a directory or a single file) to dst.
// Per-entry failures go into the report; only ctx cancellation is returned.
func (c *VolumeCopier) copyTree(ctx context.Context, src, dst string, report *domain.BackupReport) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			c.recordError(report, path, err)
			if d != nil && d.IsDir() && path != src {
				return fs.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			c.recordError(report, path, err)
			return nil
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			if err := os.MkdirAll(target, dirMode(d)); err != nil {
				c.recordError(report, path, err)
				return fs.SkipDir
			}
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err == nil {
				err = os.Symlink(link, target)
			}
			if err != nil {
				c.recordError(report, path, err)
			}
		case d.Type().IsRegular():
			n, err := copyFile(path, target)
			if err != nil {
				c.recordError(report, path, err)
				return nil
			}
			report.FilesCopied++
			report.BytesCopied += n
		default:
			report.SkippedPaths = append(report.SkippedPaths, path)
		}
		return nil
	})
}

func (c *VolumeCopier) recordError(report *domain.BackupReport, path string, err error) {
	report.Errors = append(report.Errors, fmt.Errorf("%s: %w", path, err))
	c.logger.Warn("backup entry failed", zap.String("path", path), zap.Error(err))
}

// uniqueName returns base, or base-N when base was already used.
func uniqueName(used map[string]int, base string) string {
	used[base]++
	if n := used[base]; n > 1 {
		candidate := base + "-" + strconv.Itoa(n)
		for used[candidate] > 0 {
			used[base]++
			candidate = base + "-" + strconv.Itoa(used[base])
		}
		used[candidate]++
		return candidate
	}
	return base
}

func dirMode(d fs.DirEntry) os.FileMode {
	if info, err := d.Info(); err == nil {
		return info.Mode().Perm() | 0700
	}
	return 0755
}

// copyFile copies src to dst atomically (temp file + sync + rename), keeping permissions.
func copyFile(src, dst string) (int64, error) {
	sourceFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return 0, err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".ebagent-copy-*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmpFile, sourceFile)
	if err != nil {
		tmpFile.Close()
		return 0, err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return 0, err
	}
	if err := tmpFile.Close(); err != nil {
		return 0, err
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, err
	}

	success = true
	return n, nil
}

// Ensure VolumeCopier implements domain.Copier.
var _ domain.Copier = (*VolumeCopier)(nil)
