package infra

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// partitionSource abstracts gopsutil disk queries (for testing).
type partitionSource interface {
	Partitions(ctx context.Context) ([]disk.PartitionStat, error)
	Usage(ctx context.Context, path string) (*disk.UsageStat, error)
}

type gopsutilDisks struct{}

func (gopsutilDisks) Partitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, false)
}

func (gopsutilDisks) Usage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

// VolumeDeviceLister implements domain.DeviceLister for volumes mounted directly under a root.
type VolumeDeviceLister struct {
	volumesRoot string
	disks       partitionSource
}

// NewVolumeDeviceLister creates a lister for devices mounted under volumesRoot.
func NewVolumeDeviceLister(volumesRoot string) *VolumeDeviceLister {
	return &VolumeDeviceLister{volumesRoot: filepath.Clean(volumesRoot), disks: gopsutilDisks{}}
}

// List returns the mounted devices, sorted by name. Devices whose usage cannot be read are skipped.
func (l *VolumeDeviceLister) List(ctx context.Context) ([]domain.ExternalDevice, error) {
	parts, err := l.disks.Partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	seen := make(map[string]bool)
	var devices []domain.ExternalDevice
	for _, p := range parts {
		mount := filepath.Clean(p.Mountpoint)
		if filepath.Dir(mount) != l.volumesRoot || mount == l.volumesRoot {
			continue
		}
		name := filepath.Base(mount)
		if seen[name] || strings.HasPrefix(name, ".") {
			continue
		}

		usage, err := l.disks.Usage(ctx, mount)
		if err != nil {
			continue
		}
		seen[name] = true
		devices = append(devices, domain.ExternalDevice{
			Name:       name,
			MountPoint: mount,
			FreeBytes:  usage.Free,
			TotalBytes: usage.Total,
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

// Ensure VolumeDeviceLister implements domain.DeviceLister.
var _ domain.DeviceLister = (*VolumeDeviceLister)(nil)
