package storage

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/cjeanneret/LapseGo/internal/debug"
)

// Meter estimates remaining storage capacity in whole shots.
type Meter interface {
	RemainingShots() (int, error)
}

// DiskMeter derives remaining shots from the free space of the filesystem
// holding the photo directory, divided by a configured per-shot size.
type DiskMeter struct {
	path         string
	bytesPerShot int64
}

// NewDiskMeter creates a meter for the filesystem containing path.
// bytesPerShot <= 0 defaults to 8 MiB, a sane figure for large JPEGs.
func NewDiskMeter(path string, bytesPerShot int64) *DiskMeter {
	if bytesPerShot <= 0 {
		bytesPerShot = 8 << 20
	}
	return &DiskMeter{path: path, bytesPerShot: bytesPerShot}
}

// RemainingShots returns free-bytes / bytes-per-shot, floored.
func (m *DiskMeter) RemainingShots() (int, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(m.path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", m.path, err)
	}
	free := int64(st.Bavail) * st.Bsize
	shots := free / m.bytesPerShot
	debug.Trace("storage: %d bytes free on %s -> %d shots", free, m.path, shots)
	return int(shots), nil
}

// Unlimited is used when no storage path is configured; the loop's
// exhaustion check then never fires.
type Unlimited struct{}

func (Unlimited) RemainingShots() (int, error) {
	return int(^uint(0) >> 1), nil
}
