package blockdev

import (
	"context"
	"strings"

	"github.com/yang-ling/i3pystatus/internal/command"
)

// Device types reported by lsblk TYPE
const (
	TypeDisk  = "disk"
	TypePart  = "part"
	TypeCrypt = "crypt"
	TypeROM   = "rom"
)

// Tools wraps the lsblk, findmnt and df invocations
type Tools struct {
	runner command.Runner
}

// NewTools creates a Tools running commands through r
func NewTools(r command.Runner) *Tools {
	return &Tools{runner: r}
}

// LeafPaths lists the paths of block devices with no children
func (t *Tools) LeafPaths(ctx context.Context) ([]string, error) {
	out, err := t.runner.Run(ctx, "lsblk", "-spndo", "NAME")
	if err != nil {
		return nil, err
	}
	return parseLeafPaths(out), nil
}

// KernelName returns the kernel name of path, e.g. "sdb1"
func (t *Tools) KernelName(ctx context.Context, path string) (string, error) {
	out, err := t.runner.Run(ctx, "lsblk", "-ndso", "KNAME", path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// DeviceType returns the lsblk TYPE of path (disk, part, crypt, rom, ...)
func (t *Tools) DeviceType(ctx context.Context, path string) (string, error) {
	out, err := t.runner.Run(ctx, "lsblk", "-no", "TYPE", path)
	if err != nil {
		return "", err
	}
	return firstLine(out), nil
}

// MountPoint returns where path is mounted, or "" when it is not
func (t *Tools) MountPoint(ctx context.Context, path string) (string, error) {
	out, err := t.runner.Run(ctx, "lsblk", "-ndo", "MOUNTPOINT", path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// MountOptions returns the filesystem options of a mounted path
func (t *Tools) MountOptions(ctx context.Context, path string) ([]string, error) {
	out, err := t.runner.Run(ctx, "findmnt", "-no", "FS-OPTIONS", path)
	if err != nil {
		return nil, err
	}
	return parseMountOptions(out), nil
}

// IsReadOnly reports whether the mount options of path contain "ro"
func (t *Tools) IsReadOnly(ctx context.Context, path string) (bool, error) {
	opts, err := t.MountOptions(ctx, path)
	if err != nil {
		return false, err
	}
	for _, o := range opts {
		if o == "ro" {
			return true, nil
		}
	}
	return false, nil
}

// SpaceAvailable returns the human readable free space of a mounted path.
// An unexpected df table yields a *ParseError.
func (t *Tools) SpaceAvailable(ctx context.Context, path string) (string, error) {
	out, err := t.runner.Run(ctx, "df", "-h", "--output=avail", path)
	if err != nil {
		return "", err
	}
	return parseSpaceAvailable(out)
}

// ParentKernelName returns the kernel name one level up the device tree,
// or "" for a device without a parent.
func (t *Tools) ParentKernelName(ctx context.Context, path string) (string, error) {
	out, err := t.runner.Run(ctx, "lsblk", "-nso", "KNAME", path)
	if err != nil {
		return "", err
	}
	return parseParentKernelName(out), nil
}
