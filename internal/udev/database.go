package udev

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultSysBlockDir = "/sys/class/block"
	DefaultDataDir     = "/run/udev/data"
)

// DatabaseResolver reads the udev database directly (no udevadm process).
// The device's major:minor comes from sysfs; its properties from the E:
// lines of /run/udev/data/b<major>:<minor>.
type DatabaseResolver struct {
	SysBlockDir string
	DataDir     string
}

func NewDatabaseResolver() *DatabaseResolver {
	return &DatabaseResolver{
		SysBlockDir: DefaultSysBlockDir,
		DataDir:     DefaultDataDir,
	}
}

// Resolve implements Resolver
func (r *DatabaseResolver) Resolve(_ context.Context, path string) (AttributeMap, error) {
	// /dev/mapper/* are symlinks to /dev/dm-N
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	kname := filepath.Base(resolved)

	data, err := os.ReadFile(filepath.Join(r.SysBlockDir, kname, "dev"))
	if err != nil {
		return nil, fmt.Errorf("read major:minor of %s: %w", kname, err)
	}
	majMin := strings.TrimSpace(string(data))

	file, err := os.Open(filepath.Join(r.DataDir, "b"+majMin))
	if err != nil {
		return nil, fmt.Errorf("open udev database entry of %s: %w", kname, err)
	}
	defer file.Close()

	attrs := make(AttributeMap)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		// Lines starting with E: are environment variables
		if !strings.HasPrefix(line, "E:") {
			continue
		}

		key, value, ok := strings.Cut(strings.TrimPrefix(line, "E:"), "=")
		if !ok || !isPropertyKey(key) {
			continue
		}
		attrs[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read udev database entry of %s: %w", kname, err)
	}

	// udevadm reports DEVNAME, the database does not store it
	if _, ok := attrs[KeyDevName]; !ok {
		attrs[KeyDevName] = "/dev/" + kname
	}

	return attrs, nil
}
