package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yang-ling/i3pystatus/internal/command"
	"github.com/yang-ling/i3pystatus/internal/config"
	"github.com/yang-ling/i3pystatus/internal/device"
	"github.com/yang-ling/i3pystatus/internal/filter"
	"github.com/yang-ling/i3pystatus/internal/render"
	"github.com/yang-ling/i3pystatus/internal/udev"
)

const sep = "<span color='gray'> | </span>"

// system is a fake machine with one partitionless disk, a locked LUKS
// partition, a read-only unlocked crypt root, a mounted plain partition,
// an extended partition and a CD drive.
func system() *command.Fake {
	return command.NewFake().
		Set("lsblk -spndo NAME", strings.Join([]string{
			"/dev/sdb",
			"/dev/sdc1",
			"/dev/mapper/cryptroot",
			"/dev/sdd1",
			"/dev/sdd2",
			"/dev/sr0",
		}, "\n")+"\n").
		// partitionless disk
		Set("udevadm info --query=property --name=/dev/sdb", "DEVNAME=/dev/sdb\nDEVTYPE=disk\n").
		Set("lsblk -no TYPE /dev/sdb", "disk\n").
		Set("lsblk -ndso KNAME /dev/sdb", "sdb\n").
		// locked LUKS partition
		Set("udevadm info --query=property --name=/dev/sdc1", "DEVNAME=/dev/sdc1\nID_FS_TYPE=crypto_LUKS\n").
		Set("lsblk -no TYPE /dev/sdc1", "part\n").
		Set("lsblk -ndso KNAME /dev/sdc1", "sdc1\n").
		// read-only unlocked crypt root
		Set("udevadm info --query=property --name=/dev/mapper/cryptroot", "DEVNAME=/dev/dm-0\nID_FS_TYPE=ext4\n").
		Set("lsblk -no TYPE /dev/mapper/cryptroot", "crypt\n").
		Set("lsblk -ndo MOUNTPOINT /dev/mapper/cryptroot", "/\n").
		Set("findmnt -no FS-OPTIONS /dev/mapper/cryptroot", "ro,relatime\n").
		Set("lsblk -ndso KNAME /dev/mapper/cryptroot", "cryptroot\n").
		Set("lsblk -nso KNAME /dev/mapper/cryptroot", "cryptroot\nsdb1\nsdb\n").
		// mounted plain partition whose df output is malformed
		Set("udevadm info --query=property --name=/dev/sdd1",
			"DEVNAME=/dev/sdd1\nID_FS_TYPE=vfat\nID_FS_LABEL_ENC=R\\x26D\n").
		Set("lsblk -no TYPE /dev/sdd1", "part\n").
		Set("lsblk -ndso KNAME /dev/sdd1", "sdd1\n").
		Set("lsblk -ndo MOUNTPOINT /dev/sdd1", "/media/R&D\n").
		Set("findmnt -no FS-OPTIONS /dev/sdd1", "rw,nosuid\n").
		Set("df -h --output=avail /dev/sdd1", "Avail\n").
		// extended partition
		Set("udevadm info --query=property --name=/dev/sdd2", "DEVNAME=/dev/sdd2\nID_PART_ENTRY_TYPE=0xf\n").
		Set("lsblk -no TYPE /dev/sdd2", "part\n").
		// CD drive
		Set("udevadm info --query=property --name=/dev/sr0", "DEVNAME=/dev/sr0\n").
		Set("lsblk -no TYPE /dev/sr0", "rom\n")
}

func TestRunRendersEveryVisibleDevice(t *testing.T) {
	p := New(config.Default(), system(), nil)

	out, err := p.Run(context.Background())
	require.NoError(t, err)

	expect := []string{
		"<span color='red'>[sdb] no partitions</span>",
		"<span color='gray'>[" + render.GlyphLock + " sdc1]</span>",
		"<span color='green'>[" + render.GlyphUnlock + " sdb1:cryptroot]</span> <i>/</i>: ro",
		"<span color='green'>[sdd1]</span> \"R&amp;D\" <i>/media/R&amp;D</i>:",
	}
	assert.Equal(t, strings.Join(expect, sep), out.FullText)
	assert.Empty(t, out.Color)

	require.Len(t, out.Devices, 4)
	assert.Equal(t, device.StatePartitionless, out.Devices[0].State)
	assert.Equal(t, device.StateLocked, out.Devices[1].State)
	assert.Equal(t, device.StateUnlockedMounted, out.Devices[2].State)
	assert.Equal(t, device.StatePlainMounted, out.Devices[3].State)
	assert.Empty(t, out.Devices[3].SpaceAvailable, "malformed df output leaves the free space empty")
}

func TestRunJoinedOutputIsWellFormed(t *testing.T) {
	out, err := New(config.Default(), system(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, out.FullText, sep+sep)
	assert.False(t, strings.HasPrefix(out.FullText, sep))
	assert.False(t, strings.HasSuffix(out.FullText, sep))
}

func TestRunMissingLsblk(t *testing.T) {
	fake := command.NewFake().Missing("lsblk")

	out, err := New(config.Default(), fake, nil).Run(context.Background())

	require.Error(t, err)
	assert.True(t, command.IsNotFound(err))
	assert.Equal(t, "", out.FullText)
	assert.Empty(t, out.Devices)
}

func TestRunNoDevices(t *testing.T) {
	fake := command.NewFake().Set("lsblk -spndo NAME", "")

	out, err := New(config.Default(), fake, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "", out.FullText)
}

func TestRunPreFilterSkipsUdevLookup(t *testing.T) {
	cfg := config.Default()
	cfg.Ignore.PathPrefixes = []string{"/dev/sdb", "/dev/sdc", "/dev/mapper", "/dev/sdd", "/dev/sr"}
	fake := system()

	out, err := New(cfg, fake, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "", out.FullText)
	for _, call := range fake.Calls() {
		assert.False(t, strings.HasPrefix(call, "udevadm"), call)
	}
}

func TestRunPostFilters(t *testing.T) {
	cfg := config.Default()
	cfg.Ignore.DevNamePrefixes = []string{"/dev/dm-"}
	cfg.Ignore.Attributes = map[string]string{"ID_FS_TYPE": "crypto_LUKS"}
	fake := system()

	out, err := New(cfg, fake, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, out.Devices, 2)
	assert.Equal(t, "sdb", out.Devices[0].KernelName)
	assert.Equal(t, "sdd1", out.Devices[1].KernelName)
	assert.NotContains(t, fake.Calls(), "lsblk -no TYPE /dev/sdc1", "excluded devices are never classified")
}

func TestRunWithFilterOverride(t *testing.T) {
	onlyDisks := filter.Chain{
		Post: func(_ string, attrs udev.AttributeMap) bool { return attrs.Get("DEVTYPE") != "disk" },
	}

	out, err := New(config.Default(), system(), nil, WithFilter(onlyDisks)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "<span color='red'>[sdb] no partitions</span>", out.FullText)
}

type mapResolver map[string]udev.AttributeMap

func (m mapResolver) Resolve(_ context.Context, path string) (udev.AttributeMap, error) {
	return m[path], nil
}

func TestRunFallsBackWhenUdevadmMissing(t *testing.T) {
	fake := command.NewFake().
		Missing("udevadm").
		Set("lsblk -spndo NAME", "/dev/sdc1\n").
		Set("lsblk -no TYPE /dev/sdc1", "part\n").
		Set("lsblk -ndso KNAME /dev/sdc1", "sdc1\n")
	resolver := &udev.FallbackResolver{
		Primary:   udev.NewCommandResolver(fake),
		Secondary: mapResolver{"/dev/sdc1": {udev.KeyFSType: "crypto_LUKS"}},
	}

	out, err := New(config.Default(), fake, nil, WithResolver(resolver)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "<span color='gray'>["+render.GlyphLock+" sdc1]</span>", out.FullText)
}

func TestRunUdevFailureIsLocal(t *testing.T) {
	fake := command.NewFake().
		Set("lsblk -spndo NAME", "/dev/sdb\n/dev/sdc1\n").
		Fail("udevadm info --query=property --name=/dev/sdb", 2).
		Set("lsblk -no TYPE /dev/sdb", "disk\n").
		Set("lsblk -ndso KNAME /dev/sdb", "sdb\n").
		Set("udevadm info --query=property --name=/dev/sdc1", "ID_FS_TYPE=crypto_LUKS\n").
		Set("lsblk -no TYPE /dev/sdc1", "part\n").
		Set("lsblk -ndso KNAME /dev/sdc1", "sdc1\n")

	out, err := New(config.Default(), fake, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, out.Devices, 2)
	assert.Equal(t, device.StatePartitionless, out.Devices[0].State)
	assert.Equal(t, device.StateLocked, out.Devices[1].State)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := New(config.Default(), system(), nil).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "", out.FullText)
}

func TestRunTruncatesLabels(t *testing.T) {
	cfg := config.Default()
	n := -1
	cfg.TruncateFSLabels = &n

	out, err := New(cfg, system(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.FullText, "[sdd1]</span> \"D\" <i>")
}

func TestStyleFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Colors.Locked = "#888888"
	cfg.Glyphs.Lock = "L"

	style := StyleFrom(cfg)

	assert.Equal(t, "#888888", style.Colors.Locked)
	assert.Equal(t, "L", style.LockGlyph)
	assert.Equal(t, render.DefaultStyle().Separator, style.Separator)
}

func TestFilterChainDefaults(t *testing.T) {
	chain := FilterChain(config.Ignore{})

	assert.False(t, chain.FastExclude("/dev/sda"))
	assert.False(t, chain.Exclude("/dev/sda", udev.AttributeMap{udev.KeyDevName: "/dev/sda"}))
}
