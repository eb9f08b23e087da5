package device

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/yang-ling/i3pystatus/internal/blockdev"
	"github.com/yang-ling/i3pystatus/internal/udev"
)

const (
	// ExtendedPartitionType is the MBR entry type of an extended partition
	ExtendedPartitionType = "0xf"

	// LUKSFSType is the filesystem type udev reports for a LUKS header
	LUKSFSType = "crypto_LUKS"
)

// Classifier turns a device path and its udev attributes into a Device
type Classifier struct {
	tools    *blockdev.Tools
	truncate *int
	log      *logrus.Entry
}

// NewClassifier creates a classifier. truncate is the label length policy
// of TruncateLabel.
func NewClassifier(tools *blockdev.Tools, truncate *int, log *logrus.Entry) *Classifier {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Classifier{
		tools:    tools,
		truncate: truncate,
		log:      log.WithField("component", "classifier"),
	}
}

// Classify determines the kind and state of path. Query failures degrade
// the affected field only; Classify never fails.
func (c *Classifier) Classify(ctx context.Context, path string, attrs udev.AttributeMap) Device {
	d := Device{
		Path:   path,
		FSType: attrs.FSType(),
		FSUUID: attrs.FSUUID(),
	}

	typ, err := c.tools.DeviceType(ctx, path)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Warn("query device type failed")
	}

	switch typ {
	case blockdev.TypePart:
		d.Kind = KindPartition
		if attrs.PartEntryType() == ExtendedPartitionType {
			d.State = StateExtendedPartitionMarker
			return d
		}
		d.KernelName = c.kernelName(ctx, path)
		if attrs.FSType() == LUKSFSType {
			d.State = StateFor(KindPartition, true, false)
			return d
		}
		c.fillMount(ctx, &d)
		d.Label = TruncateLabel(attrs.Label(), c.truncate)
		d.State = StateFor(KindPartition, false, d.MountPoint != "")

	case blockdev.TypeDisk:
		// a disk with partitions is not a leaf, so this one has none
		d.Kind = KindDisk
		d.KernelName = c.kernelName(ctx, path)
		d.State = StateFor(KindDisk, false, false)

	case blockdev.TypeCrypt:
		d.Kind = KindCryptContainer
		c.fillMount(ctx, &d)
		d.KernelName = c.kernelName(ctx, path)
		d.ParentKernelName = c.parentKernelName(ctx, path)
		d.Label = TruncateLabel(attrs.Label(), c.truncate)
		d.State = StateFor(KindCryptContainer, false, d.MountPoint != "")

	case blockdev.TypeROM:
		d.Kind = KindOptical
		d.State = StateSuppressed

	default:
		d.Kind = KindUnknown
		d.State = StateSuppressed
	}

	return d
}

func (c *Classifier) kernelName(ctx context.Context, path string) string {
	kname, err := c.tools.KernelName(ctx, path)
	if err != nil || kname == "" {
		c.log.WithError(err).WithField("path", path).Warn("query kernel name failed, using path base name")
		return filepath.Base(path)
	}
	return kname
}

func (c *Classifier) parentKernelName(ctx context.Context, path string) string {
	parent, err := c.tools.ParentKernelName(ctx, path)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Warn("query parent kernel name failed")
		return ""
	}
	return parent
}

// fillMount sets the mount point and either the read-only flag or the free
// space. A failed mount point query leaves the device unmounted.
func (c *Classifier) fillMount(ctx context.Context, d *Device) {
	log := c.log.WithField("path", d.Path)

	mountPoint, err := c.tools.MountPoint(ctx, d.Path)
	if err != nil {
		log.WithError(err).Warn("query mount point failed, treating as unmounted")
		return
	}
	d.MountPoint = mountPoint
	if mountPoint == "" {
		return
	}

	readOnly, err := c.tools.IsReadOnly(ctx, d.Path)
	if err != nil {
		log.WithError(err).Debug("query mount options failed")
	}
	if readOnly {
		d.ReadOnly = true
		return
	}

	space, err := c.tools.SpaceAvailable(ctx, d.Path)
	if err != nil {
		log.WithError(err).Debug("query free space failed")
	}
	d.SpaceAvailable = space
}
