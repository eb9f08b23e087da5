package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yang-ling/i3pystatus/internal/udev"
)

func TestDefaultExcludesNothing(t *testing.T) {
	c := Default()

	assert.False(t, c.FastExclude("/dev/sda1"))
	assert.False(t, c.Exclude("/dev/sda1", udev.AttributeMap{udev.KeyDevName: "/dev/sda1"}))
	assert.False(t, c.Exclude("/dev/sda1", nil))
}

func TestPathPrefix(t *testing.T) {
	c := Chain{Pre: PathPrefix("/dev/sda", "/dev/nvme0n1")}

	assert.True(t, c.FastExclude("/dev/sda1"))
	assert.True(t, c.FastExclude("/dev/nvme0n1p2"))
	assert.False(t, c.FastExclude("/dev/sdb1"))
}

func TestPathPrefixIgnoresEmptyPrefix(t *testing.T) {
	assert.False(t, PathPrefix("")("/dev/sdb1"))
}

func TestAttributePrefix(t *testing.T) {
	c := Chain{Post: AttributePrefix(udev.KeyDevName, "/dev/sda")}

	assert.True(t, c.Exclude("/dev/disk/by-label/ROOT", udev.AttributeMap{udev.KeyDevName: "/dev/sda2"}))
	assert.False(t, c.Exclude("/dev/sdb1", udev.AttributeMap{udev.KeyDevName: "/dev/sdb1"}))
	assert.False(t, c.Exclude("/dev/sdb1", udev.AttributeMap{}), "missing attribute keeps the device")
}

func TestAttributeEquals(t *testing.T) {
	f := AttributeEquals(map[string]string{"ID_BUS": "ata", "ID_TYPE": "disk"})

	assert.True(t, f("/dev/sda", udev.AttributeMap{"ID_BUS": "ata", "ID_TYPE": "disk", "ID_FS_TYPE": "ext4"}))
	assert.False(t, f("/dev/sdb", udev.AttributeMap{"ID_BUS": "usb", "ID_TYPE": "disk"}))
	assert.False(t, AttributeEquals(nil)("/dev/sda", udev.AttributeMap{"ID_BUS": "ata"}))
}

func TestAny(t *testing.T) {
	pre := AnyPre(nil, PathPrefix("/dev/loop"), PathPrefix("/dev/zram"))
	assert.True(t, pre("/dev/zram0"))
	assert.False(t, pre("/dev/sdb"))
	assert.False(t, AnyPre()("/dev/sdb"))

	post := AnyPost(AttributeEquals(map[string]string{"ID_BUS": "ata"}), AttributePrefix(udev.KeyDevName, "/dev/nvme"))
	assert.True(t, post("/dev/x", udev.AttributeMap{udev.KeyDevName: "/dev/nvme0n1p1"}))
	assert.False(t, post("/dev/x", udev.AttributeMap{"ID_BUS": "usb"}))
}
