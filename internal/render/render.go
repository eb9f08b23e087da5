package render

import (
	"fmt"
	"strings"

	"github.com/yang-ling/i3pystatus/internal/device"
)

// FontAwesome lock/unlock glyphs
const (
	GlyphLock   = "\uf023"
	GlyphUnlock = "\uf09c"
)

// Colors used per device state
type Colors struct {
	Mounted            string
	Plugged            string
	Locked             string
	UnlockedNotMounted string
	Partitionless      string
}

// Style is everything the renderer needs besides the devices
type Style struct {
	Colors            Colors
	LockGlyph         string
	UnlockGlyph       string
	PartitionlessText string
	Separator         string
}

// DefaultStyle returns the stock colors, glyphs and separator
func DefaultStyle() Style {
	return Style{
		Colors: Colors{
			Mounted:            "green",
			Plugged:            "gray",
			Locked:             "gray",
			UnlockedNotMounted: "yellow",
			Partitionless:      "red",
		},
		LockGlyph:         GlyphLock,
		UnlockGlyph:       GlyphUnlock,
		PartitionlessText: "no partitions",
		Separator:         "<span color='gray'> | </span>",
	}
}

// Renderer turns classified devices into Pango markup
type Renderer struct {
	style Style
}

func New(style Style) *Renderer {
	return &Renderer{style: style}
}

var pangoReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape makes text safe to embed in Pango markup
func Escape(text string) string {
	return pangoReplacer.Replace(text)
}

// Fragment renders one device; hidden devices render as ""
func (r *Renderer) Fragment(d device.Device) string {
	c := r.style.Colors

	switch d.State {
	case device.StateLocked:
		return fmt.Sprintf("<span color='%s'>[%s %s]</span>", c.Locked, r.style.LockGlyph, Escape(d.KernelName))

	case device.StateUnlockedMounted, device.StateUnlockedUnmounted:
		color := c.UnlockedNotMounted
		if d.State == device.StateUnlockedMounted {
			color = c.Mounted
		}
		block := fmt.Sprintf("<span color='%s'>[%s %s:%s]</span>",
			color, r.style.UnlockGlyph, Escape(d.ParentKernelName), Escape(d.KernelName))
		return r.withDetails(block, d)

	case device.StatePlainMounted, device.StatePlainUnmounted:
		color := c.Plugged
		if d.State == device.StatePlainMounted {
			color = c.Mounted
		}
		block := fmt.Sprintf("<span color='%s'>[%s]</span>", color, Escape(d.KernelName))
		return r.withDetails(block, d)

	case device.StatePartitionless:
		return fmt.Sprintf("<span color='%s'>[%s] %s</span>",
			c.Partitionless, Escape(d.KernelName), r.style.PartitionlessText)

	case device.StateExtendedPartitionMarker, device.StateSuppressed:
		return ""
	}

	return ""
}

// withDetails appends the quoted label, the mount point and the free space
func (r *Renderer) withDetails(block string, d device.Device) string {
	items := []string{block}

	if d.Label != "" {
		items = append(items, `"`+Escape(d.Label)+`"`)
	}

	if d.State.Mounted() && d.MountPoint != "" {
		items = append(items, fmt.Sprintf("<i>%s</i>:", Escape(d.MountPoint)))
		if d.ReadOnly {
			items = append(items, "ro")
		} else if d.SpaceAvailable != "" {
			items = append(items, Escape(d.SpaceAvailable))
		}
	}

	return strings.Join(items, " ")
}

// Join concatenates the non-empty fragments with the separator
func (r *Renderer) Join(fragments []string) string {
	var kept []string
	for _, f := range fragments {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, r.style.Separator)
}

// Render renders and joins devices in order
func (r *Renderer) Render(devices []device.Device) string {
	fragments := make([]string, 0, len(devices))
	for _, d := range devices {
		fragments = append(fragments, r.Fragment(d))
	}
	return r.Join(fragments)
}
