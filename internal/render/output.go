package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yang-ling/i3pystatus/internal/device"
)

// Format selects how a scan is written to stdout
type Format string

const (
	// FormatPango writes the joined markup on one line
	FormatPango Format = "pango"
	// FormatI3bar writes one i3bar protocol block as JSON
	FormatI3bar Format = "i3bar"
	// FormatJSON writes the markup together with the classified devices
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPango, FormatI3bar, FormatJSON:
		return f, nil
	case "":
		return FormatPango, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want pango, i3bar or json)", s)
	}
}

// BlockName identifies the i3bar block
const BlockName = "usb"

// Block is an i3bar protocol status block
type Block struct {
	Name     string `json:"name"`
	FullText string `json:"full_text"`
	Color    string `json:"color,omitempty"`
	Markup   string `json:"markup"`
}

// NewBlock wraps rendered markup in an i3bar block
func NewBlock(fullText, color string) Block {
	return Block{
		Name:     BlockName,
		FullText: fullText,
		Color:    color,
		Markup:   "pango",
	}
}

type jsonOutput struct {
	FullText string          `json:"full_text"`
	Color    string          `json:"color,omitempty"`
	Devices  []device.Device `json:"devices"`
}

// Write writes one scan result in format f followed by a newline
func Write(w io.Writer, f Format, fullText, color string, devices []device.Device) error {
	switch f {
	case FormatI3bar:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(NewBlock(fullText, color))
	case FormatJSON:
		if devices == nil {
			devices = []device.Device{}
		}
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonOutput{FullText: fullText, Color: color, Devices: devices})
	default:
		_, err := fmt.Fprintln(w, fullText)
		return err
	}
}
