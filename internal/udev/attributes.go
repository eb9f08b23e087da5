package udev

import (
	"strconv"
	"strings"
)

// udev property keys read by the classifier and filters
const (
	KeyDevName       = "DEVNAME"
	KeyFSType        = "ID_FS_TYPE"
	KeyFSLabelEnc    = "ID_FS_LABEL_ENC"
	KeyFSUUID        = "ID_FS_UUID"
	KeyPartEntryType = "ID_PART_ENTRY_TYPE"
)

// AttributeMap holds the udev properties of one device. A missing key reads
// as the empty string.
type AttributeMap map[string]string

// Get returns the value of key, or "" when absent
func (a AttributeMap) Get(key string) string {
	return a[key]
}

func (a AttributeMap) DevName() string       { return a[KeyDevName] }
func (a AttributeMap) FSType() string        { return a[KeyFSType] }
func (a AttributeMap) FSUUID() string        { return a[KeyFSUUID] }
func (a AttributeMap) PartEntryType() string { return a[KeyPartEntryType] }

// Label returns the decoded filesystem label
func (a AttributeMap) Label() string {
	return DecodeLabel(a[KeyFSLabelEnc])
}

// ParseProperties parses udevadm --query=property output. Each line is split
// on its first '='; lines that are not KEY=VALUE are skipped.
func ParseProperties(out string) AttributeMap {
	attrs := make(AttributeMap)
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok || !isPropertyKey(key) {
			continue
		}
		attrs[key] = value
	}
	return attrs
}

// isPropertyKey accepts names made of letters, digits and underscores
func isPropertyKey(key string) bool {
	if key == "" {
		return false
	}
	for _, c := range key {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}

// DecodeLabel reverses udev's \xNN encoding of unsafe characters, e.g.
// "My\x20Stick" becomes "My Stick". Decoded bytes are read as UTF-8.
func DecodeLabel(enc string) string {
	if !strings.Contains(enc, `\x`) {
		return enc
	}

	buf := make([]byte, 0, len(enc))
	for i := 0; i < len(enc); i++ {
		if enc[i] == '\\' && i+4 <= len(enc) && enc[i+1] == 'x' {
			if b, err := strconv.ParseUint(enc[i+2:i+4], 16, 8); err == nil {
				buf = append(buf, byte(b))
				i += 3
				continue
			}
		}
		buf = append(buf, enc[i])
	}

	return strings.ToValidUTF8(string(buf), "�")
}
