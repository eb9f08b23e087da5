package blockdev

import (
	"fmt"
	"strings"
)

// ParseError reports tool output that does not have the expected shape
type ParseError struct {
	Tool   string
	Reason string
	Output string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unexpected output: %s", e.Tool, e.Reason)
}

// parseLeafPaths splits lsblk -spndo NAME output, dropping blank lines
func parseLeafPaths(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	return paths
}

func parseMountOptions(out string) []string {
	return strings.Split(strings.TrimSpace(out), ",")
}

// parseSpaceAvailable expects a header, one value and the trailing newline:
//
//	Avail
//	 3.2G
func parseSpaceAvailable(out string) (string, error) {
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		return "", &ParseError{
			Tool:   "df",
			Reason: fmt.Sprintf("expected 3 lines, got %d", len(lines)),
			Output: out,
		}
	}
	return strings.TrimSpace(lines[1]), nil
}

// parseParentKernelName takes the second line of lsblk -nso KNAME; the
// first line is the device itself.
func parseParentKernelName(out string) string {
	lines := strings.Split(out, "\n")
	if len(lines) > 2 {
		return strings.TrimRight(lines[1], "\n")
	}
	return ""
}

func firstLine(out string) string {
	out = strings.TrimSpace(out)
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		return strings.TrimSpace(out[:i])
	}
	return out
}
