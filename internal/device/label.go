package device

// TruncateLabel applies the label length policy: nil keeps the label, n >= 0
// keeps the first n characters, n < 0 keeps the last -n characters. Zero
// drops the label.
func TruncateLabel(label string, n *int) string {
	if n == nil || label == "" {
		return label
	}

	runes := []rune(label)
	limit := *n
	if limit >= 0 {
		if limit < len(runes) {
			return string(runes[:limit])
		}
		return label
	}

	if -limit < len(runes) {
		return string(runes[len(runes)+limit:])
	}
	return label
}
