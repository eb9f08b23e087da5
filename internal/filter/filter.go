package filter

import (
	"strings"

	"github.com/yang-ling/i3pystatus/internal/udev"
)

// PreFilter runs before udev attributes are resolved and reports whether a
// device path is excluded.
type PreFilter func(path string) bool

// PostFilter runs after resolution and may use the device's attributes.
type PostFilter func(path string, attrs udev.AttributeMap) bool

// Chain is the two stage device exclusion. Nil stages exclude nothing.
type Chain struct {
	Pre  PreFilter
	Post PostFilter
}

// Default excludes nothing
func Default() Chain {
	return Chain{}
}

// FastExclude applies the pre-filter
func (c Chain) FastExclude(path string) bool {
	return c.Pre != nil && c.Pre(path)
}

// Exclude applies the post-filter
func (c Chain) Exclude(path string, attrs udev.AttributeMap) bool {
	return c.Post != nil && c.Post(path, attrs)
}

// PathPrefix excludes paths starting with any of prefixes
func PathPrefix(prefixes ...string) PreFilter {
	return func(path string) bool {
		return hasAnyPrefix(path, prefixes)
	}
}

// AttributePrefix excludes devices whose attribute key starts with any of
// prefixes. Devices without the attribute are kept.
func AttributePrefix(key string, prefixes ...string) PostFilter {
	return func(_ string, attrs udev.AttributeMap) bool {
		value := attrs.Get(key)
		return value != "" && hasAnyPrefix(value, prefixes)
	}
}

// AttributeEquals excludes devices whose attributes hold every key/value
// of want. An empty want excludes nothing.
func AttributeEquals(want map[string]string) PostFilter {
	return func(_ string, attrs udev.AttributeMap) bool {
		if len(want) == 0 {
			return false
		}
		for k, v := range want {
			if attrs.Get(k) != v {
				return false
			}
		}
		return true
	}
}

// AnyPre excludes a path when any of filters does
func AnyPre(filters ...PreFilter) PreFilter {
	return func(path string) bool {
		for _, f := range filters {
			if f != nil && f(path) {
				return true
			}
		}
		return false
	}
}

// AnyPost excludes a device when any of filters does
func AnyPost(filters ...PostFilter) PostFilter {
	return func(path string, attrs udev.AttributeMap) bool {
		for _, f := range filters {
			if f != nil && f(path, attrs) {
				return true
			}
		}
		return false
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
