// Package storage provides object storage adapters.
package storage

import (
	"net/url"
	"strings"
)

// joinKey returns the full object key including prefix.
func joinKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// joinURL appends a slash separated object key to base, escaping each
// path segment.
func joinURL(base, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.Join(parts, "/")
}
