package objectclient

import (
	"net/url"
	"path"
	"strings"
)

// ObjectKey creates a consistent key layout for stored source files.
// Shared corpora (no owner) live under "shared/".
func ObjectKey(ownerID, corpusID, filename string) string {
	filename = strings.TrimSpace(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	filename = strings.ReplaceAll(filename, " ", "_")
	if ownerID == "" {
		return path.Join("shared", corpusID, filename)
	}
	return path.Join("users", ownerID, "corpora", corpusID, filename)
}

// ParseURL extracts bucket and key from a stored object reference. It accepts
// virtual-hosted S3 URLs (https://bucket.s3.region.amazonaws.com/key) and
// scheme URLs such as s3://bucket/key or memory://bucket/key.
func ParseURL(raw string) (bucket, key string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", strings.TrimPrefix(raw, "/")
	}
	key = strings.TrimPrefix(u.Path, "/")
	switch u.Scheme {
	case "http", "https":
		parts := strings.Split(u.Host, ".")
		return parts[0], key
	default:
		return u.Host, key
	}
}
