package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PhotoSlots is the number of photo slots attached to every work order.
const PhotoSlots = 4

// PhotoExt is the extension of every stored photo.
const PhotoExt = ".jpg"

// StoragePaths derives the deterministic object names for a work order.
type StoragePaths struct {
	PhotoPrefix  string
	ReportPrefix string
}

// PhotoPath returns the object name of photo slot (1-based) for key.
func (p StoragePaths) PhotoPath(key string, slot int) string {
	return joinPath(p.PhotoPrefix, key, fmt.Sprintf("foto%d%s", slot, PhotoExt))
}

// ReportPath returns the object name of the generated report for key.
func (p StoragePaths) ReportPath(key string) string {
	return joinPath(p.ReportPrefix, key+".pdf")
}

// ParsePhotoPath extracts the work order key and slot from an object name
// produced by PhotoPath. Names with any other extension are rejected, since
// the publisher would never fetch them.
func (p StoragePaths) ParsePhotoPath(name string) (key string, slot int, ok bool) {
	rest := name
	if p.PhotoPrefix != "" {
		prefix := strings.Trim(p.PhotoPrefix, "/") + "/"
		if !strings.HasPrefix(rest, prefix) {
			return "", 0, false
		}
		rest = strings.TrimPrefix(rest, prefix)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, false
	}
	file, found := strings.CutSuffix(parts[1], PhotoExt)
	if !found || !strings.HasPrefix(file, "foto") {
		return "", 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(file, "foto"))
	if err != nil || n < 1 || n > PhotoSlots {
		return "", 0, false
	}
	return parts[0], n, true
}

// ReportLink builds the stored reference for a report object: the
// link-resolution endpoint with the object path as its query parameter.
func ReportLink(endpoint, objectPath string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid link endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("link endpoint %q must be absolute", endpoint)
	}
	q := u.Query()
	q.Set("path", objectPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func joinPath(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
