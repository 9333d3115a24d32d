package domain

import (
	"fmt"
	"strings"
	"time"
)

var zeroTime time.Time

// DownloadPolicy controls when thumbnails are prefetched
type DownloadPolicy string

const (
	// DownloadAlways prefetches thumbnails on every listing
	DownloadAlways DownloadPolicy = "always"

	// DownloadWiFiOnly prefetches only while connected over Wi-Fi
	DownloadWiFiOnly DownloadPolicy = "wifi-only"

	// DownloadNever disables thumbnail prefetch
	DownloadNever DownloadPolicy = "never"
)

// IsValid checks if the policy is a known value
func (p DownloadPolicy) IsValid() bool {
	switch p {
	case DownloadAlways, DownloadWiFiOnly, DownloadNever:
		return true
	}
	return false
}

// ParseDownloadPolicy parses a policy name (case-insensitive).
// "wifi", "wifi_only" and "wifionly" are accepted for wifi-only.
func ParseDownloadPolicy(s string) (DownloadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always":
		return DownloadAlways, nil
	case "wifi-only", "wifi_only", "wifionly", "wifi":
		return DownloadWiFiOnly, nil
	case "never":
		return DownloadNever, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDownloadPolicy, s)
}

// SelectionMode is the interaction mode derived from the session's
// sorting and selecting flags
type SelectionMode int

const (
	SelectionNone SelectionMode = iota
	SelectionSingle
	SelectionMultiple
)

// String returns the string representation of the mode
func (m SelectionMode) String() string {
	switch m {
	case SelectionNone:
		return "none"
	case SelectionSingle:
		return "single"
	case SelectionMultiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// Grouping is a named bucket of entries sharing a derived key
type Grouping struct {
	Key     string
	Entries []*Entry
}
