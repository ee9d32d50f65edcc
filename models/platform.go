// Package models contains domain entities and business models for the campaign engine
package models

import (
	"database/sql/driver"
	"fmt"
	"net/url"
	"strings"
)

// Platform enumerates the video platforms submissions can come from
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
)

// AllPlatforms lists every platform the system knows about
var AllPlatforms = []Platform{PlatformYouTube, PlatformTikTok, PlatformInstagram}

// String returns the string representation of the platform
func (p Platform) String() string {
	return string(p)
}

// Valid checks if the platform is a known member of the platform enum
func (p Platform) Valid() bool {
	switch p {
	case PlatformYouTube, PlatformTikTok, PlatformInstagram:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for Platform
func (p *Platform) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = Platform(v)
	case []byte:
		*p = Platform(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Platform", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for Platform
func (p Platform) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid Platform: %s", p)
	}
	return string(p), nil
}

// ParsePlatform normalizes a user-supplied platform name
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown platform: %q", s)
	}
	return p, nil
}

// PlatformFromURL infers the platform from a video link's host.
// Returns an error when the host belongs to none of the known platforms.
func PlatformFromURL(rawURL string) (Platform, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid video url: %w", err)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case host == "youtube.com" || host == "youtu.be" || strings.HasSuffix(host, ".youtube.com"):
		return PlatformYouTube, nil
	case host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com"):
		return PlatformTikTok, nil
	case host == "instagram.com" || strings.HasSuffix(host, ".instagram.com"):
		return PlatformInstagram, nil
	default:
		return "", fmt.Errorf("unrecognized video host: %q", host)
	}
}

// NormalizeVideoURL canonicalizes a video link for uniqueness checks:
// lowercased scheme/host, no trailing slash, no fragment, query preserved
// (YouTube watch URLs carry the video id in the query).
func NormalizeVideoURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid video url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme: %q", u.Scheme)
	}
	u.Scheme = "https"
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}
