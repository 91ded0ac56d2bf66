// Package device derives stable device characteristics from user-agent
// strings for the ADN layer and behavior profiles.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Platform families reported by PlatformFamily.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWindows = "windows"
	PlatformMacOS   = "macos"
	PlatformLinux   = "linux"
	PlatformBot     = "bot"
	PlatformOther   = "other"
)

// Service computes device fingerprints. A disabled service returns empty
// fingerprints so callers fall back to explicit device ids only.
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ComputeFingerprint hashes browser name, browser major version, OS name and
// platform. Minor browser updates keep the fingerprint stable.
func (s *Service) ComputeFingerprint(userAgent string) string {
	if s == nil || !s.enabled || userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	major, _, _ := strings.Cut(version, ".")
	raw := strings.Join([]string{name, major, ua.OSInfo().Name, ua.Platform()}, "|")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether two fingerprints match and whether a
// known fingerprint drifted.
func (s *Service) CompareFingerprints(known, current string) (matched bool, drift bool) {
	if known == "" || current == "" {
		return false, false
	}
	matched = known == current
	return matched, !matched
}

// ParseUserAgent returns a display name such as "Chrome on Mac OS X".
func ParseUserAgent(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(fmt.Sprintf("%s on %s", browser, os))
}

// PlatformFamily classifies a user agent into a coarse OS family. An empty
// user agent yields "".
func PlatformFamily(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return PlatformBot
	}
	os := strings.ToLower(ua.OS() + " " + ua.Platform())
	switch {
	case strings.Contains(os, "iphone"), strings.Contains(os, "ipad"), strings.Contains(os, "ios"):
		return PlatformIOS
	case strings.Contains(os, "android"):
		return PlatformAndroid
	case strings.Contains(os, "windows"):
		return PlatformWindows
	case strings.Contains(os, "mac os"), strings.Contains(os, "macintosh"):
		return PlatformMacOS
	case strings.Contains(os, "linux"), strings.Contains(os, "x11"):
		return PlatformLinux
	default:
		return PlatformOther
	}
}
