package utils

import (
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"
)

var (
	invalidDeviceChars = regexp.MustCompile(`[^a-z0-9\-_]`)
	repeatedHyphens    = regexp.MustCompile(`-+`)
	validDeviceName    = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
)

// SanitizeDeviceName lowercases name, turns spaces into hyphens, and drops
// anything that is not alphanumeric, a hyphen, or an underscore.
func SanitizeDeviceName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "-")
	name = invalidDeviceChars.ReplaceAllString(name, "")
	name = repeatedHyphens.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "device"
	}
	return name
}

// IsValidDeviceName reports whether name is alphanumeric with hyphens or underscores.
func IsValidDeviceName(name string) bool {
	return validDeviceName.MatchString(name)
}

// GenerateDeviceName derives a device name from the hostname, or the
// username if the hostname is unavailable. A numeric suffix is appended
// if the name is already taken (compared case-insensitively).
func GenerateDeviceName(taken []string) (string, error) {
	base, err := os.Hostname()
	if err != nil || base == "" {
		if u, userErr := user.Current(); userErr == nil {
			base = u.Username
		}
	}
	base = SanitizeDeviceName(base)

	used := make(map[string]bool, len(taken))
	for _, name := range taken {
		used[strings.ToLower(name)] = true
	}

	name := base
	for suffix := 2; used[name]; suffix++ {
		name = base + "-" + strconv.Itoa(suffix)
	}
	return name, nil
}
