package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the released version, overridden at build time:
//
//	go build -ldflags "-X github.com/hrygo/echomind/internal/version.Version=0.3.0"
var Version = "0.0.0-dev"

// GitCommit is the git commit hash at build time.
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = "unknown"

// Normalize returns v with a leading "v", or "" when v is not valid semver.
func Normalize(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// IsDevBuild reports whether the running binary carries a prerelease version.
func IsDevBuild() bool {
	v := Normalize(Version)
	return v == "" || semver.Prerelease(v) != ""
}

// AtLeast returns true if version is greater than or equal to target.
// Invalid versions never satisfy the comparison.
func AtLeast(version, target string) bool {
	v, t := Normalize(version), Normalize(target)
	if v == "" || t == "" {
		return false
	}
	return semver.Compare(v, t) >= 0
}

func shortCommit() string {
	if GitCommit == "" || GitCommit == "unknown" {
		return ""
	}
	if len(GitCommit) > 8 {
		return GitCommit[:8]
	}
	return GitCommit
}

// String returns the version with the short commit hash when known.
func String() string {
	if c := shortCommit(); c != "" {
		return fmt.Sprintf("%s-%s", Version, c)
	}
	return Version
}

// StringFull returns the complete version information including build metadata.
func StringFull() string {
	parts := []string{fmt.Sprintf("Version=%s", Version)}
	if c := shortCommit(); c != "" {
		parts = append(parts, fmt.Sprintf("Commit=%s", c))
	}
	if BuildTime != "" && BuildTime != "unknown" {
		parts = append(parts, fmt.Sprintf("BuildTime=%s", BuildTime))
	}
	return strings.Join(parts, " ")
}
