package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtLeast(t *testing.T) {
	tests := []struct {
		version string
		target  string
		want    bool
	}{
		{"0.3.0", "0.2.9", true},
		{"0.3.0", "0.3.0", true},
		{"v0.3.0", "0.4.0", false},
		{"garbage", "0.1.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.version+">="+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, AtLeast(tt.version, tt.target))
		})
	}
}

func TestString(t *testing.T) {
	oldVersion, oldCommit, oldBuild := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldBuild })

	Version, GitCommit, BuildTime = "1.2.3", "abcdef0123456789", "unknown"
	assert.Equal(t, "1.2.3-abcdef01", String())
	assert.Equal(t, "Version=1.2.3 Commit=abcdef01", StringFull())
	assert.False(t, IsDevBuild())

	Version, GitCommit = "0.0.0-dev", "unknown"
	assert.Equal(t, "0.0.0-dev", String())
	assert.True(t, IsDevBuild())
}
