package platform_test

import (
	"runtime"
	"testing"

	"github.com/jovalle/jsh/pkg/platform"
	"github.com/jovalle/jsh/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	got := platform.Detect()

	switch runtime.GOOS {
	case "darwin":
		assert.Equal(t, types.PlatformMacOS, got)
	case "linux":
		assert.Equal(t, types.PlatformLinux, got)
	default:
		assert.Equal(t, types.PlatformUnknown, got)
	}
}

func TestDetect_EnvOverride(t *testing.T) {
	t.Setenv(platform.EnvOverride, "macos")
	assert.Equal(t, types.PlatformMacOS, platform.Detect())

	t.Setenv(platform.EnvOverride, "linux")
	assert.Equal(t, types.PlatformLinux, platform.Detect())

	t.Setenv(platform.EnvOverride, "plan9")
	assert.Equal(t, types.PlatformUnknown, platform.Detect())
}

func TestPlatformMatches(t *testing.T) {
	tests := []struct {
		name     string
		rule     types.Platform
		detected types.Platform
		want     bool
	}{
		{"all_matches_linux", types.PlatformAll, types.PlatformLinux, true},
		{"empty_matches_macos", types.Platform(""), types.PlatformMacOS, true},
		{"macos_on_macos", types.PlatformMacOS, types.PlatformMacOS, true},
		{"macos_on_linux", types.PlatformMacOS, types.PlatformLinux, false},
		{"linux_on_macos", types.PlatformLinux, types.PlatformMacOS, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(tt.detected))
		})
	}
}
