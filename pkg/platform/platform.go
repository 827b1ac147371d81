// Package platform detects the host operating system for rule filtering.
package platform

import (
	"os"
	"runtime"

	"github.com/jovalle/jsh/pkg/types"
)

// EnvOverride forces the detected platform, used by tests and by users
// building rule files on one OS for another.
const EnvOverride = "JSH_PLATFORM"

// Detect returns the platform the process is running on.
func Detect() types.Platform {
	if v := os.Getenv(EnvOverride); v != "" {
		switch types.Platform(v) {
		case types.PlatformMacOS, types.PlatformLinux:
			return types.Platform(v)
		}
		return types.PlatformUnknown
	}

	switch runtime.GOOS {
	case "darwin":
		return types.PlatformMacOS
	case "linux":
		return types.PlatformLinux
	default:
		return types.PlatformUnknown
	}
}
