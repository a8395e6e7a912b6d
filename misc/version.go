// Package misc has code to be shared by all restyle cmds.
package misc

import (
	"runtime/debug"
)

// Set at build time by the linker.
var (
	appName    = "restyle"
	appVersion = "0.0.0-dev"
	gitHash    = ""
)

// GetAppName returns program name to be used in messages and file names.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return appVersion
}

// GetGitHash returns git hash of the commit program was built from. When not
// set by the linker it attempts to read revision recorded in the build info.
func GetGitHash() string {
	if len(gitHash) != 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				if len(s.Value) > 8 {
					return s.Value[:8]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}
