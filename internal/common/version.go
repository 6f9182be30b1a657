package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version, BuildTime and GitCommit are set at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func GetVersion() string {
	return Version
}

func GetBuild() string {
	return BuildTime
}

func GetFullVersion() string {
	return fmt.Sprintf("%s (build %s, commit %s)", Version, BuildTime, GitCommit)
}

// LoadVersionFromFile reads a ".version" file next to the running
// executable, if present, and uses its contents as Version. Absence of the
// file is not an error; the ldflags-injected default stands.
func LoadVersionFromFile() {
	execPath, err := os.Executable()
	if err != nil {
		return
	}
	versionFile := filepath.Join(filepath.Dir(execPath), ".version")
	data, err := os.ReadFile(versionFile)
	if err != nil {
		return
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		Version = v
	}
}
