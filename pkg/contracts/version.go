package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the application
	Version = "0.3.0"

	// VersionStage represents the current development step
	VersionStage = "beta"

	// APIVersion is the version of the HTTP and websocket payloads
	APIVersion = "v1"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version    string `json:"version"`
	Stage      string `json:"stage"`
	APIVersion string `json:"api_version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// CurrentBuild returns build information for the running binary
func CurrentBuild() BuildInfo {
	return BuildInfo{
		Version:    Version,
		Stage:      VersionStage,
		APIVersion: APIVersion,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human readable version line
func (b BuildInfo) String() string {
	return fmt.Sprintf("brewsignal %s (%s) api=%s %s %s", b.Version, b.Stage, b.APIVersion, b.GoVersion, b.Platform)
}
