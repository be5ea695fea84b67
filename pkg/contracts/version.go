package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the release of the keygate binary
	Version = "1.0.0"

	// APIVersion is the version of the HTTP contract in pkg/contracts/api
	APIVersion = "v1"

	// StoreSchemaVersion identifies the persisted keys table layout
	StoreSchemaVersion = "1"
)

// Set at build time:
//
//	go build -ldflags "-X keygate/pkg/contracts.GitCommit=$(git rev-parse --short HEAD)"
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

// VersionInfo describes the build for `keygate version --json`
type VersionInfo struct {
	Version       string `json:"version"`
	BuildTime     string `json:"build_time"`
	GitCommit     string `json:"git_commit"`
	GitBranch     string `json:"git_branch"`
	GoVersion     string `json:"go_version"`
	OS            string `json:"os"`
	Architecture  string `json:"architecture"`
	APIVersion    string `json:"api_version"`
	SchemaVersion string `json:"schema_version"`
}

// GetVersionInfo returns the build description of this binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:       Version,
		BuildTime:     BuildTime,
		GitCommit:     GitCommit,
		GitBranch:     GitBranch,
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Architecture:  runtime.GOARCH,
		APIVersion:    APIVersion,
		SchemaVersion: StoreSchemaVersion,
	}
}

// GetVersionString returns "keygate v<version>"
func GetVersionString() string {
	return "keygate v" + Version
}

// GetFullVersionString adds build metadata to GetVersionString
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		GetVersionString(), info.BuildTime, info.GitCommit, info.GoVersion, info.OS, info.Architecture)
}
