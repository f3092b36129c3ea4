package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
)

// SourceStatus tells why a source directory is unavailable.
type SourceStatus int

const (
	SourceAvailable SourceStatus = iota
	SourceNoMount
	SourceNoWorkstation
	SourceNoUser
)

// ResolveSource locates <mountPath>/<workstation>/<user>. When any level is
// missing it returns the matching status and a message for the report.
func ResolveSource(mountPath, workstation, user string) (string, SourceStatus, string) {
	if !isDir(mountPath) {
		return "", SourceNoMount, fmt.Sprintf("No such Mount directory: %s", mountPath)
	}

	wsPath := filepath.Join(mountPath, workstation)
	if !isDir(wsPath) {
		return "", SourceNoWorkstation, fmt.Sprintf("Remote system not available: %s", wsPath)
	}

	userPath := filepath.Join(wsPath, user)
	if user == "" || !isDir(userPath) {
		return "", SourceNoUser, fmt.Sprintf("No data available on %s for user %s", workstation, user)
	}

	if abs, err := filepath.Abs(userPath); err == nil {
		userPath = abs
	}
	return userPath, SourceAvailable, ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
