package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"offlineform/internal/connectivity"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckProbe reports whether the connectivity probe endpoint answers. A
// failing probe is expected while offline, so the detail says so.
func CheckProbe(ctx context.Context, url string, timeoutSeconds int) Result {
	const name = "Connectivity probe"

	url = strings.TrimSpace(url)
	if url == "" {
		return Result{Name: name, Detail: "missing probe url"}
	}
	timeout := time.Duration(timeoutSeconds) * time.Second
	if connectivity.NewProber(url, timeout).Online(ctx) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", url)}
	}
	return Result{Name: name, Detail: fmt.Sprintf("%s (unreachable; submissions will be queued)", url)}
}
