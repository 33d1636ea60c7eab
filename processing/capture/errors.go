package capture

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"geocam/internal/models"
)

var permissionMarkers = []string{
	"Permission denied",
	"Operation not permitted",
	"not authorized",
}

const stderrTail = 240

// classify maps an ffmpeg failure and its stderr onto the error taxonomy.
func classify(err error, stderr string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: ffmpeg not found in PATH", models.ErrDeviceUnavailable)
	}

	reason := lastLine(stderr)
	if reason == "" && err != nil {
		reason = err.Error()
	}

	for _, m := range permissionMarkers {
		if strings.Contains(stderr, m) {
			return fmt.Errorf("%w: %s", models.ErrPermissionDenied, reason)
		}
	}

	return fmt.Errorf("%w: %s", models.ErrDeviceUnavailable, reason)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > stderrTail {
		s = s[len(s)-stderrTail:]
	}
	return strings.TrimSpace(s)
}
