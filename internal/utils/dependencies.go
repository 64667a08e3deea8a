package utils

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const versionCheckTimeout = 10 * time.Second

// DependencyChecker verifies the external binaries the extractor shells out to
type DependencyChecker struct {
	binaries map[string][]string // binary -> version check args
	paths    map[string]string
}

// NewDependencyChecker creates a checker for the given binaries. The map
// value is the argument list used to verify the binary actually runs.
func NewDependencyChecker(ytdlpPath, ffmpegPath string) *DependencyChecker {
	return &DependencyChecker{
		binaries: map[string][]string{
			ytdlpPath:  {"--version"},
			ffmpegPath: {"-version"},
		},
		paths: make(map[string]string),
	}
}

// Check locates every binary and runs its version command. It returns an
// error naming the missing binaries, if any.
func (dc *DependencyChecker) Check(ctx context.Context) error {
	var missing []string

	for binary, args := range dc.binaries {
		path, err := exec.LookPath(binary)
		if err != nil {
			missing = append(missing, binary)
			continue
		}

		runCtx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
		err = exec.CommandContext(runCtx, path, args...).Run()
		cancel()
		if err != nil {
			missing = append(missing, binary)
			continue
		}

		dc.paths[binary] = path
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing dependencies: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Path returns the resolved absolute path for a checked binary, or the
// binary name itself if it was not resolved.
func (dc *DependencyChecker) Path(binary string) string {
	if p, ok := dc.paths[binary]; ok {
		return p
	}
	return binary
}
