package cmake

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Build compiles a single target in the resolver's build directory. An
// empty buildType leaves the generator's default configuration in
// place; multi-config generators get it as --config.
func (r *Resolver) Build(target string, buildType BuildType) error {
	args := []string{"--build", r.BuildDir, "--target", target}
	if buildType != "" {
		args = append(args, "--config", string(buildType))
	}

	cmd := exec.Command(r.CMakeBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return buildError(stderr.String(), err)
	}
	return nil
}

// CheckCMakeAvailable verifies that the configured cmake binary runs.
func (r *Resolver) CheckCMakeAvailable() error {
	cmd := exec.Command(r.CMakeBin, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cmake command failed: %w", err)
	}
	return nil
}

// buildError surfaces the build tool's own diagnostic, with the
// conventional "error: " prefix stripped.
func buildError(stderr string, cause error) error {
	msg := strings.TrimSpace(stderr)
	msg = strings.TrimPrefix(msg, "error: ")
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return fmt.Errorf("cmake build failed: %w", cause)
	}
	return fmt.Errorf("cmake build failed: %s", msg)
}
